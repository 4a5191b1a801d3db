package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"nexusprep/internal/config"
	"nexusprep/pkg/contracts/domain"
)

// SheetsReader reads Google Sheets ranges as datasets.
type SheetsReader struct {
	service  *sheets.Service
	scanRows int
	logger   *slog.Logger
}

// NewSheetsReader creates a reader authenticated from cfg. Extra client options are
// appended after the credentials.
func NewSheetsReader(ctx context.Context, cfg config.SheetsConfig, scanRows int, logger *slog.Logger, opts ...option.ClientOption) (*SheetsReader, error) {
	var clientOpts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return NewSheetsReaderWithService(service, scanRows, logger), nil
}

// NewSheetsReaderWithService wraps an existing Sheets client.
func NewSheetsReaderWithService(service *sheets.Service, scanRows int, logger *slog.Logger) *SheetsReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetsReader{
		service:  service,
		scanRows: scanRows,
		logger:   logger.With("component", "sheets_reader"),
	}
}

// ReadRange reads one A1 range, e.g. "Sales!A1:H500".
func (r *SheetsReader) ReadRange(ctx context.Context, spreadsheetID, readRange string) (*domain.Dataset, error) {
	resp, err := r.service.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", readRange, err)
	}

	r.logger.DebugContext(ctx, "sheets_range_read",
		slog.String("spreadsheet_id", spreadsheetID),
		slog.String("range", resp.Range),
		slog.Int("rows", len(resp.Values)))
	return BuildDataset(datasetName(resp.Range, readRange), toRows(resp.Values), r.scanRows), nil
}

// ReadRanges reads several ranges in one request, preserving their order.
func (r *SheetsReader) ReadRanges(ctx context.Context, spreadsheetID string, ranges []string) ([]*domain.Dataset, error) {
	if len(ranges) == 1 {
		ds, err := r.ReadRange(ctx, spreadsheetID, ranges[0])
		if err != nil {
			return nil, err
		}
		return []*domain.Dataset{ds}, nil
	}

	resp, err := r.service.Spreadsheets.Values.BatchGet(spreadsheetID).Ranges(ranges...).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %d ranges: %w", len(ranges), err)
	}

	out := make([]*domain.Dataset, 0, len(resp.ValueRanges))
	for i, vr := range resp.ValueRanges {
		requested := ""
		if i < len(ranges) {
			requested = ranges[i]
		}
		out = append(out, BuildDataset(datasetName(vr.Range, requested), toRows(vr.Values), r.scanRows))
	}
	return out, nil
}

func datasetName(returned, requested string) string {
	if returned != "" {
		return returned
	}
	return requested
}

func toRows(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = domain.CellString(v)
		}
	}
	return rows
}
