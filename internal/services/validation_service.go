package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"nexusprep/internal/dataprocessing"
	"nexusprep/internal/learning"
	"nexusprep/internal/mapping"
	"nexusprep/internal/operations"
	"nexusprep/internal/validation"
	api "nexusprep/pkg/contracts/api/v1"
	"nexusprep/pkg/contracts/domain"
)

const (
	DefaultCacheSize   = 256
	DefaultParallelism = 4
)

// Upload is one file received from a client. Open is called once.
type Upload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// SheetsSource reads spreadsheet ranges as datasets.
type SheetsSource interface {
	ReadRanges(ctx context.Context, spreadsheetID string, ranges []string) ([]*domain.Dataset, error)
}

// SheetsRequest asks for a validation of Google Sheets ranges.
type SheetsRequest = api.SheetsValidationRequest

// Options configures a ValidationService.
type Options struct {
	CacheSize      int
	Parallelism    int
	HeaderScanRows int
	MaxFileBytes   int64
}

// ValidationService ingests files and runs the validation pipeline.
type ValidationService struct {
	manager     *operations.Manager
	sink        *learning.Sink
	files       *validation.FileValidator
	sheets      SheetsSource
	cache       *lru.Cache[string, *domain.ValidationResult]
	parseOpts   dataprocessing.ParseOptions
	parallelism int
	logger      *slog.Logger
}

// NewValidationService creates the service. sink may be nil when no firm taxonomy is kept.
func NewValidationService(manager *operations.Manager, sink *learning.Sink, opts Options, logger *slog.Logger) (*ValidationService, error) {
	if manager == nil {
		return nil, fmt.Errorf("validation service requires a pipeline manager")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = DefaultParallelism
	}

	cache, err := lru.New[string, *domain.ValidationResult](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	return &ValidationService{
		manager:     manager,
		sink:        sink,
		files:       validation.NewFileValidator(logger, opts.MaxFileBytes),
		cache:       cache,
		parseOpts:   dataprocessing.ParseOptions{HeaderScanRows: opts.HeaderScanRows},
		parallelism: opts.Parallelism,
		logger:      logger.With("component", "validation_service"),
	}, nil
}

// SetSheetsSource enables Google Sheets ingestion
func (s *ValidationService) SetSheetsSource(src SheetsSource) {
	s.sheets = src
}

// ValidateUploads parses every upload and validates them together. Rejected or
// unparseable uploads fail the request before the pipeline runs.
func (s *ValidationService) ValidateUploads(ctx context.Context, firmID string, uploads []Upload) (*domain.ValidationResult, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}
	for _, u := range uploads {
		if err := s.files.ValidateUpload(u.Name, u.Size); err != nil {
			return nil, err
		}
	}

	datasets, err := s.parseAll(ctx, len(uploads), func(i int) (*domain.Dataset, error) {
		u := uploads[i]
		rc, err := u.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", u.Name, err)
		}
		defer rc.Close()
		return dataprocessing.ParseReader(u.Name, rc, s.parseOpts)
	})
	if err != nil {
		return nil, err
	}
	return s.run(ctx, firmID, datasets), nil
}

// ValidatePaths validates local files and directories. The parsed datasets are
// returned alongside the result for export.
func (s *ValidationService) ValidatePaths(ctx context.Context, firmID string, args []string) (*domain.ValidationResult, []*domain.Dataset, error) {
	paths, err := s.files.ExpandInputs(args)
	if err != nil {
		return nil, nil, err
	}
	if len(paths) == 0 {
		return nil, nil, ErrNoFiles
	}
	for _, p := range paths {
		if err := s.files.ValidateInputFile(p); err != nil {
			return nil, nil, err
		}
	}

	datasets, err := s.parseAll(ctx, len(paths), func(i int) (*domain.Dataset, error) {
		return dataprocessing.ParseFile(paths[i], s.parseOpts)
	})
	if err != nil {
		return nil, nil, err
	}
	return s.run(ctx, firmID, datasets), datasets, nil
}

// ValidateSheets validates Google Sheets ranges, one dataset per range.
func (s *ValidationService) ValidateSheets(ctx context.Context, req SheetsRequest) (*domain.ValidationResult, error) {
	if s.sheets == nil {
		return nil, ErrSheetsUnavailable
	}
	if len(req.Ranges) == 0 {
		return nil, ErrNoFiles
	}
	datasets, err := s.sheets.ReadRanges(ctx, req.SpreadsheetID, req.Ranges)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, req.FirmID, datasets), nil
}

// GetResult returns a cached result by run ID
func (s *ValidationService) GetResult(id string) (*domain.ValidationResult, error) {
	result, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrResultNotFound
	}
	return result, nil
}

// FirmTaxonomy lists the learned mappings for a firm.
func (s *ValidationService) FirmTaxonomy(ctx context.Context, firmID string) ([]learning.Entry, error) {
	if s.sink == nil || s.sink.Store() == nil {
		return nil, ErrTaxonomyDisabled
	}
	if firmID == "" {
		firmID = s.manager.GetConfig().DefaultFirm
	}
	entries, err := s.sink.Store().List(ctx, firmID)
	if err != nil {
		return nil, fmt.Errorf("failed to list taxonomy for %s: %w", firmID, err)
	}
	if entries == nil {
		entries = []learning.Entry{}
	}
	return entries, nil
}

// FirmMapping returns the learned mapping for one source header of a firm. The header
// is normalized the way the column mapper keys its lookups.
func (s *ValidationService) FirmMapping(ctx context.Context, firmID, header string) (learning.Entry, error) {
	if s.sink == nil || s.sink.Store() == nil {
		return learning.Entry{}, ErrTaxonomyDisabled
	}
	if firmID == "" {
		firmID = s.manager.GetConfig().DefaultFirm
	}
	key := mapping.NormalizeHeader(header)
	if key == "" {
		return learning.Entry{}, learning.ErrNotFound
	}
	entry, err := s.sink.Store().Lookup(ctx, firmID, key)
	if err != nil {
		return learning.Entry{}, fmt.Errorf("failed to look up %q for %s: %w", key, firmID, err)
	}
	return entry, nil
}

// Manager returns the pipeline manager
func (s *ValidationService) Manager() *operations.Manager {
	return s.manager
}

// parseAll runs parse for indexes 0..n-1 concurrently and returns the datasets in
// index order. The first error cancels the rest.
func (s *ValidationService) parseAll(ctx context.Context, n int, parse func(i int) (*domain.Dataset, error)) ([]*domain.Dataset, error) {
	datasets := make([]*domain.Dataset, n)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	start := time.Now()
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			ds, err := parse(i)
			if err != nil {
				return err
			}
			datasets[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.WarnContext(ctx, "ingestion_failed", slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.InfoContext(ctx, "ingestion_complete",
		slog.Int("files", n),
		slog.Duration("duration", time.Since(start)))
	return datasets, nil
}

func (s *ValidationService) run(ctx context.Context, firmID string, datasets []*domain.Dataset) *domain.ValidationResult {
	result := s.manager.ValidateForFirm(ctx, firmID, datasets)
	s.cache.Add(result.ID, result)
	return result
}
