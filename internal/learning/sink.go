package learning

import (
	"context"
	"log/slog"

	"nexusprep/internal/mapping"
	"nexusprep/pkg/contracts/domain"
)

// DefaultThreshold is the confidence a mapping needs to be learned.
const DefaultThreshold = 80

// Sink feeds confident mappings into a Store. Persistence is best effort: failures are
// logged and never reach the caller.
type Sink struct {
	store     Store
	threshold int
	logger    *slog.Logger
}

// NewSink creates a sink over store. A nil store only counts.
func NewSink(store Store, threshold int, logger *slog.Logger) *Sink {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{store: store, threshold: threshold, logger: logger.With("component", "firm_learning")}
}

// Threshold returns the learning confidence threshold.
func (s *Sink) Threshold() int { return s.threshold }

// Candidates returns the mappings confident enough to learn.
func (s *Sink) Candidates(mappings []domain.ColumnMapping) []domain.ColumnMapping {
	var out []domain.ColumnMapping
	for _, m := range mappings {
		if m.IsMapped() && m.Confidence >= s.threshold {
			out = append(out, m)
		}
	}
	return out
}

// Record persists the confident mappings for firmID and returns how many there were.
func (s *Sink) Record(ctx context.Context, firmID string, mappings []domain.ColumnMapping) int {
	candidates := s.Candidates(mappings)
	if len(candidates) == 0 || s.store == nil || firmID == "" {
		return len(candidates)
	}

	entries := make([]Entry, 0, len(candidates))
	for _, m := range candidates {
		header := mapping.NormalizeHeader(m.SourceColumn)
		if header == "" {
			continue
		}
		entries = append(entries, Entry{
			FirmID:       firmID,
			Header:       header,
			SourceColumn: m.SourceColumn,
			Field:        m.SuggestedField,
			Confidence:   m.Confidence,
		})
	}
	if err := s.store.Record(ctx, entries); err != nil {
		s.logger.WarnContext(ctx, "firm_learning_persist_failed",
			slog.String("firm_id", firmID),
			slog.Int("entries", len(entries)),
			slog.String("error", err.Error()))
	} else {
		s.logger.DebugContext(ctx, "firm_learning_recorded",
			slog.String("firm_id", firmID),
			slog.Int("entries", len(entries)))
	}
	return len(candidates)
}

// Learned loads a firm's taxonomy in the form the column mapper consults. Errors yield
// an empty taxonomy.
func (s *Sink) Learned(ctx context.Context, firmID string) map[string]mapping.Learned {
	out := map[string]mapping.Learned{}
	if s.store == nil || firmID == "" {
		return out
	}
	entries, err := s.store.List(ctx, firmID)
	if err != nil {
		s.logger.WarnContext(ctx, "firm_learning_load_failed",
			slog.String("firm_id", firmID),
			slog.String("error", err.Error()))
		return out
	}
	for _, e := range entries {
		out[e.Header] = mapping.Learned{Field: e.Field, Confidence: e.Confidence}
	}
	return out
}

// Store returns the underlying store, which may be nil.
func (s *Sink) Store() Store { return s.store }
