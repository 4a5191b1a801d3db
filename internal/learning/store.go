// Package learning records confirmed column mappings per firm so later uploads from the
// same firm skip generic inference.
package learning

import (
	"context"
	"errors"
	"time"

	"nexusprep/pkg/contracts/domain"
)

// ErrNotFound is returned when a firm has no entry for a header.
var ErrNotFound = errors.New("learned mapping not found")

// Entry is one learned header-to-field mapping.
type Entry struct {
	FirmID       string         `json:"firm_id"`
	Header       string         `json:"header"`
	SourceColumn string         `json:"source_column"`
	Field        domain.FieldID `json:"field"`
	Confidence   int            `json:"confidence"`
	TimesSeen    int            `json:"times_seen"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Store persists learned mappings keyed by firm and normalized header.
// Record upserts: the higher confidence wins and TimesSeen is incremented.
type Store interface {
	Lookup(ctx context.Context, firmID, header string) (Entry, error)
	Record(ctx context.Context, entries []Entry) error
	List(ctx context.Context, firmID string) ([]Entry, error)
	Close() error
}

// merge applies the upsert rule to an existing entry.
func merge(existing, incoming Entry) Entry {
	out := existing
	if incoming.Confidence >= existing.Confidence {
		out.Field = incoming.Field
		out.Confidence = incoming.Confidence
		out.SourceColumn = incoming.SourceColumn
	}
	out.TimesSeen = existing.TimesSeen + 1
	out.UpdatedAt = incoming.UpdatedAt
	return out
}
