package learning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusprep/pkg/contracts/domain"
)

type failingStore struct{ MemoryStore }

func (*failingStore) Record(context.Context, []Entry) error { return errors.New("disk full") }

func (*failingStore) List(context.Context, string) ([]Entry, error) {
	return nil, errors.New("disk full")
}

var sample = []domain.ColumnMapping{
	{SourceColumn: "Ship-to State", SuggestedField: domain.FieldState, Confidence: 100},
	{SourceColumn: "Amt", SuggestedField: domain.FieldRevenue, Confidence: 80},
	{SourceColumn: "Reveune", SuggestedField: domain.FieldRevenue, Confidence: 65},
	{SourceColumn: "Notes", SuggestedField: domain.FieldIgnore, Confidence: 15},
}

func TestSinkRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sink := NewSink(store, 80, nil)

	assert.Equal(t, 2, sink.Record(ctx, "acme", sample))

	learned := sink.Learned(ctx, "acme")
	require.Len(t, learned, 2)
	assert.Equal(t, domain.FieldState, learned["ship to state"].Field)
	assert.Equal(t, 80, learned["amt"].Confidence)
}

func TestSinkWithoutFirmOnlyCounts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sink := NewSink(store, 0, nil)

	assert.Equal(t, 2, sink.Record(ctx, "", sample))
	list, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.Equal(t, 2, NewSink(nil, 80, nil).Record(ctx, "acme", sample))
}

func TestSinkSwallowsStoreFailures(t *testing.T) {
	ctx := context.Background()
	sink := NewSink(&failingStore{}, 80, nil)

	assert.Equal(t, 2, sink.Record(ctx, "acme", sample))
	assert.Empty(t, sink.Learned(ctx, "acme"))
}
