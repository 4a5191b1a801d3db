package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	assert.Equal(t, 0.0, Distance("revenue", "Revenue"))
	assert.InDelta(t, 1.0/7.0, Distance("revnue", "revenue"), 1e-9)
	assert.Equal(t, 1.0, Distance("abc", "xyz"))
	assert.Equal(t, 0.0, Distance("", ""))
}

func TestMatcherBest(t *testing.T) {
	m := NewMatcher(0.4)
	candidates := []string{"California", "Colorado", "Connecticut"}

	got, ok := m.Best("Califronia", candidates)
	require.True(t, ok)
	assert.Equal(t, "California", got.Candidate)
	assert.Equal(t, 0, got.Index)

	_, ok = m.Best("Zanzibar", candidates)
	assert.False(t, ok)

	_, ok = m.Best("  ", candidates)
	assert.False(t, ok)
}

func TestNewMatcherDefaults(t *testing.T) {
	assert.Equal(t, DefaultThreshold, NewMatcher(0).Threshold())
	assert.Equal(t, DefaultThreshold, NewMatcher(1.5).Threshold())
	assert.Equal(t, 0.25, NewMatcher(0.25).Threshold())
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 70, Confidence(0, 70))
	assert.Equal(t, 60, Confidence(1.0/7.0, 70))
	assert.Equal(t, 0, Confidence(1.5, 85))
	assert.Equal(t, 85, Confidence(-1, 85))
}
