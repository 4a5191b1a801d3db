package operations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker(t *testing.T) {
	p := NewProgressTracker(7)
	assert.Equal(t, 0.0, p.Percent())
	assert.Equal(t, "calculating...", p.ETA())

	p.Advance(2)
	assert.Equal(t, 28.6, p.Percent())
	assert.NotEqual(t, "done", p.ETA())

	p.Advance(10)
	assert.Equal(t, 100.0, p.Percent())
	assert.Equal(t, 7, p.Current)
	assert.Equal(t, "done", p.ETA())
}

func TestProgressTracker_EmptyRun(t *testing.T) {
	p := NewProgressTracker(0)
	assert.Equal(t, 100.0, p.Percent())
	assert.Equal(t, "done", p.ETA())
}
