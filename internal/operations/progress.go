package operations

import (
	"fmt"
	"sync"
	"time"
)

// ProgressTracker counts finished stage executions across a run
type ProgressTracker struct {
	Total     int
	Current   int
	StartTime time.Time
	mu        sync.Mutex
}

// NewProgressTracker creates a tracker expecting total stage executions
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{
		Total:     total,
		StartTime: time.Now(),
	}
}

// Advance marks n more stage executions as finished. Skipped stages count as finished.
func (p *ProgressTracker) Advance(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Current += n
	if p.Current > p.Total {
		p.Current = p.Total
	}
}

// Percent returns overall progress in [0,100], rounded to one decimal
func (p *ProgressTracker) Percent() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Total <= 0 {
		return 100
	}
	pct := float64(p.Current) / float64(p.Total) * 100
	return float64(int(pct*10+0.5)) / 10
}

// ETA estimates the time remaining from the rate so far
func (p *ProgressTracker) ETA() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Current >= p.Total {
		return "done"
	}
	if p.Current == 0 {
		return "calculating..."
	}

	elapsed := time.Since(p.StartTime)
	rate := float64(p.Current) / elapsed.Seconds()
	if rate == 0 {
		return "calculating..."
	}

	remaining := float64(p.Total-p.Current) / rate
	switch {
	case remaining < 60:
		return fmt.Sprintf("%.0f seconds", remaining)
	case remaining < 3600:
		return fmt.Sprintf("%.0f minutes", remaining/60)
	default:
		return fmt.Sprintf("%.1f hours", remaining/3600)
	}
}
