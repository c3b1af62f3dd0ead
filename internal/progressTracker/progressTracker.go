package progressTracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/KotFed0t/stock_screener/utils"
)

type Snapshot struct {
	Completed int
	Total     int
	StartedAt time.Time
	Cancelled bool
}

// Percent is the completed share of the universe, 0 when nothing is known yet.
func (s Snapshot) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total) * 100
}

// Tracker records acquisition progress and carries the cancel request back to the acquirer.
type Tracker struct {
	mu        sync.Mutex
	completed int
	total     int
	startedAt time.Time
	cancelled bool
}

func New() *Tracker {
	return &Tracker{}
}

func (t *Tracker) Update(completed, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.startedAt.IsZero() {
		t.startedAt = time.Now()
	}
	t.completed = completed
	t.total = total
}

func (t *Tracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = true
}

func (t *Tracker) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Completed: t.completed,
		Total:     t.total,
		StartedAt: t.startedAt,
		Cancelled: t.cancelled,
	}
}

// LogProgress is run periodically by the scheduler while acquisition is in flight.
func (t *Tracker) LogProgress(ctx context.Context) error {
	snap := t.Snapshot()

	var elapsed time.Duration
	if !snap.StartedAt.IsZero() {
		elapsed = time.Since(snap.StartedAt).Round(time.Second)
	}

	slog.Info(
		"loading stocks",
		slog.String("rqID", utils.GetRequestIDFromCtx(ctx)),
		slog.Int("completed", snap.Completed),
		slog.Int("total", snap.Total),
		slog.String("percent", utils.FormatPercent(snap.Percent())),
		slog.Duration("elapsed", elapsed),
	)

	return nil
}
