package feed

import (
	"context"
	"sync"
	"time"

	"github.com/bilgisen/newshub/internal/logger"
	"github.com/bilgisen/newshub/internal/models"
)

// Cycler produces one board snapshot per call.
type Cycler interface {
	RunCycle(ctx context.Context) *models.Snapshot
}

// PublishFunc receives every completed snapshot.
type PublishFunc func(ctx context.Context, snap *models.Snapshot)

// Poller re-runs the whole pipeline on a fixed interval. Cycles never
// overlap: a tick that fires while a cycle is running is dropped by the
// ticker, and manual refreshes wait for the running cycle.
type Poller struct {
	cycler   Cycler
	publish  PublishFunc
	interval time.Duration
	mu       sync.Mutex
}

func NewPoller(cycler Cycler, interval time.Duration, publish PublishFunc) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{
		cycler:   cycler,
		publish:  publish,
		interval: interval,
	}
}

// Start runs a cycle immediately and then on every tick. It blocks until
// ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	log := logger.With("poller")
	log.Info().Dur("interval", p.interval).Msg("Poller started")

	p.RefreshNow(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Poller stopped")
			return
		case <-ticker.C:
			p.RefreshNow(ctx)
		}
	}
}

// RefreshNow runs one cycle, publishes it and returns it.
func (p *Poller) RefreshNow(ctx context.Context) *models.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := p.cycler.RunCycle(ctx)
	if p.publish != nil && snap != nil {
		p.publish(ctx, snap)
	}
	return snap
}
