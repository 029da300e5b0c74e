// internal/app/system/workers/retention.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pruner deletes records older than a cutoff and reports how many went.
// loginstore.Store and audit.Store satisfy it.
type Pruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Target is one collection swept by Retention. A zero MaxAge disables it.
type Target struct {
	Name   string
	Pruner Pruner
	MaxAge time.Duration
}

// Retention is a background worker that periodically deletes login records
// and audit events past their configured age.
type Retention struct {
	targets  []Target
	log      *zap.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewRetention creates a retention worker. Targets with a zero MaxAge are
// dropped; Enabled reports whether anything is left to sweep.
func NewRetention(logger *zap.Logger, interval time.Duration, targets ...Target) *Retention {
	active := make([]Target, 0, len(targets))
	for _, t := range targets {
		if t.MaxAge > 0 && t.Pruner != nil {
			active = append(active, t)
		}
	}
	return &Retention{
		targets:  active,
		log:      logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Enabled reports whether the worker has at least one target.
func (w *Retention) Enabled() bool { return len(w.targets) > 0 }

// Start runs one sweep immediately, then one per interval.
func (w *Retention) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("retention worker started",
		zap.Duration("interval", w.interval),
		zap.Int("targets", len(w.targets)))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *Retention) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("retention worker stopped")
}

func (w *Retention) run() {
	defer w.wg.Done()

	w.Sweep()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep prunes every target once. A failing target is logged and the rest
// still run.
func (w *Retention) Sweep() {
	for _, t := range w.targets {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		count, err := t.Pruner.DeleteBefore(ctx, w.now().Add(-t.MaxAge))
		cancel()
		if err != nil {
			w.log.Error("retention sweep failed", zap.String("target", t.Name), zap.Error(err))
			continue
		}
		if count > 0 {
			w.log.Info("pruned expired records", zap.String("target", t.Name), zap.Int64("count", count))
		}
	}
}
