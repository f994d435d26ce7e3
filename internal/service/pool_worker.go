package service

import (
	"context"
	"sync"
	"time"

	"github.com/FacundoMartinezR/TikTokFinder/internal/metrics"
	"github.com/FacundoMartinezR/TikTokFinder/internal/middleware"
)

// PoolRefresher replaces the cached preview pool.
type PoolRefresher interface {
	RefreshPool(ctx context.Context, cookie string) (int, error)
}

// PoolWorker is a periodic background job that keeps the cached preview pool
// warm so free-tier users rarely wait for a directory fetch.
type PoolWorker struct {
	preview  PoolRefresher
	cookie   string
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewPoolWorker creates a worker that ticks every interval. cookie is the
// service credential sent to the directory.
func NewPoolWorker(preview PoolRefresher, cookie string, interval time.Duration) *PoolWorker {
	return &PoolWorker{
		preview:  preview,
		cookie:   cookie,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the refresh loop. It runs one tick immediately, then every
// interval, until ctx is cancelled or Stop is called.
func (w *PoolWorker) Start(ctx context.Context) {
	middleware.Logger.Info().Dur("interval", w.interval).Msg("pool-worker: starting")

	// Run once immediately on startup
	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			middleware.Logger.Info().Msg("pool-worker: stopping (context cancelled)")
			return
		case <-w.stopCh:
			middleware.Logger.Info().Msg("pool-worker: stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop. It is safe to call more than once.
func (w *PoolWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *PoolWorker) tick(ctx context.Context) {
	start := time.Now()

	n, err := w.preview.RefreshPool(ctx, w.cookie)
	if err != nil {
		metrics.Metrics.PoolRefreshes.WithLabelValues("error").Inc()
		middleware.Logger.Error().Err(err).Msg("pool-worker: refresh failed")
		return
	}

	metrics.Metrics.PoolRefreshes.WithLabelValues("ok").Inc()
	middleware.Logger.Info().
		Int("records", n).
		Dur("duration_ms", time.Since(start)).
		Msg("pool-worker: tick complete")
}
