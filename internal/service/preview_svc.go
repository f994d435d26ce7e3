package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/FacundoMartinezR/TikTokFinder/internal/directory"
	"github.com/FacundoMartinezR/TikTokFinder/internal/metrics"
	"github.com/FacundoMartinezR/TikTokFinder/internal/middleware"
	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
	"github.com/FacundoMartinezR/TikTokFinder/internal/sample"
)

// DirectoryLister is the part of the directory client the services use.
type DirectoryLister interface {
	List(ctx context.Context, cookie string, q directory.Query) (directory.Page, error)
}

// PreviewConfig sizes the preview pool and sample.
type PreviewConfig struct {
	Pages       int
	PageSize    int
	Concurrency int
	SampleLimit int
	// FetchTimeout bounds a shared pool fetch, which outlives the request
	// that started it.
	FetchTimeout time.Duration
}

// DefaultPreviewConfig fetches 4 pages of 100 and samples 50.
var DefaultPreviewConfig = PreviewConfig{
	Pages:        4,
	PageSize:     100,
	Concurrency:  2,
	SampleLimit:  sample.DefaultLimit,
	FetchTimeout: 30 * time.Second,
}

// PreviewService builds and caches the free-tier preview sample.
type PreviewService struct {
	dir   DirectoryLister
	cache *CacheService
	cfg   PreviewConfig
	group singleflight.Group
}

func NewPreviewService(dir DirectoryLister, cache *CacheService, cfg PreviewConfig) *PreviewService {
	if cfg.Pages <= 0 {
		cfg.Pages = DefaultPreviewConfig.Pages
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPreviewConfig.PageSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultPreviewConfig.Concurrency
	}
	if cfg.SampleLimit <= 0 {
		cfg.SampleLimit = DefaultPreviewConfig.SampleLimit
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultPreviewConfig.FetchTimeout
	}
	return &PreviewService{dir: dir, cache: cache, cfg: cfg}
}

// FetchPool reads the first pages of the unfiltered directory, most
// followed first, and concatenates them in page order. Any failed page fails
// the whole fetch.
func (s *PreviewService) FetchPool(ctx context.Context, cookie string) ([]model.Influencer, error) {
	pages := make([][]model.Influencer, s.cfg.Pages)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i := range pages {
		g.Go(func() error {
			page, err := s.dir.List(gctx, cookie, directory.Query{
				Filters: model.Filters{SortBy: model.SortByFollowers},
				Page:    i + 1,
				PerPage: s.cfg.PageSize,
			})
			if err != nil {
				return fmt.Errorf("fetch preview page %d: %w", i+1, err)
			}
			pages[i] = page.Results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.Metrics.UpstreamErrors.WithLabelValues("directory").Inc()
		return nil, err
	}

	var pool []model.Influencer
	for _, p := range pages {
		pool = append(pool, p...)
	}
	return pool, nil
}

// Pool returns the cached preview pool, fetching it on a miss. Concurrent
// misses share one fetch. The fetch is detached from any single caller, so a
// caller that goes away only stops its own wait.
func (s *PreviewService) Pool(ctx context.Context, cookie string) ([]model.Influencer, error) {
	if pool, ok := s.cache.GetPool(ctx); ok {
		return pool, nil
	}
	ch := s.group.DoChan(poolKey, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.FetchTimeout)
		defer cancel()

		pool, err := s.FetchPool(fetchCtx, cookie)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetPool(fetchCtx, pool); err != nil {
			middleware.Logger.Warn().Err(err).Msg("cache: pool set failed")
		}
		return pool, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]model.Influencer), nil
	}
}

// RefreshPool fetches the pool unconditionally and replaces the cached copy.
func (s *PreviewService) RefreshPool(ctx context.Context, cookie string) (int, error) {
	pool, err := s.FetchPool(ctx, cookie)
	if err != nil {
		return 0, err
	}
	if err := s.cache.SetPool(ctx, pool); err != nil {
		return 0, fmt.Errorf("cache pool: %w", err)
	}
	return len(pool), nil
}

// Sample returns the session's preview sample. The sample is built once per
// session and then served from cache, so a user sees the same list across
// reloads.
func (s *PreviewService) Sample(ctx context.Context, cookie, sessionKey string) ([]model.Influencer, error) {
	if cached, ok := s.cache.GetSample(ctx, sessionKey); ok {
		return cached, nil
	}

	pool, err := s.Pool(ctx, cookie)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	built := sample.Build(pool, s.cfg.SampleLimit)
	metrics.Metrics.SampleBuildDuration.Observe(time.Since(start).Seconds())
	metrics.Metrics.SampleSize.Observe(float64(len(built)))

	if err := s.cache.SetSample(ctx, sessionKey, built); err != nil {
		middleware.Logger.Warn().Err(err).Msg("cache: sample set failed")
	}
	return built, nil
}
