package service

import (
	"context"
	"fmt"

	"github.com/FacundoMartinezR/TikTokFinder/internal/dashboard"
	"github.com/FacundoMartinezR/TikTokFinder/internal/directory"
	"github.com/FacundoMartinezR/TikTokFinder/internal/metrics"
	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
)

// DashboardService assembles the dashboard for a session by driving the
// dashboard reducer with the user, the filters and the fetched results.
type DashboardService struct {
	users   *UserService
	dir     DirectoryLister
	preview *PreviewService
	limits  dashboard.TierLimits
}

func NewDashboardService(users *UserService, dir DirectoryLister, preview *PreviewService, limits dashboard.TierLimits) *DashboardService {
	return &DashboardService{users: users, dir: dir, preview: preview, limits: limits}
}

// Load returns one dashboard view. PAID users get the requested directory
// page; FREE users get the session's preview sample narrowed by filters.
func (s *DashboardService) Load(ctx context.Context, sess Session, filters model.Filters, page int) (*model.DashboardView, error) {
	u, err := s.users.Current(ctx, sess)
	if err != nil {
		return nil, err
	}

	st := dashboard.Reduce(dashboard.NewState(s.limits), dashboard.UserLoaded{User: u})
	if !dashboard.HasAccess(st.Capabilities) {
		return nil, ErrForbidden
	}
	st = dashboard.Reduce(st, dashboard.FiltersChanged{Filters: filters})
	st = dashboard.Reduce(st, dashboard.PageRequested{Page: page})

	if st.Capabilities.Sampled {
		st, err = s.loadSample(ctx, sess, st)
	} else {
		st, err = s.loadPage(ctx, sess, st)
		// A page past the end is clamped by the reducer; fetch the last page once.
		if err == nil && st.NeedsRefetch {
			st, err = s.loadPage(ctx, sess, st)
		}
	}
	if err != nil {
		return nil, err
	}

	return &model.DashboardView{
		User:         st.User,
		Capabilities: st.Capabilities,
		Filters:      st.Filters,
		Page:         st.Page,
		TotalPages:   st.TotalPages(),
		Total:        st.Total,
		Results:      dashboard.Cards(st.Results),
	}, nil
}

func (s *DashboardService) loadSample(ctx context.Context, sess Session, st dashboard.State) (dashboard.State, error) {
	st = dashboard.Reduce(st, dashboard.FetchStarted{})
	sampled, err := s.preview.Sample(ctx, sess.Cookie, sess.Key)
	if err != nil {
		return dashboard.Reduce(st, dashboard.FetchFailed{Err: err}), err
	}
	view := dashboard.ApplyView(sampled, st.Filters)
	return dashboard.Reduce(st, dashboard.FetchSucceeded{Results: view, Total: len(view)}), nil
}

func (s *DashboardService) loadPage(ctx context.Context, sess Session, st dashboard.State) (dashboard.State, error) {
	st = dashboard.Reduce(st, dashboard.FetchStarted{})
	page, err := s.dir.List(ctx, sess.Cookie, directory.Query{
		Filters: st.Filters,
		Page:    st.Page,
		PerPage: st.Capabilities.PerPage,
	})
	if err != nil {
		metrics.Metrics.UpstreamErrors.WithLabelValues("directory").Inc()
		return dashboard.Reduce(st, dashboard.FetchFailed{Err: err}), fmt.Errorf("load page %d: %w", st.Page, err)
	}
	return dashboard.Reduce(st, dashboard.FetchSucceeded{Results: page.Results, Total: page.Total}), nil
}
