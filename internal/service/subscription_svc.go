package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/FacundoMartinezR/TikTokFinder/internal/account"
	"github.com/FacundoMartinezR/TikTokFinder/internal/dashboard"
	"github.com/FacundoMartinezR/TikTokFinder/internal/events"
	"github.com/FacundoMartinezR/TikTokFinder/internal/metrics"
	"github.com/FacundoMartinezR/TikTokFinder/internal/middleware"
	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
)

// DashboardPath is where the client is sent after a PayPal round-trip.
const DashboardPath = "/dashboard"

// BillingProvider is the remote billing service.
type BillingProvider interface {
	CreateSubscription(ctx context.Context, cookie, userID string) (string, error)
	CheckSubscription(ctx context.Context, cookie, userID, subscriptionID string) (account.CheckResult, error)
	CancelSubscription(ctx context.Context, cookie, userID, subscriptionID string) error
}

// EventStore persists subscription transitions.
type EventStore interface {
	Record(ctx context.Context, ev model.SubscriptionEvent) error
	ListByUser(ctx context.Context, userID string, limit int) ([]model.SubscriptionEvent, error)
}

// SubscriptionService runs the PayPal subscription round-trip and keeps an
// audit trail of every transition.
type SubscriptionService struct {
	users   *UserService
	billing BillingProvider
	store   EventStore
	pub     events.Publisher
	cache   *CacheService
	limits  dashboard.TierLimits
	now     func() time.Time
}

func NewSubscriptionService(
	users *UserService,
	billing BillingProvider,
	store EventStore,
	pub events.Publisher,
	cache *CacheService,
	limits dashboard.TierLimits,
) *SubscriptionService {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	return &SubscriptionService{
		users:   users,
		billing: billing,
		store:   store,
		pub:     pub,
		cache:   cache,
		limits:  limits,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create starts a subscription for the signed-in user and returns the PayPal
// approval link.
func (s *SubscriptionService) Create(ctx context.Context, sess Session) (string, error) {
	u, err := s.users.Current(ctx, sess)
	if err != nil {
		return "", err
	}
	if u.HasSubscription() {
		return "", ErrAlreadySubscribed
	}
	link, err := s.billing.CreateSubscription(ctx, sess.Cookie, u.ID)
	if err != nil {
		metrics.Metrics.UpstreamErrors.WithLabelValues("billing").Inc()
		return "", fmt.Errorf("create subscription: %w", err)
	}
	return link, nil
}

// Check verifies a subscription after the PayPal redirect. A subscription that
// is not active yet is reported in the response, not as an error.
func (s *SubscriptionService) Check(ctx context.Context, sess Session, subscriptionID, requestID string) (*model.CheckSubscriptionResponse, error) {
	u, err := s.users.Current(ctx, sess)
	if err != nil {
		return nil, err
	}

	res, err := s.billing.CheckSubscription(ctx, sess.Cookie, u.ID, subscriptionID)
	if err != nil {
		metrics.Metrics.UpstreamErrors.WithLabelValues("billing").Inc()
		s.record(ctx, u.ID, subscriptionID, model.PhaseCheckFailed, err.Error(), requestID)
		return nil, fmt.Errorf("check subscription: %w", err)
	}

	if !res.Success {
		status := res.Status
		if status == "" {
			status = res.Error
		}
		if status == "" {
			status = "unknown"
		}
		s.record(ctx, u.ID, subscriptionID, model.PhaseCheckFailed, status, requestID)
		return &model.CheckSubscriptionResponse{
			Success:  false,
			Status:   status,
			Message:  fmt.Sprintf("Subscription is not active: %s. Check your PayPal account.", status),
			Redirect: DashboardPath,
		}, nil
	}

	s.record(ctx, u.ID, subscriptionID, model.PhaseActivated, res.Status, requestID)
	s.resync(ctx, sess)
	return &model.CheckSubscriptionResponse{
		Success:  true,
		Status:   res.Status,
		Message:  "Subscription activated.",
		Redirect: DashboardPath,
	}, nil
}

// Cancel cancels the user's subscription in two phases. The user is
// downgraded before the billing service answers; on success the downgrade is
// confirmed and the user is re-read from the auth service, on failure the
// previous user is restored and the error returned.
func (s *SubscriptionService) Cancel(ctx context.Context, sess Session, requestID string) (*model.CancelSubscriptionResponse, error) {
	u, err := s.users.Refresh(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !u.HasSubscription() {
		return nil, ErrNoSubscription
	}
	subscriptionID := *u.PaypalSubscriptionID

	st := dashboard.Reduce(dashboard.NewState(s.limits), dashboard.UserLoaded{User: u})
	st = dashboard.Reduce(st, dashboard.CancelRequested{})
	s.record(ctx, u.ID, subscriptionID, st.CancelPhase, "", requestID)

	if err := s.billing.CancelSubscription(ctx, sess.Cookie, u.ID, subscriptionID); err != nil {
		metrics.Metrics.UpstreamErrors.WithLabelValues("billing").Inc()
		st = dashboard.Reduce(st, dashboard.CancelReverted{})
		s.record(ctx, u.ID, subscriptionID, st.CancelPhase, err.Error(), requestID)
		return nil, fmt.Errorf("cancel subscription: %w", err)
	}

	st = dashboard.Reduce(st, dashboard.CancelConfirmed{})
	s.record(ctx, u.ID, subscriptionID, st.CancelPhase, "", requestID)

	user := st.User
	if fresh := s.resync(ctx, sess); fresh != nil {
		user = fresh
	}
	return &model.CancelSubscriptionResponse{Phase: st.CancelPhase, User: user}, nil
}

// Events returns the signed-in user's recent subscription transitions.
func (s *SubscriptionService) Events(ctx context.Context, sess Session, limit int) ([]model.SubscriptionEvent, error) {
	u, err := s.users.Current(ctx, sess)
	if err != nil {
		return nil, err
	}
	return s.store.ListByUser(ctx, u.ID, limit)
}

// resync drops the session's cached user and sample and reads the user again.
// It returns nil when the auth service could not be read.
func (s *SubscriptionService) resync(ctx context.Context, sess Session) *model.User {
	if err := s.cache.InvalidateSession(ctx, sess.Key); err != nil {
		middleware.Logger.Warn().Err(err).Msg("cache: session invalidation failed")
	}
	u, err := s.users.Refresh(ctx, sess)
	if err != nil {
		middleware.Logger.Warn().Err(err).Msg("subscription: user refresh failed")
		return nil
	}
	return u
}

// record stores and publishes one transition. Failures are logged only.
func (s *SubscriptionService) record(ctx context.Context, userID, subscriptionID string, phase model.SubscriptionPhase, detail, requestID string) {
	ev := model.SubscriptionEvent{
		ID:             uuid.NewString(),
		UserID:         userID,
		SubscriptionID: subscriptionID,
		Phase:          phase,
		Detail:         detail,
		RequestID:      requestID,
		CreatedAt:      s.now(),
	}
	metrics.Metrics.SubscriptionTransitions.WithLabelValues(string(phase)).Inc()

	log := middleware.Logger.With().
		Str("user_id", userID).
		Str("phase", string(phase)).
		Str("request_id", requestID).
		Logger()

	if err := s.store.Record(ctx, ev); err != nil {
		log.Error().Err(err).Msg("subscription: audit record failed")
	}
	if err := s.pub.PublishSubscription(ctx, ev); err != nil {
		log.Error().Err(err).Msg("subscription: event publish failed")
	}
	log.Info().Str("detail", detail).Msg("subscription transition")
}
