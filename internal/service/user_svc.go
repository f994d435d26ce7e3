package service

import (
	"context"

	"github.com/FacundoMartinezR/TikTokFinder/internal/dashboard"
	"github.com/FacundoMartinezR/TikTokFinder/internal/middleware"
	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
	"github.com/FacundoMartinezR/TikTokFinder/pkg/hash"
)

// Session identifies a caller: the raw Cookie header, forwarded upstream as
// is, and the key derived from it for caching and rate limiting.
type Session struct {
	Cookie string
	Key    string
}

// NewSession derives a Session from a Cookie header.
func NewSession(cookieHeader string) Session {
	return Session{Cookie: cookieHeader, Key: hash.SessionKey(cookieHeader)}
}

// Anonymous reports whether the request carried no cookies at all.
func (s Session) Anonymous() bool {
	return s.Key == ""
}

// AuthProvider is the remote auth service.
type AuthProvider interface {
	Me(ctx context.Context, cookie string) (*model.User, error)
	Exchange(ctx context.Context, code string) ([]string, error)
	Logout(ctx context.Context, cookie string) ([]string, error)
}

type UserService struct {
	auth   AuthProvider
	cache  *CacheService
	limits dashboard.TierLimits
}

func NewUserService(auth AuthProvider, cache *CacheService, limits dashboard.TierLimits) *UserService {
	return &UserService{auth: auth, cache: cache, limits: limits}
}

// Current returns the signed-in user, from cache when possible.
func (s *UserService) Current(ctx context.Context, sess Session) (*model.User, error) {
	if !sess.Anonymous() {
		if u, ok := s.cache.GetUser(ctx, sess.Key); ok {
			return u, nil
		}
	}
	return s.Refresh(ctx, sess)
}

// Refresh asks the auth service for the user and updates the cache.
func (s *UserService) Refresh(ctx context.Context, sess Session) (*model.User, error) {
	u, err := s.auth.Me(ctx, sess.Cookie)
	if err != nil {
		return nil, err
	}
	if sess.Anonymous() {
		return u, nil
	}
	if err := s.cache.SetUser(ctx, sess.Key, u); err != nil {
		middleware.Logger.Warn().Err(err).Msg("cache: user set failed")
	}
	return u, nil
}

// Me returns the user together with the tier capabilities.
func (s *UserService) Me(ctx context.Context, sess Session) (*model.MeResponse, error) {
	u, err := s.Current(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &model.MeResponse{
		User:         u,
		Capabilities: dashboard.CapabilitiesFor(u.Role, s.limits),
	}, nil
}

// Exchange trades a login code for session cookies.
func (s *UserService) Exchange(ctx context.Context, code string) ([]string, error) {
	return s.auth.Exchange(ctx, code)
}

// Logout ends the session upstream and drops everything cached for it.
func (s *UserService) Logout(ctx context.Context, sess Session) ([]string, error) {
	if err := s.cache.InvalidateSession(ctx, sess.Key); err != nil {
		middleware.Logger.Warn().Err(err).Msg("cache: session invalidation failed")
	}
	return s.auth.Logout(ctx, sess.Cookie)
}
