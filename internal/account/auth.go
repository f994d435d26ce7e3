package account

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
)

// AuthClient talks to the remote /auth endpoints.
type AuthClient struct {
	http httpClient
}

// NewAuthClient creates an auth client for baseURL.
func NewAuthClient(baseURL string, timeout time.Duration) *AuthClient {
	return &AuthClient{http: newHTTPClient(baseURL, timeout)}
}

type meResponse struct {
	OK   bool        `json:"ok"`
	User *model.User `json:"user"`
}

// Me returns the user behind cookie. Anonymous or rejected sessions give
// ErrUnauthenticated.
func (a *AuthClient) Me(ctx context.Context, cookie string) (*model.User, error) {
	if strings.TrimSpace(cookie) == "" {
		return nil, ErrUnauthenticated
	}
	var body meResponse
	res, err := a.http.do(ctx, http.MethodGet, "/auth/me", cookie, nil, &body)
	if err != nil {
		return nil, err
	}
	if !res.ok() || !body.OK || body.User == nil || body.User.ID == "" {
		return nil, ErrUnauthenticated
	}
	body.User.Role = strings.ToUpper(strings.TrimSpace(body.User.Role))
	return body.User, nil
}

// Exchange trades a one-time login code for a session. The returned
// Set-Cookie values must be passed on to the browser.
func (a *AuthClient) Exchange(ctx context.Context, code string) ([]string, error) {
	res, err := a.http.do(ctx, http.MethodPost, "/auth/exchange", "", model.ExchangeRequest{Code: code}, nil)
	if err != nil {
		return nil, err
	}
	if !res.ok() {
		return nil, fmt.Errorf("%w: exchange returned HTTP %d", ErrUnauthenticated, res.status)
	}
	return res.setCookies, nil
}

// Logout ends the session. Set-Cookie values clearing the session are
// returned even when the remote call reports an error status.
func (a *AuthClient) Logout(ctx context.Context, cookie string) ([]string, error) {
	res, err := a.http.do(ctx, http.MethodPost, "/auth/logout", cookie, struct{}{}, nil)
	if err != nil {
		return res.setCookies, err
	}
	return res.setCookies, nil
}
