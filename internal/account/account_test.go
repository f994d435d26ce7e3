package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type route struct {
	status    int
	body      string
	setCookie string
}

type recorded struct {
	mu     sync.Mutex
	bodies map[string]map[string]any
}

func (r *recorded) get(path string) map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bodies[path]
}

// fakeUpstream serves canned responses per path and records request bodies.
func fakeUpstream(t *testing.T, routes map[string]route) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{bodies: make(map[string]map[string]any)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rt, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if r.Method == http.MethodPost {
			var m map[string]any
			_ = json.NewDecoder(r.Body).Decode(&m)
			rec.mu.Lock()
			rec.bodies[r.URL.Path] = m
			rec.mu.Unlock()
		}
		if rt.setCookie != "" {
			w.Header().Add("Set-Cookie", rt.setCookie)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rt.status)
		_, _ = w.Write([]byte(rt.body))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestAuthClient_Me(t *testing.T) {
	tests := []struct {
		name    string
		cookie  string
		rt      route
		wantErr error
	}{
		{"signed in", "sid=1", route{status: 200, body: `{"ok":true,"user":{"id":"u1","name":"Ana","role":"paid","paypalSubscriptionId":"I-1"}}`}, nil},
		{"no cookie", "", route{status: 200, body: `{"ok":true,"user":{"id":"u1"}}`}, ErrUnauthenticated},
		{"ok false", "sid=1", route{status: 200, body: `{"ok":false}`}, ErrUnauthenticated},
		{"unauthorized", "sid=1", route{status: 401, body: `{"ok":false}`}, ErrUnauthenticated},
		{"upstream down", "sid=1", route{status: 503, body: `down`}, ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeUpstream(t, map[string]route{"/auth/me": tt.rt})
			a := NewAuthClient(srv.URL, 2*time.Second)

			user, err := a.Me(context.Background(), tt.cookie)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Me: %v", err)
			}
			if user.ID != "u1" || user.Role != "PAID" || !user.HasSubscription() {
				t.Errorf("user = %+v", user)
			}
		})
	}
}

func TestAuthClient_ExchangeForwardsCookies(t *testing.T) {
	srv, bodies := fakeUpstream(t, map[string]route{
		"/auth/exchange": {status: 200, body: `{"ok":true}`, setCookie: "sid=fresh; Path=/; HttpOnly"},
	})
	a := NewAuthClient(srv.URL, 2*time.Second)

	cookies, err := a.Exchange(context.Background(), "code-123")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if len(cookies) != 1 || !strings.HasPrefix(cookies[0], "sid=fresh") {
		t.Errorf("cookies = %v", cookies)
	}
	if bodies.get("/auth/exchange")["code"] != "code-123" {
		t.Errorf("request body = %v", bodies.get("/auth/exchange"))
	}
}

func TestAuthClient_ExchangeRejected(t *testing.T) {
	srv, _ := fakeUpstream(t, map[string]route{
		"/auth/exchange": {status: 400, body: `{"ok":false}`},
	})
	a := NewAuthClient(srv.URL, 2*time.Second)

	if _, err := a.Exchange(context.Background(), "bad"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestBillingClient_CreateSubscription(t *testing.T) {
	srv, bodies := fakeUpstream(t, map[string]route{
		"/paypal/create-subscription": {status: 200, body: `{"approveLink":"https://paypal.test/approve"}`},
	})
	b := NewBillingClient(srv.URL, 2*time.Second)

	link, err := b.CreateSubscription(context.Background(), "sid=1", "u1")
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	if link != "https://paypal.test/approve" {
		t.Errorf("link = %q", link)
	}
	if bodies.get("/paypal/create-subscription")["userId"] != "u1" {
		t.Errorf("request body = %v", bodies.get("/paypal/create-subscription"))
	}
}

func TestBillingClient_CreateSubscriptionWithoutLink(t *testing.T) {
	srv, _ := fakeUpstream(t, map[string]route{
		"/paypal/create-subscription": {status: 200, body: `{}`},
	})
	b := NewBillingClient(srv.URL, 2*time.Second)

	if _, err := b.CreateSubscription(context.Background(), "sid=1", "u1"); !errors.Is(err, ErrRejected) {
		t.Errorf("err = %v, want ErrRejected", err)
	}
}

func TestBillingClient_CheckSubscription(t *testing.T) {
	tests := []struct {
		name string
		rt   route
		want CheckResult
	}{
		{"active", route{status: 200, body: `{"success":true,"status":"ACTIVE"}`}, CheckResult{Success: true, Status: "ACTIVE"}},
		{"not active", route{status: 200, body: `{"success":false,"error":"APPROVAL_PENDING"}`}, CheckResult{Error: "APPROVAL_PENDING"}},
		{"bad request", route{status: 400, body: `{}`}, CheckResult{Error: "HTTP 400"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, bodies := fakeUpstream(t, map[string]route{"/paypal/check-subscription": tt.rt})
			b := NewBillingClient(srv.URL, 2*time.Second)

			got, err := b.CheckSubscription(context.Background(), "sid=1", "u1", "I-1")
			if err != nil {
				t.Fatalf("CheckSubscription: %v", err)
			}
			if got != tt.want {
				t.Errorf("result = %+v, want %+v", got, tt.want)
			}
			if bodies.get("/paypal/check-subscription")["subscriptionId"] != "I-1" {
				t.Errorf("request body = %v", bodies.get("/paypal/check-subscription"))
			}
		})
	}
}

func TestBillingClient_CancelSubscription(t *testing.T) {
	tests := []struct {
		name    string
		rt      route
		wantErr error
	}{
		{"acknowledged", route{status: 200, body: `{"ok":true}`}, nil},
		{"not acknowledged", route{status: 200, body: `{"ok":false}`}, ErrRejected},
		{"conflict", route{status: 409, body: `{"ok":false}`}, ErrRejected},
		{"session expired", route{status: 401, body: `{}`}, ErrUnauthenticated},
		{"upstream down", route{status: 502, body: `bad gateway`}, ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeUpstream(t, map[string]route{"/paypal/cancel-subscription": tt.rt})
			b := NewBillingClient(srv.URL, 2*time.Second)

			err := b.CancelSubscription(context.Background(), "sid=1", "u1", "I-1")
			if tt.wantErr == nil && err != nil {
				t.Fatalf("CancelSubscription: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
