package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/FacundoMartinezR/TikTokFinder/internal/account"
	"github.com/FacundoMartinezR/TikTokFinder/internal/dashboard"
	"github.com/FacundoMartinezR/TikTokFinder/internal/directory"
	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
)

// fakeDirectory pages through a fixed record set. A non-zero delay makes
// each call wait, honouring ctx.
type fakeDirectory struct {
	mu       sync.Mutex
	records  []model.Influencer
	failPage int
	delay    time.Duration
	calls    []directory.Query
}

func (d *fakeDirectory) List(ctx context.Context, _ string, q directory.Query) (directory.Page, error) {
	d.mu.Lock()
	d.calls = append(d.calls, q)
	records := d.records
	d.mu.Unlock()

	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return directory.Page{}, ctx.Err()
		}
	}
	if d.failPage != 0 && q.Page == d.failPage {
		return directory.Page{}, fmt.Errorf("%w: HTTP 502", directory.ErrUpstream)
	}
	start := (q.Page - 1) * q.PerPage
	if start >= len(records) {
		return directory.Page{Results: []model.Influencer{}, Total: len(records)}, nil
	}
	end := min(start+q.PerPage, len(records))
	return directory.Page{Results: records[start:end], Total: len(records)}, nil
}

// setRecords swaps the directory contents.
func (d *fakeDirectory) setRecords(records []model.Influencer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = records
}

func (d *fakeDirectory) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func (d *fakeDirectory) pagesRequested() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	pages := make([]int, len(d.calls))
	for i, q := range d.calls {
		pages[i] = q.Page
	}
	return pages
}

// fakeAuth maps cookies to users.
type fakeAuth struct {
	mu    sync.Mutex
	users map[string]*model.User
	meN   int
}

func (a *fakeAuth) Me(_ context.Context, cookie string) (*model.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.meN++
	u, ok := a.users[cookie]
	if !ok {
		return nil, account.ErrUnauthenticated
	}
	return u.Clone(), nil
}

func (a *fakeAuth) Exchange(_ context.Context, code string) ([]string, error) {
	if code == "" {
		return nil, account.ErrUnauthenticated
	}
	return []string{"sid=" + code + "; Path=/; HttpOnly"}, nil
}

func (a *fakeAuth) Logout(context.Context, string) ([]string, error) {
	return []string{"sid=; Max-Age=0"}, nil
}

func (a *fakeAuth) set(cookie string, u *model.User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.users[cookie] = u
}

// fakeBilling answers with fixed results. On a successful cancel it
// downgrades the user in auth, as the real billing backend does.
type fakeBilling struct {
	auth      *fakeAuth
	link      string
	check     account.CheckResult
	checkErr  error
	cancelErr error
	cancelled []string
}

func (b *fakeBilling) CreateSubscription(context.Context, string, string) (string, error) {
	return b.link, nil
}

func (b *fakeBilling) CheckSubscription(context.Context, string, string, string) (account.CheckResult, error) {
	return b.check, b.checkErr
}

func (b *fakeBilling) CancelSubscription(_ context.Context, cookie, _, subscriptionID string) error {
	if b.cancelErr != nil {
		return b.cancelErr
	}
	b.cancelled = append(b.cancelled, subscriptionID)
	if b.auth != nil {
		if u, err := b.auth.Me(context.Background(), cookie); err == nil {
			u.Role = model.RoleFree
			u.PaypalSubscriptionID = nil
			b.auth.set(cookie, u)
		}
	}
	return nil
}

// memStore keeps events in memory, newest last.
type memStore struct {
	mu     sync.Mutex
	events []model.SubscriptionEvent
}

func (m *memStore) Record(_ context.Context, ev model.SubscriptionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memStore) ListByUser(_ context.Context, userID string, limit int) ([]model.SubscriptionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.SubscriptionEvent{}
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		if m.events[i].UserID == userID {
			out = append(out, m.events[i])
		}
	}
	return out, nil
}

func (m *memStore) phases() []model.SubscriptionPhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.SubscriptionPhase, len(m.events))
	for i, ev := range m.events {
		out[i] = ev.Phase
	}
	return out
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.SubscriptionEvent
}

func (p *recordingPublisher) PublishSubscription(_ context.Context, ev model.SubscriptionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func strPtr(s string) *string { return &s }

// directoryRecords returns n records spread over niches in turn.
func directoryRecords(n int, niches ...string) []model.Influencer {
	out := make([]model.Influencer, n)
	for i := range out {
		out[i] = model.Influencer{
			ID:        fmt.Sprint(i),
			Handle:    fmt.Sprintf("creator%03d", i),
			Country:   "AR",
			Niches:    []string{niches[i%len(niches)]},
			Followers: int64(100000 - i),
		}
	}
	return out
}

const (
	paidCookie  = "sid=paid"
	freeCookie  = "sid=free"
	guestCookie = "sid=guest"
)

func testUsers() *fakeAuth {
	return &fakeAuth{users: map[string]*model.User{
		paidCookie:  {ID: "u-paid", Name: "Pat", Role: model.RolePaid, PaypalSubscriptionID: strPtr("I-PAID")},
		freeCookie:  {ID: "u-free", Name: "Fran", Role: model.RoleFree},
		guestCookie: {ID: "u-guest", Role: "TRIAL"},
	}}
}

// memoryCache returns a cache on the in-process store.
func memoryCache() *CacheService {
	return NewCacheServiceWithClient(nil, CacheTTLs{})
}

var testLimits = dashboard.DefaultTierLimits
