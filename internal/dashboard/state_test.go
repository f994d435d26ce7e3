package dashboard

import (
	"errors"
	"fmt"
	"testing"

	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
)

func strPtr(s string) *string { return &s }

func records(n int) []model.Influencer {
	out := make([]model.Influencer, n)
	for i := range out {
		out[i] = model.Influencer{ID: fmt.Sprint(i), Handle: fmt.Sprintf("h%d", i)}
	}
	return out
}

func paidUser() *model.User {
	return &model.User{ID: "u1", Name: "Ana", Role: model.RolePaid, PaypalSubscriptionID: strPtr("I-SUB1")}
}

func TestCapabilitiesFor(t *testing.T) {
	tests := []struct {
		name string
		role string
		want model.Capabilities
	}{
		{"paid", "PAID", model.Capabilities{PerPage: 25, FiltersEnabled: true, PaginationEnabled: true}},
		{"paid lowercase", "paid", model.Capabilities{PerPage: 25, FiltersEnabled: true, PaginationEnabled: true}},
		{"free", "FREE", model.Capabilities{MaxResults: 50, PerPage: 50, FiltersEnabled: true, Sampled: true}},
		{"unknown", "ADMIN", model.Capabilities{}},
		{"empty", "", model.Capabilities{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CapabilitiesFor(tt.role, DefaultTierLimits); got != tt.want {
				t.Errorf("CapabilitiesFor(%q) = %+v, want %+v", tt.role, got, tt.want)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, perPage, want int
	}{
		{0, 25, 1},
		{1, 25, 1},
		{25, 25, 1},
		{26, 25, 2},
		{100, 25, 4},
		{10, 0, 1},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.total, tt.perPage); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.perPage, got, tt.want)
		}
	}
}

func TestReduce_FiltersChangedResetsPage(t *testing.T) {
	s := Reduce(NewState(DefaultTierLimits), UserLoaded{User: paidUser()})
	s = Reduce(s, PageRequested{Page: 4})
	if s.Page != 4 {
		t.Fatalf("page = %d, want 4", s.Page)
	}

	s = Reduce(s, FiltersChanged{Filters: model.Filters{Country: "AR"}})
	if s.Page != 1 {
		t.Errorf("page = %d, want 1 after filter change", s.Page)
	}
	if s.Filters.SortBy != model.SortByFollowers {
		t.Errorf("sortBy = %q, want default %q", s.Filters.SortBy, model.SortByFollowers)
	}
}

func TestReduce_FreeTierIgnoresPaging(t *testing.T) {
	s := Reduce(NewState(DefaultTierLimits), UserLoaded{User: &model.User{ID: "u2", Role: model.RoleFree}})
	s = Reduce(s, PageRequested{Page: 3})
	if s.Page != 1 {
		t.Errorf("page = %d, want 1 for free tier", s.Page)
	}
}

func TestReduce_FetchSucceededClampsPage(t *testing.T) {
	s := Reduce(NewState(DefaultTierLimits), UserLoaded{User: paidUser()})
	s = Reduce(s, PageRequested{Page: 9})
	s = Reduce(s, FetchStarted{})
	s = Reduce(s, FetchSucceeded{Results: nil, Total: 60})

	if s.Page != 3 {
		t.Errorf("page = %d, want clamped to 3", s.Page)
	}
	if !s.NeedsRefetch {
		t.Error("NeedsRefetch should be set after clamping")
	}
	if s.Status != StatusLoading {
		t.Errorf("status = %q, want %q", s.Status, StatusLoading)
	}

	s = Reduce(s, FetchStarted{})
	s = Reduce(s, FetchSucceeded{Results: records(10), Total: 60})
	if s.NeedsRefetch || s.Status != StatusReady || len(s.Results) != 10 {
		t.Errorf("after refetch: needsRefetch=%v status=%q results=%d", s.NeedsRefetch, s.Status, len(s.Results))
	}
}

func TestReduce_FetchSucceededCapsFreeTotal(t *testing.T) {
	s := Reduce(NewState(DefaultTierLimits), UserLoaded{User: &model.User{ID: "u2", Role: model.RoleFree}})
	s = Reduce(s, FetchSucceeded{Results: records(80), Total: 5000})

	if s.Total != 50 {
		t.Errorf("total = %d, want 50", s.Total)
	}
	if len(s.Results) != 50 {
		t.Errorf("results = %d, want 50", len(s.Results))
	}
}

func TestReduce_FetchFailedClearsResults(t *testing.T) {
	s := Reduce(NewState(DefaultTierLimits), UserLoaded{User: paidUser()})
	s = Reduce(s, FetchSucceeded{Results: records(5), Total: 5})
	s = Reduce(s, FetchFailed{Err: errors.New("HTTP 502")})

	if s.Status != StatusError || s.Err != "HTTP 502" {
		t.Errorf("status=%q err=%q", s.Status, s.Err)
	}
	if len(s.Results) != 0 || s.Total != 0 {
		t.Errorf("results=%d total=%d, want cleared", len(s.Results), s.Total)
	}
}

func TestReduce_DoesNotShareResults(t *testing.T) {
	in := records(3)
	s := Reduce(Reduce(NewState(DefaultTierLimits), UserLoaded{User: paidUser()}), FetchSucceeded{Results: in, Total: 3})
	in[0].Handle = "changed"
	if s.Results[0].Handle != "h0" {
		t.Error("state results alias the event slice")
	}
}

func TestReduce_CancelConfirmed(t *testing.T) {
	s := Reduce(NewState(DefaultTierLimits), UserLoaded{User: paidUser()})
	pending := Reduce(s, CancelRequested{})

	if pending.CancelPhase != model.PhasePendingCancel {
		t.Fatalf("phase = %q, want pending-cancel", pending.CancelPhase)
	}
	if pending.User.Role != model.RoleFree || pending.User.HasSubscription() {
		t.Errorf("optimistic user = %+v, want FREE without subscription", pending.User)
	}
	if !pending.Capabilities.Sampled {
		t.Error("pending state should already carry free-tier capabilities")
	}
	if s.User.Role != model.RolePaid {
		t.Error("CancelRequested mutated the previous state's user")
	}

	done := Reduce(pending, CancelConfirmed{})
	if done.CancelPhase != model.PhaseConfirmed || done.User.Role != model.RoleFree {
		t.Errorf("confirmed state = phase %q role %q", done.CancelPhase, done.User.Role)
	}
}

func TestReduce_CancelReverted(t *testing.T) {
	s := Reduce(NewState(DefaultTierLimits), UserLoaded{User: paidUser()})
	s = Reduce(s, CancelRequested{})
	s = Reduce(s, CancelReverted{})

	if s.CancelPhase != model.PhaseReverted {
		t.Fatalf("phase = %q, want reverted", s.CancelPhase)
	}
	if s.User.Role != model.RolePaid || !s.User.HasSubscription() || *s.User.PaypalSubscriptionID != "I-SUB1" {
		t.Errorf("user = %+v, want restored paid user", s.User)
	}
	if !s.Capabilities.PaginationEnabled {
		t.Error("capabilities should be restored to paid")
	}
}

func TestReduce_CancelWithoutSubscriptionIsNoop(t *testing.T) {
	s := Reduce(NewState(DefaultTierLimits), UserLoaded{User: &model.User{ID: "u3", Role: model.RoleFree}})
	if got := Reduce(s, CancelRequested{}); got.CancelPhase != model.PhaseNone {
		t.Errorf("phase = %q, want none", got.CancelPhase)
	}
	if got := Reduce(s, CancelConfirmed{}); got.CancelPhase != model.PhaseNone {
		t.Errorf("confirm without pending: phase = %q", got.CancelPhase)
	}
}

func TestReduce_UserClearedResets(t *testing.T) {
	s := Reduce(NewState(DefaultTierLimits), UserLoaded{User: paidUser()})
	s = Reduce(s, PageRequested{Page: 2})
	s = Reduce(s, FetchSucceeded{Results: records(25), Total: 100})
	s = Reduce(s, UserCleared{})

	if s.User != nil || s.Total != 0 || len(s.Results) != 0 || s.Page != 1 {
		t.Errorf("state after clear = %+v", s)
	}
	if HasAccess(s.Capabilities) {
		t.Error("cleared state should have no access")
	}
}
