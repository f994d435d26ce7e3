package dashboard

import (
	"slices"

	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
)

// Status is the network-driven load status of the result list.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// State is an immutable snapshot of one dashboard view. Use Reduce to derive
// the next State; never modify a State's slices or user in place.
type State struct {
	Limits       TierLimits
	User         *model.User
	Capabilities model.Capabilities
	Filters      model.Filters
	Page         int
	Total        int
	Results      []model.Influencer
	Status       Status
	Err          string

	// NeedsRefetch is set when a fetch came back for a page past the end and
	// the page was clamped; the caller should fetch Page again.
	NeedsRefetch bool

	CancelPhase model.SubscriptionPhase
	preCancel   *model.User
}

// NewState returns the initial state.
func NewState(limits TierLimits) State {
	return State{
		Limits:  limits,
		Filters: model.Filters{SortBy: model.SortByFollowers},
		Page:    1,
		Results: []model.Influencer{},
		Status:  StatusIdle,
	}
}

// TotalPages returns the page count for the state's total and tier.
func (s State) TotalPages() int {
	return TotalPages(s.Total, s.Capabilities.PerPage)
}

// Event is a discrete dashboard transition.
type Event interface {
	isEvent()
}

type (
	// UserLoaded replaces the signed-in user and recomputes capabilities.
	UserLoaded struct{ User *model.User }
	// UserCleared drops the user (anonymous or logged out).
	UserCleared struct{}
	// FiltersChanged replaces the filters and goes back to page 1.
	FiltersChanged struct{ Filters model.Filters }
	// PageRequested moves to a page.
	PageRequested struct{ Page int }
	// FetchStarted marks a result fetch in flight.
	FetchStarted struct{}
	// FetchSucceeded delivers a page of results and the server total.
	FetchSucceeded struct {
		Results []model.Influencer
		Total   int
	}
	// FetchFailed records a failed fetch.
	FetchFailed struct{ Err error }
	// CancelRequested optimistically downgrades the user before the billing
	// service answers.
	CancelRequested struct{}
	// CancelConfirmed keeps the optimistic downgrade.
	CancelConfirmed struct{}
	// CancelReverted restores the user as it was before CancelRequested.
	CancelReverted struct{}
)

func (UserLoaded) isEvent()      {}
func (UserCleared) isEvent()     {}
func (FiltersChanged) isEvent()  {}
func (PageRequested) isEvent()   {}
func (FetchStarted) isEvent()    {}
func (FetchSucceeded) isEvent()  {}
func (FetchFailed) isEvent()     {}
func (CancelRequested) isEvent() {}
func (CancelConfirmed) isEvent() {}
func (CancelReverted) isEvent()  {}

// Reduce applies ev to s and returns the next state.
func Reduce(s State, ev Event) State {
	next := s
	switch e := ev.(type) {
	case UserLoaded:
		if e.User == nil {
			return Reduce(s, UserCleared{})
		}
		next.User = e.User.Clone()
		next.Capabilities = CapabilitiesFor(next.User.Role, s.Limits)
		if !next.Capabilities.PaginationEnabled {
			next.Page = 1
		}

	case UserCleared:
		next.User = nil
		next.Capabilities = model.Capabilities{}
		next.Results = []model.Influencer{}
		next.Total = 0
		next.Page = 1
		next.Status = StatusIdle
		next.NeedsRefetch = false

	case FiltersChanged:
		next.Filters = e.Filters
		if next.Filters.SortBy == "" {
			next.Filters.SortBy = model.SortByFollowers
		}
		next.Page = 1

	case PageRequested:
		next.Page = max(e.Page, 1)
		if !s.Capabilities.PaginationEnabled {
			next.Page = 1
		}

	case FetchStarted:
		next.Status = StatusLoading
		next.Err = ""
		next.NeedsRefetch = false

	case FetchSucceeded:
		total := max(e.Total, 0)
		if limit := s.Capabilities.MaxResults; limit > 0 && total > limit {
			total = limit
		}
		next.Total = total

		pages := TotalPages(total, s.Capabilities.PerPage)
		if total > 0 && s.Page > pages {
			next.Page = pages
			next.NeedsRefetch = true
			next.Status = StatusLoading
			return next
		}

		results := e.Results
		if limit := s.Capabilities.MaxResults; limit > 0 && len(results) > limit {
			results = results[:limit]
		}
		next.Results = slices.Clone(results)
		if next.Results == nil {
			next.Results = []model.Influencer{}
		}
		next.Status = StatusReady
		next.NeedsRefetch = false

	case FetchFailed:
		next.Results = []model.Influencer{}
		next.Total = 0
		next.Status = StatusError
		next.NeedsRefetch = false
		if e.Err != nil {
			next.Err = e.Err.Error()
		}

	case CancelRequested:
		if !s.User.HasSubscription() || s.CancelPhase == model.PhasePendingCancel {
			return s
		}
		next.preCancel = s.User.Clone()
		downgraded := s.User.Clone()
		downgraded.Role = model.RoleFree
		downgraded.PaypalSubscriptionID = nil
		next.User = downgraded
		next.Capabilities = CapabilitiesFor(model.RoleFree, s.Limits)
		next.Page = 1
		next.CancelPhase = model.PhasePendingCancel

	case CancelConfirmed:
		if s.CancelPhase != model.PhasePendingCancel {
			return s
		}
		next.CancelPhase = model.PhaseConfirmed
		next.preCancel = nil

	case CancelReverted:
		if s.CancelPhase != model.PhasePendingCancel || s.preCancel == nil {
			return s
		}
		next.User = s.preCancel
		next.Capabilities = CapabilitiesFor(s.preCancel.Role, s.Limits)
		next.CancelPhase = model.PhaseReverted
		next.preCancel = nil
	}
	return next
}
