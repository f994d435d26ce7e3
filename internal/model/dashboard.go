package model

// Sort keys accepted by the directory API.
const (
	SortByFollowers  = "followers"
	SortByEngagement = "engagement"
)

// Filters are the dashboard search filters.
type Filters struct {
	Country      string `json:"country"`
	Niche        string `json:"niche"`
	MinFollowers *int64 `json:"minFollowers,omitempty"`
	MaxFollowers *int64 `json:"maxFollowers,omitempty"`
	SortBy       string `json:"sortBy"`
}

// Capabilities describes what a plan tier may see.
type Capabilities struct {
	MaxResults        int  `json:"maxResults"`
	PerPage           int  `json:"perPage"`
	FiltersEnabled    bool `json:"filtersEnabled"`
	PaginationEnabled bool `json:"paginationEnabled"`
	Sampled           bool `json:"sampled"`
}

// DashboardView is the API response for GET /api/dashboard.
type DashboardView struct {
	User         *User            `json:"user"`
	Capabilities Capabilities     `json:"capabilities"`
	Filters      Filters          `json:"filters"`
	Page         int              `json:"page"`
	TotalPages   int              `json:"totalPages"`
	Total        int              `json:"total"`
	Results      []InfluencerCard `json:"results"`
}
