// Package dashboard holds the dashboard's state model: plan-tier
// capabilities, an immutable State with a pure reducer, and the derived
// filter view used over the free-tier sample.
package dashboard

import (
	"strings"

	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
)

// TierLimits are the configurable sizes behind each plan's capabilities.
type TierLimits struct {
	FreeSampleLimit int
	PaidPerPage     int
}

// DefaultTierLimits match the product's published plans.
var DefaultTierLimits = TierLimits{
	FreeSampleLimit: 50,
	PaidPerPage:     25,
}

// CapabilitiesFor returns the tier descriptor for a role. Unknown roles get
// the zero descriptor and see no results.
func CapabilitiesFor(role string, limits TierLimits) model.Capabilities {
	switch strings.ToUpper(strings.TrimSpace(role)) {
	case model.RolePaid:
		return model.Capabilities{
			MaxResults:        0,
			PerPage:           limits.PaidPerPage,
			FiltersEnabled:    true,
			PaginationEnabled: true,
		}
	case model.RoleFree:
		return model.Capabilities{
			MaxResults:     limits.FreeSampleLimit,
			PerPage:        limits.FreeSampleLimit,
			FiltersEnabled: true,
			Sampled:        true,
		}
	default:
		return model.Capabilities{}
	}
}

// HasAccess reports whether the descriptor grants any results at all.
func HasAccess(c model.Capabilities) bool {
	return c.PerPage > 0
}

// TotalPages returns the number of pages for total results, never less than 1.
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}
