package dashboard

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
)

// visibleNiches is how many niche chips a result row shows before "+N".
const visibleNiches = 2

// ApplyView returns the records of sample that match filters, sorted by
// filters.SortBy. The sample itself is left untouched.
func ApplyView(sample []model.Influencer, filters model.Filters) []model.Influencer {
	country := strings.ToLower(strings.TrimSpace(filters.Country))
	niche := strings.ToLower(strings.TrimSpace(filters.Niche))

	out := make([]model.Influencer, 0, len(sample))
	for _, rec := range sample {
		if country != "" && strings.ToLower(strings.TrimSpace(rec.Country)) != country {
			continue
		}
		if niche != "" && !hasNiche(rec.Niches, niche) {
			continue
		}
		if filters.MinFollowers != nil && rec.Followers < *filters.MinFollowers {
			continue
		}
		if filters.MaxFollowers != nil && rec.Followers > *filters.MaxFollowers {
			continue
		}
		out = append(out, rec)
	}

	switch filters.SortBy {
	case model.SortByEngagement:
		slices.SortStableFunc(out, func(a, b model.Influencer) int {
			return compareDesc(a.EngagementRate, b.EngagementRate)
		})
	default:
		slices.SortStableFunc(out, func(a, b model.Influencer) int {
			return compareDesc(a.Followers, b.Followers)
		})
	}
	return out
}

func hasNiche(niches []string, needle string) bool {
	for _, n := range niches {
		if strings.Contains(strings.ToLower(n), needle) {
			return true
		}
	}
	return false
}

func compareDesc[T int64 | float64](a, b T) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}

// Cards converts records to their display form.
func Cards(recs []model.Influencer) []model.InfluencerCard {
	cards := make([]model.InfluencerCard, 0, len(recs))
	for _, rec := range recs {
		card := model.InfluencerCard{
			Influencer:        rec,
			FollowersDisplay:  humanize.Comma(rec.Followers),
			AvgViewsDisplay:   "—",
			EngagementDisplay: fmt.Sprintf("%.2f%%", rec.EngagementRate),
		}
		if rec.AvgViews != nil {
			card.AvgViewsDisplay = humanize.Comma(*rec.AvgViews)
		}
		if len(rec.Niches) > visibleNiches {
			card.ExtraNiches = len(rec.Niches) - visibleNiches
		}
		cards = append(cards, card)
	}
	return cards
}
