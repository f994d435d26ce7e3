// Package sample builds the fixed, niche-balanced preview list shown to
// free-tier users.
package sample

import (
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
)

const (
	// DefaultLimit is the size of the free-tier preview.
	DefaultLimit = 50

	// OtherBucket collects records without a primary niche.
	OtherBucket = "other"

	// maxRoundRobinCycles bounds the remainder pass when buckets run dry.
	maxRoundRobinCycles = 5
)

// HandleKey returns the de-duplication key for a creator handle: trimmed,
// NFC-normalized and lowercased. An empty key means the record cannot be used.
func HandleKey(handle string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(handle)))
}

// BucketKey returns the niche bucket a record belongs to.
func BucketKey(rec model.Influencer) string {
	primary := strings.TrimSpace(rec.PrimaryNiche())
	if primary == "" {
		return OtherBucket
	}
	return strings.ToLower(primary)
}

// Build returns at most limit records from pool, spread as evenly as possible
// across primary-niche buckets.
//
// The algorithm:
//
//	dedup     first occurrence per HandleKey wins, empty handles dropped
//	buckets   grouped by BucketKey, keys sorted ascending
//	base      limit / len(buckets) from each bucket, in pool order
//	remainder round-robin over the sorted keys, one record per visit (max 5 cycles)
//	backfill  unused records in pool order until limit is reached
//
// Build never fails and never mutates pool; the same pool and limit always
// produce the same output.
func Build(pool []model.Influencer, limit int) []model.Influencer {
	if limit <= 0 || len(pool) == 0 {
		return []model.Influencer{}
	}

	unique := dedup(pool)
	if len(unique) == 0 {
		return []model.Influencer{}
	}

	buckets := make(map[string][]int)
	for i, rec := range unique {
		key := BucketKey(rec)
		buckets[key] = append(buckets[key], i)
	}
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	nBuckets := max(len(keys), 1)
	base := limit / nBuckets

	picked := make([]int, 0, min(limit, len(unique)))
	used := make([]bool, len(unique))
	taken := make(map[string]int, len(keys))

	take := func(idx int) {
		picked = append(picked, idx)
		used[idx] = true
	}

	for _, key := range keys {
		members := buckets[key]
		n := min(base, len(members))
		for _, idx := range members[:n] {
			take(idx)
		}
		taken[key] = n
	}

	remainder := limit - base*nBuckets
	for cycle := 0; remainder > 0 && cycle < maxRoundRobinCycles; cycle++ {
		for _, key := range keys {
			if remainder == 0 {
				break
			}
			members := buckets[key]
			if taken[key] < len(members) {
				take(members[taken[key]])
				taken[key]++
				remainder--
			}
		}
	}

	for idx := range unique {
		if len(picked) >= limit {
			break
		}
		if !used[idx] {
			take(idx)
		}
	}

	if len(picked) > limit {
		picked = picked[:limit]
	}

	out := make([]model.Influencer, 0, len(picked))
	for _, idx := range picked {
		rec := unique[idx]
		rec.Niches = slices.Clone(rec.Niches)
		rec.ProfileURL = clonePtr(rec.ProfileURL)
		rec.AvgViews = clonePtr(rec.AvgViews)
		out = append(out, rec)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// dedup keeps the first record seen for each handle key, in pool order.
func dedup(pool []model.Influencer) []model.Influencer {
	seen := make(map[string]struct{}, len(pool))
	out := make([]model.Influencer, 0, len(pool))
	for _, rec := range pool {
		key := HandleKey(rec.Handle)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}
