package directory

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
)

// listResponse is the envelope of GET /api/tiktokers.
type listResponse struct {
	OK      bool            `json:"ok"`
	Results []rawInfluencer `json:"results"`
	Total   flexNumber      `json:"total"`
}

// rawInfluencer is a directory row as sent on the wire. Fields are loosely
// typed because the directory is not strict about them.
type rawInfluencer struct {
	ID             flexString      `json:"id"`
	Handle         string          `json:"handle"`
	Username       string          `json:"username"`
	Name           string          `json:"name"`
	AvatarURL      string          `json:"avatarUrl"`
	ProfileURL     string          `json:"profileUrl"`
	Country        string          `json:"country"`
	Niches         json.RawMessage `json:"niches"`
	Followers      flexNumber      `json:"followers"`
	EngagementRate flexNumber      `json:"engagementRate"`
	AvgViews       flexNumber      `json:"avgViews"`
}

func (r rawInfluencer) toModel() model.Influencer {
	rec := model.Influencer{
		ID:             string(r.ID),
		Handle:         r.Handle,
		Name:           r.Name,
		AvatarURL:      r.AvatarURL,
		Country:        r.Country,
		Niches:         parseNiches(r.Niches),
		Followers:      int64(r.Followers),
		EngagementRate: float64(r.EngagementRate),
	}
	if rec.Handle == "" {
		rec.Handle = r.Username
	}
	if r.ProfileURL != "" {
		u := r.ProfileURL
		rec.ProfileURL = &u
	}
	if v := int64(r.AvgViews); v != 0 {
		rec.AvgViews = &v
	}
	return rec
}

// parseNiches accepts a JSON array of strings. Anything else yields an empty
// list; non-string array elements are skipped.
func parseNiches(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return []string{}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}
	niches := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			niches = append(niches, s)
		}
	}
	return niches
}

// flexNumber decodes a JSON number, a numeric string or null. Values that
// cannot be read as a number decode to zero.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" || s == "false" {
		*n = 0
		return nil
	}
	if s == "true" {
		*n = 1
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			*n = 0
			return nil
		}
		s = strings.TrimSpace(str)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = flexNumber(f)
	return nil
}

// flexString decodes a JSON string or number into its string form.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	*s = flexString(b)
	return nil
}
