package model

// Influencer is a creator profile entry returned by the directory API.
type Influencer struct {
	ID             string   `json:"id"`
	Handle         string   `json:"handle"`
	Name           string   `json:"name"`
	AvatarURL      string   `json:"avatarUrl"`
	ProfileURL     *string  `json:"profileUrl"`
	Country        string   `json:"country"`
	Niches         []string `json:"niches"`
	Followers      int64    `json:"followers"`
	EngagementRate float64  `json:"engagementRate"`
	AvgViews       *int64   `json:"avgViews"`
}

// PrimaryNiche returns the first niche label, or "" when the record has none.
func (i Influencer) PrimaryNiche() string {
	if len(i.Niches) == 0 {
		return ""
	}
	return i.Niches[0]
}

// InfluencerCard is the display form of an Influencer sent to the dashboard.
type InfluencerCard struct {
	Influencer
	FollowersDisplay  string `json:"followersDisplay"`
	AvgViewsDisplay   string `json:"avgViewsDisplay"`
	EngagementDisplay string `json:"engagementDisplay"`
	ExtraNiches       int    `json:"extraNiches"`
}
