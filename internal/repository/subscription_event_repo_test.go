package repository

import (
	"context"
	"testing"

	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
)

func TestSubscriptionEventRepo_WithoutPool(t *testing.T) {
	repos := map[string]*SubscriptionEventRepo{
		"nil repo": nil,
		"nil pool": NewSubscriptionEventRepo(nil),
	}
	for name, r := range repos {
		t.Run(name, func(t *testing.T) {
			if r.Enabled() {
				t.Error("Enabled() = true without a pool")
			}
			if err := r.Record(context.Background(), model.SubscriptionEvent{UserID: "u1"}); err != nil {
				t.Errorf("Record: %v", err)
			}
			events, err := r.ListByUser(context.Background(), "u1", 5)
			if err != nil {
				t.Fatalf("ListByUser: %v", err)
			}
			if events == nil || len(events) != 0 {
				t.Errorf("events = %#v, want empty slice", events)
			}
		})
	}
}
