package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
)

// DefaultEventLimit bounds ListByUser when no positive limit is given.
const DefaultEventLimit = 20

// SubscriptionEventRepo stores the audit trail of subscription transitions.
// A repo without a pool records nothing and lists nothing.
type SubscriptionEventRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionEventRepo(pool *pgxpool.Pool) *SubscriptionEventRepo {
	return &SubscriptionEventRepo{pool: pool}
}

// Enabled reports whether events are persisted.
func (r *SubscriptionEventRepo) Enabled() bool {
	return r != nil && r.pool != nil
}

// Record inserts one transition.
func (r *SubscriptionEventRepo) Record(ctx context.Context, ev model.SubscriptionEvent) error {
	if !r.Enabled() {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subscription_events (id, user_id, subscription_id, phase, detail, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.UserID, ev.SubscriptionID, string(ev.Phase), ev.Detail, ev.RequestID, ev.CreatedAt)
	return err
}

// ListByUser returns the user's most recent transitions, newest first.
func (r *SubscriptionEventRepo) ListByUser(ctx context.Context, userID string, limit int) ([]model.SubscriptionEvent, error) {
	if !r.Enabled() {
		return []model.SubscriptionEvent{}, nil
	}
	if limit <= 0 {
		limit = DefaultEventLimit
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, user_id, subscription_id, phase, detail, request_id, created_at
		FROM subscription_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []model.SubscriptionEvent{}
	for rows.Next() {
		var ev model.SubscriptionEvent
		var phase string
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.SubscriptionID, &phase,
			&ev.Detail, &ev.RequestID, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Phase = model.SubscriptionPhase(phase)
		events = append(events, ev)
	}
	return events, rows.Err()
}
