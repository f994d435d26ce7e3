package model

import "time"

// SubscriptionPhase marks a step of a subscription transition.
type SubscriptionPhase string

const (
	PhaseNone          SubscriptionPhase = ""
	PhasePendingCancel SubscriptionPhase = "pending-cancel"
	PhaseConfirmed     SubscriptionPhase = "confirmed"
	PhaseReverted      SubscriptionPhase = "reverted"
	PhaseActivated     SubscriptionPhase = "activated"
	PhaseCheckFailed   SubscriptionPhase = "check-failed"
)

// SubscriptionEvent is an audit record of a subscription transition.
type SubscriptionEvent struct {
	ID             string            `json:"id"`
	UserID         string            `json:"userId"`
	SubscriptionID string            `json:"subscriptionId"`
	Phase          SubscriptionPhase `json:"phase"`
	Detail         string            `json:"detail,omitempty"`
	RequestID      string            `json:"requestId,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// CheckSubscriptionRequest is the API request body for POST /api/subscription/check.
type CheckSubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId"`
}

// CheckSubscriptionResponse is the API response after a subscription check.
type CheckSubscriptionResponse struct {
	Success  bool   `json:"success"`
	Status   string `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// CreateSubscriptionResponse carries the PayPal approval link.
type CreateSubscriptionResponse struct {
	ApproveLink string `json:"approveLink"`
}

// CancelSubscriptionResponse is the API response for POST /api/subscription/cancel.
type CancelSubscriptionResponse struct {
	Phase SubscriptionPhase `json:"phase"`
	User  *User             `json:"user"`
}

// ExchangeRequest is the API request body for POST /auth/exchange.
type ExchangeRequest struct {
	Code string `json:"code"`
}
