package account

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// BillingClient talks to the remote /paypal endpoints.
type BillingClient struct {
	http httpClient
}

// NewBillingClient creates a billing client for baseURL.
func NewBillingClient(baseURL string, timeout time.Duration) *BillingClient {
	return &BillingClient{http: newHTTPClient(baseURL, timeout)}
}

// CheckResult is the billing service's verdict on a returning subscription.
type CheckResult struct {
	Success bool
	Status  string
	Error   string
}

type subscriptionRequest struct {
	UserID         string `json:"userId"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
}

type createResponse struct {
	ApproveLink string `json:"approveLink"`
}

type checkResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Error   string `json:"error"`
}

type cancelResponse struct {
	OK bool `json:"ok"`
}

// CreateSubscription starts a PayPal subscription and returns the URL the
// user must visit to approve it.
func (b *BillingClient) CreateSubscription(ctx context.Context, cookie, userID string) (string, error) {
	var body createResponse
	res, err := b.http.do(ctx, http.MethodPost, "/paypal/create-subscription", cookie,
		subscriptionRequest{UserID: userID}, &body)
	if err != nil {
		return "", err
	}
	if err := statusError(res); err != nil {
		return "", err
	}
	if body.ApproveLink == "" {
		return "", fmt.Errorf("%w: no approval link returned", ErrRejected)
	}
	return body.ApproveLink, nil
}

// CheckSubscription asks the billing service to verify a subscription after
// the PayPal redirect. A negative verdict is a result, not an error.
func (b *BillingClient) CheckSubscription(ctx context.Context, cookie, userID, subscriptionID string) (CheckResult, error) {
	var body checkResponse
	res, err := b.http.do(ctx, http.MethodPost, "/paypal/check-subscription", cookie,
		subscriptionRequest{UserID: userID, SubscriptionID: subscriptionID}, &body)
	if err != nil {
		return CheckResult{}, err
	}
	if res.status == http.StatusUnauthorized {
		return CheckResult{}, ErrUnauthenticated
	}
	if !res.ok() {
		return CheckResult{Success: false, Error: fmt.Sprintf("HTTP %d", res.status)}, nil
	}
	return CheckResult{Success: body.Success, Status: body.Status, Error: body.Error}, nil
}

// CancelSubscription cancels the subscription. ok=false from the billing
// service yields ErrRejected.
func (b *BillingClient) CancelSubscription(ctx context.Context, cookie, userID, subscriptionID string) error {
	var body cancelResponse
	res, err := b.http.do(ctx, http.MethodPost, "/paypal/cancel-subscription", cookie,
		subscriptionRequest{UserID: userID, SubscriptionID: subscriptionID}, &body)
	if err != nil {
		return err
	}
	if err := statusError(res); err != nil {
		return err
	}
	if !body.OK {
		return fmt.Errorf("%w: cancel not acknowledged", ErrRejected)
	}
	return nil
}

func statusError(res result) error {
	switch {
	case res.ok():
		return nil
	case res.status == http.StatusUnauthorized:
		return ErrUnauthenticated
	default:
		return fmt.Errorf("%w: HTTP %d", ErrRejected, res.status)
	}
}
