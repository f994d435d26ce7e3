package service

import "errors"

var (
	// ErrForbidden means the user's plan grants no access to the operation.
	ErrForbidden = errors.New("forbidden for this plan")
	// ErrNoSubscription means the user has no subscription to act on.
	ErrNoSubscription = errors.New("no active subscription")
	// ErrAlreadySubscribed means the user already holds a subscription.
	ErrAlreadySubscribed = errors.New("already subscribed")
)
