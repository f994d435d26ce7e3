package model

// Account roles as reported by the auth service.
const (
	RoleFree = "FREE"
	RolePaid = "PAID"
)

// User is the signed-in account as returned by GET /auth/me.
type User struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name,omitempty"`
	Email                string  `json:"email,omitempty"`
	Role                 string  `json:"role,omitempty"`
	PaypalSubscriptionID *string `json:"paypalSubscriptionId"`
}

// HasSubscription reports whether the user carries a PayPal subscription ID.
func (u *User) HasSubscription() bool {
	return u != nil && u.PaypalSubscriptionID != nil && *u.PaypalSubscriptionID != ""
}

// Clone returns a deep copy so state snapshots never share the subscription pointer.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.PaypalSubscriptionID != nil {
		id := *u.PaypalSubscriptionID
		c.PaypalSubscriptionID = &id
	}
	return &c
}

// MeResponse is the API response for GET /auth/me.
type MeResponse struct {
	User         *User        `json:"user"`
	Capabilities Capabilities `json:"capabilities"`
}
