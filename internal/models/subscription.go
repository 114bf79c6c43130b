package models

import "time"

// SubscriptionStatus is active or inactive.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

// PlanNone marks a collector without a plan.
const PlanNone = "none"

// Subscription gates a collector's access to matching and acceptance.
type Subscription struct {
	CollectorID   string             `json:"collector_id"`
	CollectorName string             `json:"collector_name,omitempty"`
	Email         string             `json:"email,omitempty"`
	Phone         string             `json:"phone,omitempty"`
	PlanType      string             `json:"plan_type"`
	Status        SubscriptionStatus `json:"status"`
	ExpiryDate    *time.Time         `json:"expiry_date,omitempty"`
	CreatedAt     *time.Time         `json:"created_at,omitempty"`
	CancelledAt   *time.Time         `json:"cancelled_at,omitempty"`
}

// ActiveAt reports whether the subscription is active and unexpired at now.
func (s Subscription) ActiveAt(now time.Time) bool {
	if s.Status != SubscriptionActive {
		return false
	}
	return s.ExpiryDate == nil || s.ExpiryDate.After(now)
}

// SubscriptionRequest activates or renews a plan.
type SubscriptionRequest struct {
	PlanType  string `json:"plan_type"`
	DaysValid int    `json:"days_valid"`
}
