package domain

import (
	"fmt"
	"strings"
	"time"
)

// DeliveryStatus represents the lifecycle state of a delivery ledger row.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "PENDING"
	DeliverySent    DeliveryStatus = "SENT"
	DeliveryFailed  DeliveryStatus = "FAILED"
)

func (s DeliveryStatus) String() string { return string(s) }

func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryPending, DeliverySent, DeliveryFailed:
		return true
	}
	return false
}

// Blocking reports whether a row in this status makes its (campaign,
// subscriber) pair ineligible for selection. FAILED rows do not block: the
// pair becomes a retry candidate on a later run and gets a fresh PENDING row.
func (s DeliveryStatus) Blocking() bool {
	return s == DeliveryPending || s == DeliverySent
}

func ParseDeliveryStatus(s string) (DeliveryStatus, error) {
	st := DeliveryStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid delivery status %q", ErrValidation, s)
	}
	return st, nil
}

// Delivery is the durable record of one (campaign, subscriber) send attempt.
// Rows are created PENDING immediately before the outbound send, then moved
// to exactly one of SENT or FAILED. Rows are never deleted.
type Delivery struct {
	ID           string
	CampaignID   string
	SubscriberID string
	Status       DeliveryStatus
	Error        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
