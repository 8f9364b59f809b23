package domain

import (
	"fmt"
	"strings"
	"time"
)

// SubscriberStatus represents the lifecycle state of a subscriber.
type SubscriberStatus string

const (
	SubscriberActive       SubscriberStatus = "ACTIVE"
	SubscriberUnsubscribed SubscriberStatus = "UNSUBSCRIBED"
)

func (s SubscriberStatus) String() string { return string(s) }

func (s SubscriberStatus) IsValid() bool {
	switch s {
	case SubscriberActive, SubscriberUnsubscribed:
		return true
	}
	return false
}

func ParseSubscriberStatus(s string) (SubscriberStatus, error) {
	st := SubscriberStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid subscriber status %q", ErrValidation, s)
	}
	return st, nil
}

// Subscriber is a recipient record. Subscribers are created elsewhere; this
// system only reads them.
type Subscriber struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Status    SubscriberStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s Subscriber) IsActive() bool { return s.Status == SubscriberActive }
