package service

import (
	"context"
	"fmt"

	"github.com/jimulabs/mailblast/internal/domain"
	"github.com/jimulabs/mailblast/internal/repository"
	"go.uber.org/zap"
)

// Predicate is an optional in-memory recipient filter applied after the
// store-level cohort filter.
type Predicate func(domain.Subscriber) bool

// RecipientSelector computes the eligible recipient set of a campaign:
// ACTIVE subscribers without a live (PENDING or SENT) ledger row.
type RecipientSelector struct {
	subscribers repository.SubscriberRepository
	deliveries  repository.DeliveryRepository
	logger      *zap.Logger
}

func NewRecipientSelector(
	subscribers repository.SubscriberRepository,
	deliveries repository.DeliveryRepository,
	logger *zap.Logger,
) (*RecipientSelector, error) {
	if subscribers == nil {
		return nil, fmt.Errorf("subscriber repository is required")
	}
	if deliveries == nil {
		return nil, fmt.Errorf("delivery repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RecipientSelector{
		subscribers: subscribers,
		deliveries:  deliveries,
		logger:      logger,
	}, nil
}

// EligibleRecipients returns the fixed recipient set for one run, in the
// subscriber store's insertion order. The ineligible set is computed in one
// pass before subscribers are listed so it cannot go stale mid-filter.
func (s *RecipientSelector) EligibleRecipients(
	ctx context.Context,
	campaignID string,
	filter repository.SubscriberFilter,
	keep Predicate,
) ([]domain.Subscriber, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	ineligibleIDs, err := s.deliveries.ListIneligibleSubscriberIDs(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ineligible subscribers: %w", err)
	}

	ineligible := make(map[string]struct{}, len(ineligibleIDs))
	for _, id := range ineligibleIDs {
		ineligible[id] = struct{}{}
	}

	subscribers, err := s.subscribers.ListActive(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list active subscribers: %w", err)
	}

	eligible := make([]domain.Subscriber, 0, len(subscribers))
	for _, subscriber := range subscribers {
		if _, blocked := ineligible[subscriber.ID]; blocked {
			continue
		}
		if keep != nil && !keep(subscriber) {
			continue
		}
		eligible = append(eligible, subscriber)
	}

	s.logger.Debug("computed eligible recipient set",
		zap.String("campaignId", campaignID),
		zap.Int("active", len(subscribers)),
		zap.Int("ineligible", len(ineligibleIDs)),
		zap.Int("eligible", len(eligible)),
	)

	return eligible, nil
}
