package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/jimulabs/mailblast/internal/domain"
	"github.com/jimulabs/mailblast/internal/repository"
	"github.com/jimulabs/mailblast/internal/sender"
)

// memoryLedger is an in-memory DeliveryRepository that enforces the same
// one-live-row-per-pair constraint as the partial unique index in postgres.
type memoryLedger struct {
	mu            sync.Mutex
	rows          map[string]*domain.Delivery
	nextID        int
	createPending func(campaignID, subscriberID string) error
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{rows: make(map[string]*domain.Delivery)}
}

func (l *memoryLedger) ListIneligibleSubscriberIDs(ctx context.Context, campaignID string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var ids []string
	for _, row := range l.rows {
		if row.CampaignID == campaignID && row.Status.Blocking() {
			ids = append(ids, row.SubscriberID)
		}
	}
	return ids, nil
}

func (l *memoryLedger) CreatePending(ctx context.Context, campaignID, subscriberID string) (*domain.Delivery, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.createPending != nil {
		if err := l.createPending(campaignID, subscriberID); err != nil {
			return nil, err
		}
	}

	for _, row := range l.rows {
		if row.CampaignID == campaignID && row.SubscriberID == subscriberID && row.Status != domain.DeliveryFailed {
			return nil, domain.ErrDuplicateDelivery
		}
	}

	l.nextID++
	row := &domain.Delivery{
		ID:           fmt.Sprintf("delivery-%d", l.nextID),
		CampaignID:   campaignID,
		SubscriberID: subscriberID,
		Status:       domain.DeliveryPending,
	}
	l.rows[row.ID] = row

	copied := *row
	return &copied, nil
}

func (l *memoryLedger) MarkSent(ctx context.Context, deliveryID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	row, ok := l.rows[deliveryID]
	if !ok {
		return domain.ErrNotFound
	}
	if row.Status == domain.DeliveryFailed {
		return domain.ErrConflict
	}
	row.Status = domain.DeliverySent
	return nil
}

func (l *memoryLedger) MarkFailed(ctx context.Context, deliveryID, errorDetail string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	row, ok := l.rows[deliveryID]
	if !ok {
		return domain.ErrNotFound
	}
	if row.Status != domain.DeliveryPending {
		return domain.ErrConflict
	}
	row.Status = domain.DeliveryFailed
	row.Error = &errorDetail
	return nil
}

func (l *memoryLedger) CountByStatus(ctx context.Context, campaignID string) ([]repository.StatusCount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	byStatus := make(map[domain.DeliveryStatus]int)
	for _, row := range l.rows {
		if row.CampaignID == campaignID {
			byStatus[row.Status]++
		}
	}

	counts := make([]repository.StatusCount, 0, len(byStatus))
	for status, count := range byStatus {
		counts = append(counts, repository.StatusCount{Status: status, Count: count})
	}
	return counts, nil
}

func (l *memoryLedger) statusOf(campaignID, subscriberID string) (domain.DeliveryStatus, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Prefer the live row; fall back to a FAILED one.
	var failed *domain.Delivery
	for _, row := range l.rows {
		if row.CampaignID != campaignID || row.SubscriberID != subscriberID {
			continue
		}
		if row.Status != domain.DeliveryFailed {
			return row.Status, true
		}
		failed = row
	}
	if failed != nil {
		return failed.Status, true
	}
	return "", false
}

type fakeSubscriberRepo struct {
	subscribers []domain.Subscriber
	gotFilter   repository.SubscriberFilter
}

func (r *fakeSubscriberRepo) ListActive(ctx context.Context, filter repository.SubscriberFilter) ([]domain.Subscriber, error) {
	r.gotFilter = filter
	active := make([]domain.Subscriber, 0, len(r.subscribers))
	for _, s := range r.subscribers {
		if s.IsActive() {
			active = append(active, s)
		}
	}
	return active, nil
}

type fakeCampaignRepo struct {
	mu       sync.Mutex
	byName   map[string]*domain.Campaign
	nextID   int
	creates  int
	lastSeen *domain.Campaign
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{byName: make(map[string]*domain.Campaign)}
}

func (r *fakeCampaignRepo) GetOrCreate(ctx context.Context, c *domain.Campaign) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[c.Name]; ok {
		*c = *existing
		return false, nil
	}

	r.nextID++
	r.creates++
	c.ID = fmt.Sprintf("campaign-%d", r.nextID)
	copied := *c
	r.byName[c.Name] = &copied
	r.lastSeen = &copied
	return true, nil
}

func (r *fakeCampaignRepo) GetByName(ctx context.Context, name string) (*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[name]; ok {
		copied := *existing
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []sender.Email
	sendFn func(ctx context.Context, email *sender.Email) error
}

func (s *fakeSender) Send(ctx context.Context, email *sender.Email) error {
	if s.sendFn != nil {
		if err := s.sendFn(ctx, email); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, *email)
	return nil
}

func (s *fakeSender) sentTo(address string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, email := range s.sent {
		if email.To == address {
			count++
		}
	}
	return count
}

func (s *fakeSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type fakeRateLimiter struct {
	mu     sync.Mutex
	waits  int
	waitFn func(ctx context.Context, scope string) error
}

func (l *fakeRateLimiter) Allow(ctx context.Context, scope string) (bool, error) {
	return true, nil
}

func (l *fakeRateLimiter) Wait(ctx context.Context, scope string) error {
	l.mu.Lock()
	l.waits++
	l.mu.Unlock()

	if l.waitFn != nil {
		return l.waitFn(ctx, scope)
	}
	return nil
}

func makeSubscribers(n int) []domain.Subscriber {
	subscribers := make([]domain.Subscriber, 0, n)
	for i := 1; i <= n; i++ {
		subscribers = append(subscribers, domain.Subscriber{
			ID:        fmt.Sprintf("sub-%d", i),
			Email:     fmt.Sprintf("sub%d@example.com", i),
			FirstName: fmt.Sprintf("Sub%d", i),
			Status:    domain.SubscriberActive,
		})
	}
	return subscribers
}
