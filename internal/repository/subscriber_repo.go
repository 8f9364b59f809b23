package repository

import (
	"context"
	"time"

	"github.com/jimulabs/mailblast/internal/domain"
	"gorm.io/gorm"
)

// SubscriberFilter narrows the active-subscriber listing to a cohort.
// Zero-value fields are ignored.
type SubscriberFilter struct {
	EmailDomain    string
	SubscribedFrom *time.Time
	SubscribedTo   *time.Time
}

type SubscriberRepository interface {
	ListActive(ctx context.Context, filter SubscriberFilter) ([]domain.Subscriber, error)
}

type GormSubscriberRepo struct {
	db *gorm.DB
}

func NewGormSubscriberRepo(db *gorm.DB) *GormSubscriberRepo {
	return &GormSubscriberRepo{db: db}
}

// ListActive returns ACTIVE subscribers in insertion order.
func (r *GormSubscriberRepo) ListActive(ctx context.Context, filter SubscriberFilter) ([]domain.Subscriber, error) {
	query := r.db.WithContext(ctx).
		Model(&SubscriberModel{}).
		Where("status = ?", domain.SubscriberActive)

	if filter.EmailDomain != "" {
		query = query.Where("email LIKE ?", "%@"+filter.EmailDomain)
	}
	if filter.SubscribedFrom != nil {
		query = query.Where("created_at >= ?", *filter.SubscribedFrom)
	}
	if filter.SubscribedTo != nil {
		query = query.Where("created_at <= ?", *filter.SubscribedTo)
	}

	var models []SubscriberModel
	if err := query.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	subscribers := make([]domain.Subscriber, 0, len(models))
	for i := range models {
		subscribers = append(subscribers, *subscriberModelToDomain(&models[i]))
	}

	return subscribers, nil
}
