package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jimulabs/mailblast/internal/domain"
	"gorm.io/gorm"
)

// StatusCount is one row of a per-campaign ledger summary.
type StatusCount struct {
	Status domain.DeliveryStatus `gorm:"column:status"`
	Count  int                   `gorm:"column:count"`
}

// DeliveryRepository is the append/transition-only delivery ledger. Rows are
// never deleted; safe re-runs depend on the history staying intact.
type DeliveryRepository interface {
	// ListIneligibleSubscriberIDs returns subscriber ids with a PENDING or
	// SENT row for the campaign. FAILED rows do not appear: those pairs are
	// retry candidates on a later run.
	ListIneligibleSubscriberIDs(ctx context.Context, campaignID string) ([]string, error)
	// CreatePending inserts a PENDING row for the pair. Returns
	// domain.ErrDuplicateDelivery when a live row already exists.
	CreatePending(ctx context.Context, campaignID, subscriberID string) (*domain.Delivery, error)
	// MarkSent transitions PENDING to SENT. Idempotent if already SENT.
	MarkSent(ctx context.Context, deliveryID string) error
	// MarkFailed transitions to FAILED, storing a short error detail.
	MarkFailed(ctx context.Context, deliveryID, errorDetail string) error
	CountByStatus(ctx context.Context, campaignID string) ([]StatusCount, error)
}

type GormDeliveryRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormDeliveryRepo(db *gorm.DB) *GormDeliveryRepo {
	return &GormDeliveryRepo{db: db, now: time.Now}
}

func (r *GormDeliveryRepo) ListIneligibleSubscriberIDs(ctx context.Context, campaignID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&DeliveryModel{}).
		Where("campaign_id = ? AND status IN ?", campaignID,
			[]domain.DeliveryStatus{domain.DeliveryPending, domain.DeliverySent}).
		Pluck("subscriber_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormDeliveryRepo) CreatePending(ctx context.Context, campaignID, subscriberID string) (*domain.Delivery, error) {
	now := r.now().UTC()
	model := &DeliveryModel{
		ID:           uuid.NewString(),
		CampaignID:   campaignID,
		SubscriberID: subscriberID,
		Status:       domain.DeliveryPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.db.WithContext(ctx).Create(model).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, domain.ErrDuplicateDelivery
	}
	if err != nil {
		return nil, err
	}

	return deliveryModelToDomain(model), nil
}

func (r *GormDeliveryRepo) MarkSent(ctx context.Context, deliveryID string) error {
	result := r.db.WithContext(ctx).
		Model(&DeliveryModel{}).
		Where("id = ? AND status IN ?", deliveryID,
			[]domain.DeliveryStatus{domain.DeliveryPending, domain.DeliverySent}).
		Update("status", domain.DeliverySent)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missingOrConflict(ctx, deliveryID)
	}
	return nil
}

func (r *GormDeliveryRepo) MarkFailed(ctx context.Context, deliveryID, errorDetail string) error {
	result := r.db.WithContext(ctx).
		Model(&DeliveryModel{}).
		Where("id = ? AND status = ?", deliveryID, domain.DeliveryPending).
		Updates(map[string]any{
			"status": domain.DeliveryFailed,
			"error":  errorDetail,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missingOrConflict(ctx, deliveryID)
	}
	return nil
}

func (r *GormDeliveryRepo) CountByStatus(ctx context.Context, campaignID string) ([]StatusCount, error) {
	var counts []StatusCount
	err := r.db.WithContext(ctx).
		Model(&DeliveryModel{}).
		Select("status, COUNT(*) as count").
		Where("campaign_id = ?", campaignID).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *GormDeliveryRepo) missingOrConflict(ctx context.Context, deliveryID string) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&DeliveryModel{}).
		Where("id = ?", deliveryID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}
