package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jimulabs/mailblast/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CampaignRepository interface {
	// GetOrCreate inserts the campaign if no row with its name exists, or
	// loads the existing row. The insert uses ON CONFLICT DO NOTHING on the
	// name's unique index, so concurrent callers never produce two rows for
	// the same name. Returns whether this call created the row.
	GetOrCreate(ctx context.Context, c *domain.Campaign) (bool, error)
	GetByName(ctx context.Context, name string) (*domain.Campaign, error)
}

type GormCampaignRepo struct {
	db *gorm.DB
}

func NewGormCampaignRepo(db *gorm.DB) *GormCampaignRepo {
	return &GormCampaignRepo{db: db}
}

func (r *GormCampaignRepo) GetOrCreate(ctx context.Context, c *domain.Campaign) (bool, error) {
	if c == nil {
		return false, domain.ErrValidation
	}
	if err := c.Validate(); err != nil {
		return false, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	model := campaignModelFromDomain(c)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		return false, result.Error
	}

	if result.RowsAffected > 0 {
		*c = *campaignModelToDomain(model)
		return true, nil
	}

	existing, err := r.GetByName(ctx, c.Name)
	if err != nil {
		return false, err
	}
	*c = *existing
	return false, nil
}

func (r *GormCampaignRepo) GetByName(ctx context.Context, name string) (*domain.Campaign, error) {
	var model CampaignModel
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return campaignModelToDomain(&model), nil
}
