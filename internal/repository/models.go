package repository

import (
	"time"

	"github.com/jimulabs/mailblast/internal/domain"
)

// SubscriberModel is the persistence model for the subscribers table.
type SubscriberModel struct {
	ID        string                  `gorm:"type:uuid;primaryKey"`
	Email     string                  `gorm:"type:varchar(255);not null;uniqueIndex"`
	FirstName string                  `gorm:"type:varchar(255)"`
	LastName  string                  `gorm:"type:varchar(255)"`
	Status    domain.SubscriberStatus `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SubscriberModel) TableName() string {
	return "subscribers"
}

// CampaignModel is the persistence model for the campaigns table.
type CampaignModel struct {
	ID              string `gorm:"type:uuid;primaryKey"`
	Name            string `gorm:"type:varchar(255);not null;uniqueIndex"`
	SubjectTemplate string `gorm:"type:text;not null"`
	BodyTemplate    string `gorm:"type:text;not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (CampaignModel) TableName() string {
	return "campaigns"
}

// DeliveryModel is the persistence model for the deliveries ledger table.
// A partial unique index on (campaign_id, subscriber_id) WHERE status <>
// 'FAILED' enforces at most one live row per pair; see migrations.
type DeliveryModel struct {
	ID           string                `gorm:"type:uuid;primaryKey"`
	CampaignID   string                `gorm:"type:uuid;not null"`
	SubscriberID string                `gorm:"type:uuid;not null"`
	Status       domain.DeliveryStatus `gorm:"type:varchar(20);not null"`
	Error        *string               `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (DeliveryModel) TableName() string {
	return "deliveries"
}

func subscriberModelToDomain(m *SubscriberModel) *domain.Subscriber {
	if m == nil {
		return nil
	}

	return &domain.Subscriber{
		ID:        m.ID,
		Email:     m.Email,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func campaignModelFromDomain(c *domain.Campaign) *CampaignModel {
	if c == nil {
		return nil
	}

	return &CampaignModel{
		ID:              c.ID,
		Name:            c.Name,
		SubjectTemplate: c.SubjectTemplate,
		BodyTemplate:    c.BodyTemplate,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func campaignModelToDomain(m *CampaignModel) *domain.Campaign {
	if m == nil {
		return nil
	}

	return &domain.Campaign{
		ID:              m.ID,
		Name:            m.Name,
		SubjectTemplate: m.SubjectTemplate,
		BodyTemplate:    m.BodyTemplate,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func deliveryModelFromDomain(d *domain.Delivery) *DeliveryModel {
	if d == nil {
		return nil
	}

	return &DeliveryModel{
		ID:           d.ID,
		CampaignID:   d.CampaignID,
		SubscriberID: d.SubscriberID,
		Status:       d.Status,
		Error:        d.Error,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func deliveryModelToDomain(m *DeliveryModel) *domain.Delivery {
	if m == nil {
		return nil
	}

	return &domain.Delivery{
		ID:           m.ID,
		CampaignID:   m.CampaignID,
		SubscriberID: m.SubscriberID,
		Status:       m.Status,
		Error:        m.Error,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
