package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/jimulabs/mailblast/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		createSubscribersTable(),
		createCampaignsTable(),
		createDeliveriesTable(),
	})

	return m.Migrate()
}

func createSubscribersTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_subscribers",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.SubscriberModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_subscribers_status ON subscribers (status)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.SubscriberModel{})
		},
	}
}

func createCampaignsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_campaigns",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&repository.CampaignModel{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.CampaignModel{})
		},
	}
}

func createDeliveriesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_deliveries",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.DeliveryModel{}); err != nil {
				return err
			}
			indexes := []string{
				// One live ledger row per pair. FAILED rows fall outside the
				// index so a later run can create a fresh PENDING row while
				// the failed attempt stays for audit.
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_deliveries_campaign_subscriber_live ON deliveries (campaign_id, subscriber_id) WHERE status <> 'FAILED'`,
				`CREATE INDEX IF NOT EXISTS idx_deliveries_campaign_status ON deliveries (campaign_id, status)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.DeliveryModel{})
		},
	}
}
