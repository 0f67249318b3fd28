package postgres

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	return db, nil
}

type listingRow struct {
	ID            string `gorm:"primaryKey"`
	UserID        string `gorm:"index"`
	Title         string
	Description   string
	Category      string
	LocationValue string
	Price         int64
	RoomCount     int
	BathroomCount int
	GuestCount    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (listingRow) TableName() string { return "listings" }

type imageRow struct {
	ID        string `gorm:"primaryKey"`
	ListingID string `gorm:"index"`
	URL       string `gorm:"column:url"`
	Order     int    `gorm:"column:display_order"`
	CreatedAt time.Time
}

func (imageRow) TableName() string { return "listing_images" }

type reservationRow struct {
	ID         string `gorm:"primaryKey"`
	ListingID  string `gorm:"index"`
	UserID     string `gorm:"index"`
	Duration   string `gorm:"type:tstzrange"`
	GuestCount int
	TotalPrice int64
	CreatedAt  time.Time
}

func (reservationRow) TableName() string { return "reservations" }

// Migrate applies the schema. Beyond the plain tables it installs the
// pieces the schema needs for correctness: cascading foreign keys and the
// range exclusion constraint that makes overlapping reservations for one
// listing impossible to commit, whatever the application does.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&listingRow{}, &imageRow{}, &reservationRow{}); err != nil {
		return fmt.Errorf("postgres: automigrate: %w", err)
	}

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		`ALTER TABLE listing_images DROP CONSTRAINT IF EXISTS fk_listing_images_listing`,
		`ALTER TABLE listing_images ADD CONSTRAINT fk_listing_images_listing
			FOREIGN KEY (listing_id) REFERENCES listings(id) ON DELETE CASCADE`,
		`ALTER TABLE reservations DROP CONSTRAINT IF EXISTS fk_reservations_listing`,
		`ALTER TABLE reservations ADD CONSTRAINT fk_reservations_listing
			FOREIGN KEY (listing_id) REFERENCES listings(id) ON DELETE CASCADE`,
		`ALTER TABLE reservations DROP CONSTRAINT IF EXISTS reservations_no_overlap`,
		`ALTER TABLE reservations ADD CONSTRAINT reservations_no_overlap
			EXCLUDE USING gist (listing_id WITH =, duration WITH &&)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}
	return nil
}
