package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stayaway/internal/domain/listings"
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) ByID(ctx context.Context, id listings.ListingID) (*listings.Listing, error) {
	var row listingRow
	err := r.db.WithContext(ctx).Where("id = ?", string(id)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, listings.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: listing by id: %w", err)
	}
	return toListing(&row), nil
}

func (r *ListingRepository) Search(ctx context.Context, params listings.SearchParams) ([]*listings.Listing, error) {
	query := r.db.WithContext(ctx).Model(&listingRow{})
	if params.Host != "" {
		query = query.Where("user_id = ?", string(params.Host))
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.Location != "" {
		query = query.Where("location_value = ?", params.Location)
	}
	if params.MinRooms > 0 {
		query = query.Where("room_count >= ?", params.MinRooms)
	}
	if params.MinBathrooms > 0 {
		query = query.Where("bathroom_count >= ?", params.MinBathrooms)
	}
	if params.MinGuests > 0 {
		query = query.Where("guest_count >= ?", params.MinGuests)
	}
	if params.MaxPrice > 0 {
		query = query.Where("price <= ?", params.MaxPrice)
	}

	var rows []listingRow
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("postgres: search listings: %w", err)
	}
	out := make([]*listings.Listing, 0, len(rows))
	for i := range rows {
		out = append(out, toListing(&rows[i]))
	}
	return out, nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *listings.Listing) error {
	row := listingRow{
		ID:            string(listing.ID),
		UserID:        string(listing.Host),
		Title:         listing.Title,
		Description:   listing.Description,
		Category:      listing.Category,
		LocationValue: listing.LocationValue,
		Price:         listing.NightlyPrice,
		RoomCount:     listing.RoomCount,
		BathroomCount: listing.BathroomCount,
		GuestCount:    listing.GuestLimit,
		CreatedAt:     listing.CreatedAt.UTC(),
		UpdatedAt:     listing.UpdatedAt.UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("postgres: save listing: %w", err)
	}
	return nil
}

// Delete removes the listing; images and reservations go with it through
// the ON DELETE CASCADE foreign keys.
func (r *ListingRepository) Delete(ctx context.Context, id listings.ListingID) error {
	result := r.db.WithContext(ctx).Where("id = ?", string(id)).Delete(&listingRow{})
	if result.Error != nil {
		return fmt.Errorf("postgres: delete listing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return listings.ErrNotFound
	}
	return nil
}

type ImageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) ByListing(ctx context.Context, id listings.ListingID) ([]listings.Image, error) {
	var rows []imageRow
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", string(id)).
		Order("display_order ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: images by listing: %w", err)
	}
	out := make([]listings.Image, 0, len(rows))
	for i := range rows {
		out = append(out, toImage(&rows[i]))
	}
	return out, nil
}

func (r *ImageRepository) ByID(ctx context.Context, id string) (listings.Image, error) {
	var row imageRow
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return listings.Image{}, listings.ErrNotFound
	}
	if err != nil {
		return listings.Image{}, fmt.Errorf("postgres: image by id: %w", err)
	}
	return toImage(&row), nil
}

func (r *ImageRepository) Save(ctx context.Context, image listings.Image) error {
	row := imageRow{
		ID:        image.ID,
		ListingID: string(image.ListingID),
		URL:       image.URL,
		Order:     image.Order,
		CreatedAt: image.CreatedAt.UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("postgres: save image: %w", err)
	}
	return nil
}

func (r *ImageRepository) Reorder(ctx context.Context, listingID listings.ListingID, orders map[string]int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, order := range orders {
			result := tx.Model(&imageRow{}).
				Where("id = ? AND listing_id = ?", id, string(listingID)).
				Update("display_order", order)
			if result.Error != nil {
				return fmt.Errorf("postgres: reorder image: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return listings.ErrNotFound
			}
		}
		return nil
	})
}

func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&imageRow{})
	if result.Error != nil {
		return fmt.Errorf("postgres: delete image: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return listings.ErrNotFound
	}
	return nil
}

func toListing(row *listingRow) *listings.Listing {
	return &listings.Listing{
		ID:            listings.ListingID(row.ID),
		Host:          listings.HostID(row.UserID),
		Title:         row.Title,
		Description:   row.Description,
		Category:      row.Category,
		LocationValue: row.LocationValue,
		NightlyPrice:  row.Price,
		RoomCount:     row.RoomCount,
		BathroomCount: row.BathroomCount,
		GuestLimit:    row.GuestCount,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

func toImage(row *imageRow) listings.Image {
	return listings.Image{
		ID:        row.ID,
		ListingID: listings.ListingID(row.ListingID),
		URL:       row.URL,
		Order:     row.Order,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

var (
	_ listings.Repository      = (*ListingRepository)(nil)
	_ listings.ImageRepository = (*ImageRepository)(nil)
)
