package listings

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound         = errors.New("listings: listing not found")
	ErrTitleRequired    = errors.New("listings: title is required")
	ErrHostRequired     = errors.New("listings: host is required")
	ErrNightlyPrice     = errors.New("listings: nightly price must be positive")
	ErrGuestLimit       = errors.New("listings: guest limit must be at least 1")
	ErrRoomCount        = errors.New("listings: room count must be at least 1")
	ErrBathroomCount    = errors.New("listings: bathroom count must be at least 1")
	ErrLocationRequired = errors.New("listings: location is required")
)

type ListingID string
type HostID string

// Listing is a bookable unit owned by exactly one host.
type Listing struct {
	ID            ListingID
	Host          HostID
	Title         string
	Description   string
	Category      string
	LocationValue string
	// NightlyPrice is an integer amount in minor currency units.
	NightlyPrice  int64
	RoomCount     int
	BathroomCount int
	GuestLimit    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Image belongs to exactly one listing. Order defines display position;
// it is unique per listing but not required to be contiguous.
type Image struct {
	ID        string
	ListingID ListingID
	URL       string
	Order     int
	CreatedAt time.Time
}

// SearchParams filter the catalog. Zero values mean "no filter".
type SearchParams struct {
	Host         HostID
	Category     string
	Location     string
	MinRooms     int
	MinBathrooms int
	MinGuests    int
	MaxPrice     int64
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Search(ctx context.Context, params SearchParams) ([]*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	// Delete removes the listing and cascades to its images and reservations.
	Delete(ctx context.Context, id ListingID) error
}

type ImageRepository interface {
	ByListing(ctx context.Context, id ListingID) ([]Image, error)
	ByID(ctx context.Context, id string) (Image, error)
	Save(ctx context.Context, image Image) error
	Reorder(ctx context.Context, listingID ListingID, orders map[string]int) error
	Delete(ctx context.Context, id string) error
}

type CreateParams struct {
	ID            ListingID
	Host          HostID
	Title         string
	Description   string
	Category      string
	LocationValue string
	NightlyPrice  int64
	RoomCount     int
	BathroomCount int
	GuestLimit    int
	Now           time.Time
}

func New(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, ErrHostRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(params.LocationValue) == "" {
		return nil, ErrLocationRequired
	}
	if params.NightlyPrice <= 0 {
		return nil, ErrNightlyPrice
	}
	if params.GuestLimit < 1 {
		return nil, ErrGuestLimit
	}
	if params.RoomCount < 1 {
		return nil, ErrRoomCount
	}
	if params.BathroomCount < 1 {
		return nil, ErrBathroomCount
	}
	now := params.Now.UTC()
	return &Listing{
		ID:            params.ID,
		Host:          params.Host,
		Title:         strings.TrimSpace(params.Title),
		Description:   params.Description,
		Category:      params.Category,
		LocationValue: params.LocationValue,
		NightlyPrice:  params.NightlyPrice,
		RoomCount:     params.RoomCount,
		BathroomCount: params.BathroomCount,
		GuestLimit:    params.GuestLimit,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
