package reservation

import (
	"context"
	"errors"
	"strings"
	"time"

	"stayaway/internal/domain/listings"
	"stayaway/internal/domain/shared/daterange"
)

var (
	ErrNotFound           = errors.New("reservation: not found")
	ErrDateConflict       = errors.New("reservation: dates overlap an existing reservation")
	ErrInvalidGuests      = errors.New("reservation: guest count must be positive")
	ErrGuestLimitExceeded = errors.New("reservation: guest count exceeds listing capacity")
	ErrGuestRequired      = errors.New("reservation: guest id required")
	ErrNotAllowed         = errors.New("reservation: caller may not act on this reservation")
	// ErrCorruptStay marks a persisted stay interval that no longer
	// decodes. Reads fail closed on it rather than dropping the row.
	ErrCorruptStay = errors.New("reservation: stored stay interval is corrupt")
)

type ReservationID string

// Reservation is a confirmed booking of a listing for a half-open stay
// interval. It is only ever created through the booking service, never
// persisted directly by callers.
type Reservation struct {
	ID         ReservationID
	ListingID  listings.ListingID
	GuestID    string
	Stay       daterange.DateRange
	GuestCount int
	// TotalPrice = nights * listing nightly price, minor currency units.
	TotalPrice int64
	CreatedAt  time.Time
}

// Repository persists reservations. Create must be atomic with respect to
// conflicting inserts: when the stay overlaps any stored reservation for
// the same listing it fails with ErrDateConflict and writes nothing, even
// under concurrent attempts. Each backend supplies its own guarantee
// (mutex, lock document plus transaction, or a range exclusion constraint).
type Repository interface {
	Create(ctx context.Context, res *Reservation) error
	ByID(ctx context.Context, id ReservationID) (*Reservation, error)
	// Overlapping returns every reservation on the listing whose stay
	// overlaps the window, in no particular order.
	Overlapping(ctx context.Context, listingID listings.ListingID, window daterange.DateRange) ([]*Reservation, error)
	ByGuest(ctx context.Context, guestID string) ([]*Reservation, error)
	ByListing(ctx context.Context, listingID listings.ListingID) ([]*Reservation, error)
	Delete(ctx context.Context, id ReservationID) error
}

type CreateParams struct {
	ID         ReservationID
	ListingID  listings.ListingID
	GuestID    string
	Stay       daterange.DateRange
	GuestCount int
	TotalPrice int64
	Now        time.Time
}

func New(params CreateParams) (*Reservation, error) {
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	if params.GuestCount <= 0 {
		return nil, ErrInvalidGuests
	}
	if err := params.Stay.Validate(); err != nil {
		return nil, err
	}
	return &Reservation{
		ID:         params.ID,
		ListingID:  params.ListingID,
		GuestID:    params.GuestID,
		Stay:       params.Stay,
		GuestCount: params.GuestCount,
		TotalPrice: params.TotalPrice,
		CreatedAt:  params.Now.UTC(),
	}, nil
}

// Upcoming reports whether the stay ends strictly after the reference day.
// Used by dashboards to split upcoming from past stays.
func (r *Reservation) Upcoming(now time.Time) bool {
	return r.Stay.CheckOut.After(daterange.Day(now))
}
