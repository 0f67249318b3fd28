package booking

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stayaway/internal/domain/listings"
	"stayaway/internal/domain/reservation"
	"stayaway/internal/domain/shared/daterange"
)

var ErrCheckInPast = errors.New("booking: check-in date is in the past")

// EventPublisher pushes reservation lifecycle events to the broker.
// Publishing is best effort; a broker failure never fails the booking.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Service orchestrates the booking transaction: validate the candidate
// interval, re-check availability against live data, and commit the
// reservation atomically relative to conflicting bookings. The atomicity
// itself is the repository's contract; the pre-check here only produces a
// friendlier error before the write is attempted.
type Service struct {
	Listings     listings.Repository
	Reservations reservation.Repository
	Events       EventPublisher
	Logger       *slog.Logger
	Now          func() time.Time
}

type BookRequest struct {
	ListingID  listings.ListingID
	GuestID    string
	CheckIn    time.Time
	CheckOut   time.Time
	GuestCount int
}

func (s *Service) Book(ctx context.Context, req BookRequest) (*reservation.Reservation, error) {
	now := s.now()

	stay, err := daterange.New(daterange.Day(req.CheckIn), daterange.Day(req.CheckOut))
	if err != nil {
		return nil, err
	}
	if stay.CheckIn.Before(daterange.Day(now)) {
		return nil, ErrCheckInPast
	}

	listing, err := s.Listings.ByID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	if req.GuestCount <= 0 {
		return nil, reservation.ErrInvalidGuests
	}
	if req.GuestCount > listing.GuestLimit {
		return nil, reservation.ErrGuestLimitExceeded
	}

	available, err := s.CheckAvailability(ctx, req.ListingID, stay)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, reservation.ErrDateConflict
	}

	res, err := reservation.New(reservation.CreateParams{
		ID:         reservation.ReservationID(uuid.NewString()),
		ListingID:  listing.ID,
		GuestID:    req.GuestID,
		Stay:       stay,
		GuestCount: req.GuestCount,
		TotalPrice: int64(stay.Nights()) * listing.NightlyPrice,
		Now:        now,
	})
	if err != nil {
		return nil, err
	}

	// The repository enforces the no-overlap invariant; a concurrent
	// booking that won the race surfaces here as ErrDateConflict.
	if err := s.Reservations.Create(ctx, res); err != nil {
		return nil, err
	}

	s.publish(ctx, reservation.TopicCreated, string(res.ListingID), reservation.CreatedEvent{
		ReservationID: res.ID,
		ListingID:     res.ListingID,
		GuestID:       res.GuestID,
		CheckIn:       res.Stay.CheckIn,
		CheckOut:      res.Stay.CheckOut,
		GuestCount:    res.GuestCount,
		TotalPrice:    res.TotalPrice,
		At:            now,
	})
	return res, nil
}

// CheckAvailability reports whether the window can be newly reserved.
// Available iff no stored reservation on the listing overlaps the window.
func (s *Service) CheckAvailability(ctx context.Context, listingID listings.ListingID, window daterange.DateRange) (bool, error) {
	overlapping, err := s.Reservations.Overlapping(ctx, listingID, window)
	if err != nil {
		return false, err
	}
	return len(overlapping) == 0, nil
}

// Cancel hard-deletes a reservation. Only the booking guest or the host
// of the reserved listing may cancel.
func (s *Service) Cancel(ctx context.Context, id reservation.ReservationID, callerID string) error {
	res, err := s.Reservations.ByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.mayCancel(ctx, res, callerID) {
		return reservation.ErrNotAllowed
	}
	if err := s.Reservations.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, reservation.TopicCancelled, string(res.ListingID), reservation.CancelledEvent{
		ReservationID: res.ID,
		ListingID:     res.ListingID,
		CancelledBy:   callerID,
		At:            s.now(),
	})
	return nil
}

func (s *Service) mayCancel(ctx context.Context, res *reservation.Reservation, callerID string) bool {
	if callerID == "" {
		return false
	}
	if res.GuestID == callerID {
		return true
	}
	listing, err := s.Listings.ByID(ctx, res.ListingID)
	if err != nil {
		return false
	}
	return string(listing.Host) == callerID
}

func (s *Service) publish(ctx context.Context, topic, key string, event any) {
	if s.Events == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.log().Error("event encode failed", "topic", topic, "error", err)
		return
	}
	if err := s.Events.Publish(ctx, topic, key, payload, nil); err != nil {
		s.log().Warn("event publish failed", "topic", topic, "key", key, "error", err)
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
