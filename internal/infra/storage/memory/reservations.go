package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	domainlistings "stayaway/internal/domain/listings"
	"stayaway/internal/domain/reservation"
	"stayaway/internal/domain/shared/daterange"
)

// reservationRecord is the persisted shape: the stay is kept in its
// encoded range-literal form, decoded on every read.
type reservationRecord struct {
	ID         string
	ListingID  string
	GuestID    string
	Duration   string
	GuestCount int
	TotalPrice int64
	CreatedAt  int64
}

// ReservationRepository is an in-memory store. A per-listing mutex makes
// the overlap check and the insert a single atomic step, which is this
// backend's version of the storage-level exclusion guarantee.
type ReservationRepository struct {
	mu       sync.RWMutex
	items    map[string]reservationRecord
	listings map[string]*sync.Mutex
	logger   *slog.Logger
}

func NewReservationRepository(logger *slog.Logger) *ReservationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationRepository{
		items:    make(map[string]reservationRecord),
		listings: make(map[string]*sync.Mutex),
		logger:   logger,
	}
}

func (r *ReservationRepository) Create(ctx context.Context, res *reservation.Reservation) error {
	lock := r.listingLock(string(res.ListingID))
	lock.Lock()
	defer lock.Unlock()

	overlapping, err := r.Overlapping(ctx, res.ListingID, res.Stay)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return reservation.ErrDateConflict
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[string(res.ID)] = newRecord(res)
	return nil
}

func (r *ReservationRepository) ByID(ctx context.Context, id reservation.ReservationID) (*reservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.items[string(id)]
	if !ok {
		return nil, reservation.ErrNotFound
	}
	return r.toReservation(rec)
}

func (r *ReservationRepository) Overlapping(ctx context.Context, listingID domainlistings.ListingID, window daterange.DateRange) ([]*reservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*reservation.Reservation
	for _, rec := range r.items {
		if rec.ListingID != string(listingID) {
			continue
		}
		res, err := r.toReservation(rec)
		if err != nil {
			return nil, err
		}
		if res.Stay.Overlaps(window) {
			result = append(result, res)
		}
	}
	return result, nil
}

func (r *ReservationRepository) ByGuest(ctx context.Context, guestID string) ([]*reservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*reservation.Reservation
	for _, rec := range r.items {
		if rec.GuestID != guestID {
			continue
		}
		res, err := r.toReservation(rec)
		if err != nil {
			return nil, err
		}
		result = append(result, res)
	}
	return result, nil
}

func (r *ReservationRepository) ByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*reservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*reservation.Reservation
	for _, rec := range r.items {
		if rec.ListingID != string(listingID) {
			continue
		}
		res, err := r.toReservation(rec)
		if err != nil {
			return nil, err
		}
		result = append(result, res)
	}
	return result, nil
}

func (r *ReservationRepository) Delete(ctx context.Context, id reservation.ReservationID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[string(id)]; !ok {
		return reservation.ErrNotFound
	}
	delete(r.items, string(id))
	return nil
}

// DeleteByListing supports the listing-deletion cascade.
func (r *ReservationRepository) DeleteByListing(ctx context.Context, listingID domainlistings.ListingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rec := range r.items {
		if rec.ListingID == string(listingID) {
			delete(r.items, id)
		}
	}
	return nil
}

// Corrupt overwrites a stored duration, for exercising fail-closed reads
// in tests.
func (r *ReservationRepository) Corrupt(id reservation.ReservationID, raw string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.items[string(id)]
	if !ok {
		return
	}
	rec.Duration = raw
	r.items[string(id)] = rec
}

func (r *ReservationRepository) listingLock(listingID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.listings[listingID]
	if !ok {
		lock = &sync.Mutex{}
		r.listings[listingID] = lock
	}
	return lock
}

func newRecord(res *reservation.Reservation) reservationRecord {
	return reservationRecord{
		ID:         string(res.ID),
		ListingID:  string(res.ListingID),
		GuestID:    res.GuestID,
		Duration:   res.Stay.Literal(),
		GuestCount: res.GuestCount,
		TotalPrice: res.TotalPrice,
		CreatedAt:  res.CreatedAt.UnixMilli(),
	}
}

func (r *ReservationRepository) toReservation(rec reservationRecord) (*reservation.Reservation, error) {
	stay, err := daterange.ParseLiteral(rec.Duration)
	if err != nil {
		r.logger.Error("stored stay interval failed to decode", "reservation_id", rec.ID, "duration", rec.Duration, "error", err)
		return nil, fmt.Errorf("%w: reservation %s: %v", reservation.ErrCorruptStay, rec.ID, err)
	}
	return &reservation.Reservation{
		ID:         reservation.ReservationID(rec.ID),
		ListingID:  domainlistings.ListingID(rec.ListingID),
		GuestID:    rec.GuestID,
		Stay:       stay,
		GuestCount: rec.GuestCount,
		TotalPrice: rec.TotalPrice,
		CreatedAt:  millisToTime(rec.CreatedAt),
	}, nil
}
