package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"stayaway/internal/domain/listings"
	"stayaway/internal/domain/reservation"
	"stayaway/internal/domain/shared/daterange"
)

// exclusionViolation is the SQLSTATE raised when an insert collides with
// the reservations_no_overlap constraint.
const exclusionViolation = "23P01"

// reservationColumns casts the range column to text so rows scan into the
// same literal form every backend stores.
const reservationColumns = "id, listing_id, user_id, duration::text AS duration, guest_count, total_price, created_at"

type ReservationRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewReservationRepository(db *gorm.DB, logger *slog.Logger) *ReservationRepository {
	return &ReservationRepository{db: db, logger: logger}
}

// Create inserts the reservation and lets the database arbitrate
// concurrent attempts: the gist exclusion constraint admits at most one
// overlapping stay per listing, so every loser of a race gets
// ErrDateConflict regardless of what it read beforehand.
func (r *ReservationRepository) Create(ctx context.Context, res *reservation.Reservation) error {
	row := toReservationRow(res)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
			return reservation.ErrDateConflict
		}
		return fmt.Errorf("postgres: create reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) ByID(ctx context.Context, id reservation.ReservationID) (*reservation.Reservation, error) {
	var row reservationRow
	err := r.db.WithContext(ctx).
		Select(reservationColumns).
		Where("id = ?", string(id)).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, reservation.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: reservation by id: %w", err)
	}
	return r.toReservation(&row)
}

func (r *ReservationRepository) Overlapping(ctx context.Context, listingID listings.ListingID, window daterange.DateRange) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	err := r.db.WithContext(ctx).
		Select(reservationColumns).
		Where("listing_id = ? AND duration && tstzrange(?, ?, '[)')",
			string(listingID), window.CheckIn.UTC(), window.CheckOut.UTC()).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: overlapping reservations: %w", err)
	}
	return r.toReservations(rows)
}

func (r *ReservationRepository) ByGuest(ctx context.Context, guestID string) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	err := r.db.WithContext(ctx).
		Select(reservationColumns).
		Where("user_id = ?", guestID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: reservations by guest: %w", err)
	}
	return r.toReservations(rows)
}

func (r *ReservationRepository) ByListing(ctx context.Context, listingID listings.ListingID) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	err := r.db.WithContext(ctx).
		Select(reservationColumns).
		Where("listing_id = ?", string(listingID)).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: reservations by listing: %w", err)
	}
	return r.toReservations(rows)
}

func (r *ReservationRepository) Delete(ctx context.Context, id reservation.ReservationID) error {
	result := r.db.WithContext(ctx).Where("id = ?", string(id)).Delete(&reservationRow{})
	if result.Error != nil {
		return fmt.Errorf("postgres: delete reservation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return reservation.ErrNotFound
	}
	return nil
}

func toReservationRow(res *reservation.Reservation) reservationRow {
	return reservationRow{
		ID:         string(res.ID),
		ListingID:  string(res.ListingID),
		UserID:     res.GuestID,
		Duration:   res.Stay.Literal(),
		GuestCount: res.GuestCount,
		TotalPrice: res.TotalPrice,
		CreatedAt:  res.CreatedAt.UTC(),
	}
}

func (r *ReservationRepository) toReservations(rows []reservationRow) ([]*reservation.Reservation, error) {
	out := make([]*reservation.Reservation, 0, len(rows))
	for i := range rows {
		res, err := r.toReservation(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *ReservationRepository) toReservation(row *reservationRow) (*reservation.Reservation, error) {
	stay, err := daterange.ParseLiteral(row.Duration)
	if err != nil {
		r.logger.Error("undecodable stay interval",
			slog.String("reservation_id", row.ID),
			slog.String("duration", row.Duration),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: reservation %s: %v", reservation.ErrCorruptStay, row.ID, err)
	}
	return &reservation.Reservation{
		ID:         reservation.ReservationID(row.ID),
		ListingID:  listings.ListingID(row.ListingID),
		GuestID:    row.UserID,
		Stay:       stay,
		GuestCount: row.GuestCount,
		TotalPrice: row.TotalPrice,
		CreatedAt:  row.CreatedAt.UTC(),
	}, nil
}

var _ reservation.Repository = (*ReservationRepository)(nil)
