package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "stayaway/internal/domain/listings"
	"stayaway/internal/domain/reservation"
	"stayaway/internal/domain/shared/daterange"
)

// ReservationRepository stores reservations with the stay kept in its
// encoded range-literal form plus denormalized endpoint fields for the
// overlap filter. Creation takes a per-listing advisory lock and runs the
// recheck-and-insert inside a session transaction, so two racing bookers
// for the same listing cannot both commit.
type ReservationRepository struct {
	col    *mongo.Collection
	locks  *mongo.Collection
	client *mongo.Client
	logger *slog.Logger
}

// lockTTL bounds how long an orphaned lock document can block a listing
// when a process dies between acquire and release. Mongo reclaims expired
// locks in the background, so waiters recover without operator action.
const lockTTL = 30 * time.Second

// errListingLockBusy reports lock contention that outlasted the wait
// deadline. It is a transient storage condition, not a date conflict;
// the caller may simply retry the booking.
var errListingLockBusy = errors.New("mongo: listing lock wait timed out")

func NewReservationRepository(db *mongo.Database, logger *slog.Logger) *ReservationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	locks := db.Collection("reservation_locks")
	_, _ = locks.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(lockTTL.Seconds())),
	})
	return &ReservationRepository{
		col:    db.Collection("reservations"),
		locks:  locks,
		client: db.Client(),
		logger: logger,
	}
}

type reservationDocument struct {
	ID         string    `bson:"_id"`
	ListingID  string    `bson:"listing_id"`
	GuestID    string    `bson:"user_id"`
	Duration   string    `bson:"duration"`
	CheckIn    time.Time `bson:"check_in"`
	CheckOut   time.Time `bson:"check_out"`
	GuestCount int       `bson:"guest_count"`
	TotalPrice int64     `bson:"total_price"`
	CreatedAt  int64     `bson:"created_at"`
}

type lockDocument struct {
	ID        string    `bson:"_id"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r *ReservationRepository) Create(ctx context.Context, res *reservation.Reservation) error {
	if err := r.acquireListingLock(ctx, string(res.ListingID)); err != nil {
		return err
	}
	defer func() {
		if err := r.releaseListingLock(context.WithoutCancel(ctx), string(res.ListingID)); err != nil {
			r.logger.Warn("reservation lock release failed", "listing_id", res.ListingID, "error", err)
		}
	}()

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo: start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		overlapping, err := r.Overlapping(sessCtx, res.ListingID, res.Stay)
		if err != nil {
			return nil, err
		}
		if len(overlapping) > 0 {
			return nil, reservation.ErrDateConflict
		}
		if _, err := r.col.InsertOne(sessCtx, newReservationDocument(res)); err != nil {
			return nil, fmt.Errorf("mongo: insert reservation: %w", err)
		}
		return nil, nil
	})
	return err
}

func (r *ReservationRepository) ByID(ctx context.Context, id reservation.ReservationID) (*reservation.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservation.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: find reservation: %w", err)
	}
	return r.toReservation(doc)
}

func (r *ReservationRepository) Overlapping(ctx context.Context, listingID domainlistings.ListingID, window daterange.DateRange) ([]*reservation.Reservation, error) {
	filter := bson.M{
		"listing_id": string(listingID),
		"check_in":   bson.M{"$lt": window.CheckOut},
		"check_out":  bson.M{"$gt": window.CheckIn},
	}
	return r.find(ctx, filter)
}

func (r *ReservationRepository) ByGuest(ctx context.Context, guestID string) ([]*reservation.Reservation, error) {
	return r.find(ctx, bson.M{"user_id": guestID})
}

func (r *ReservationRepository) ByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*reservation.Reservation, error) {
	return r.find(ctx, bson.M{"listing_id": string(listingID)})
}

func (r *ReservationRepository) Delete(ctx context.Context, id reservation.ReservationID) error {
	result, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return fmt.Errorf("mongo: delete reservation: %w", err)
	}
	if result.DeletedCount == 0 {
		return reservation.ErrNotFound
	}
	return nil
}

// DeleteByListing supports the listing-deletion cascade.
func (r *ReservationRepository) DeleteByListing(ctx context.Context, listingID domainlistings.ListingID) error {
	if _, err := r.col.DeleteMany(ctx, bson.M{"listing_id": string(listingID)}); err != nil {
		return fmt.Errorf("mongo: cascade reservations: %w", err)
	}
	return nil
}

func (r *ReservationRepository) find(ctx context.Context, filter bson.M) ([]*reservation.Reservation, error) {
	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongo: find reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*reservation.Reservation
	for cursor.Next(ctx) {
		var doc reservationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode reservation: %w", err)
		}
		res, err := r.toReservation(doc)
		if err != nil {
			return nil, err
		}
		result = append(result, res)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo: iterate reservations: %w", err)
	}
	return result, nil
}

// acquireListingLock inserts a lock document whose _id is the listing id.
// A duplicate key means another booking for the listing is in flight.
// A holder that never releases is evicted by the TTL index after lockTTL.
func (r *ReservationRepository) acquireListingLock(ctx context.Context, listingID string) error {
	deadline := time.Now().Add(5 * time.Second)
	for {
		_, err := r.locks.InsertOne(ctx, lockDocument{ID: listingID, CreatedAt: time.Now().UTC()})
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("mongo: acquire listing lock: %w", err)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: listing %s", errListingLockBusy, listingID)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (r *ReservationRepository) releaseListingLock(ctx context.Context, listingID string) error {
	_, err := r.locks.DeleteOne(ctx, bson.M{"_id": listingID})
	return err
}

func newReservationDocument(res *reservation.Reservation) reservationDocument {
	return reservationDocument{
		ID:         string(res.ID),
		ListingID:  string(res.ListingID),
		GuestID:    res.GuestID,
		Duration:   res.Stay.Literal(),
		CheckIn:    res.Stay.CheckIn,
		CheckOut:   res.Stay.CheckOut,
		GuestCount: res.GuestCount,
		TotalPrice: res.TotalPrice,
		CreatedAt:  res.CreatedAt.UnixMilli(),
	}
}

func (r *ReservationRepository) toReservation(doc reservationDocument) (*reservation.Reservation, error) {
	stay, err := daterange.ParseLiteral(doc.Duration)
	if err != nil {
		r.logger.Error("stored stay interval failed to decode", "reservation_id", doc.ID, "duration", doc.Duration, "error", err)
		return nil, fmt.Errorf("%w: reservation %s: %v", reservation.ErrCorruptStay, doc.ID, err)
	}
	return &reservation.Reservation{
		ID:         reservation.ReservationID(doc.ID),
		ListingID:  domainlistings.ListingID(doc.ListingID),
		GuestID:    doc.GuestID,
		Stay:       stay,
		GuestCount: doc.GuestCount,
		TotalPrice: doc.TotalPrice,
		CreatedAt:  time.UnixMilli(doc.CreatedAt).UTC(),
	}, nil
}
