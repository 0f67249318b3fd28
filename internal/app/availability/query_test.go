package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayaway/internal/domain/listings"
	"stayaway/internal/domain/reservation"
	"stayaway/internal/domain/shared/daterange"
	"stayaway/internal/infra/storage/memory"
)

var queryToday = time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC)

func seedReservation(t *testing.T, repo *memory.ReservationRepository, id string, listingID listings.ListingID, in, out time.Time) {
	t.Helper()
	stay, err := daterange.New(in, out)
	require.NoError(t, err)
	res, err := reservation.New(reservation.CreateParams{
		ID:         reservation.ReservationID(id),
		ListingID:  listingID,
		GuestID:    "guest",
		Stay:       stay,
		GuestCount: 1,
		TotalPrice: 1000,
		Now:        queryToday,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), res))
}

func TestReservedRangesDefaultWindow(t *testing.T) {
	repo := memory.NewReservationRepository(nil)
	q := Query{Reservations: repo, Now: func() time.Time { return queryToday }}

	const listingID = listings.ListingID("l1")
	// Inside the two-month horizon.
	seedReservation(t, repo, "r1", listingID,
		time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.July, 5, 0, 0, 0, 0, time.UTC))
	// Beyond it.
	seedReservation(t, repo, "r2", listingID,
		time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.September, 3, 0, 0, 0, 0, time.UTC))

	ranges, err := q.ReservedRanges(context.Background(), listingID, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.Equal(t, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), ranges[0].CheckIn)
}

func TestReservedRangesExplicitWindow(t *testing.T) {
	repo := memory.NewReservationRepository(nil)
	q := Query{Reservations: repo, Now: func() time.Time { return queryToday }}

	const listingID = listings.ListingID("l1")
	seedReservation(t, repo, "r1", listingID,
		time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.July, 5, 0, 0, 0, 0, time.UTC))
	seedReservation(t, repo, "r2", "other-listing",
		time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.July, 5, 0, 0, 0, 0, time.UTC))

	ranges, err := q.ReservedRanges(context.Background(), listingID,
		time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, ranges, 1, "window sharing days with the stay must report it")

	ranges, err = q.ReservedRanges(context.Background(), listingID,
		time.Date(2024, time.July, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, ranges, "a window starting on the checkout day does not overlap")
}

func TestReservedRangesFailClosedOnCorruptInterval(t *testing.T) {
	repo := memory.NewReservationRepository(nil)
	q := Query{Reservations: repo, Now: func() time.Time { return queryToday }}

	const listingID = listings.ListingID("l1")
	seedReservation(t, repo, "r1", listingID,
		time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.July, 5, 0, 0, 0, 0, time.UTC))
	repo.Corrupt("r1", "not-a-range")

	_, err := q.ReservedRanges(context.Background(), listingID, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, reservation.ErrCorruptStay)
}

func TestReservedRangesRejectsInvertedWindow(t *testing.T) {
	repo := memory.NewReservationRepository(nil)
	q := Query{Reservations: repo, Now: func() time.Time { return queryToday }}

	_, err := q.ReservedRanges(context.Background(), "l1",
		time.Date(2024, time.July, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}
