package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainlistings "stayaway/internal/domain/listings"
	"stayaway/internal/domain/reservation"
	"stayaway/internal/domain/shared/daterange"
)

var seedTime = time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

func seedListing(t *testing.T, repo *ListingRepository, id, host string, price int64) *domainlistings.Listing {
	t.Helper()
	listing, err := domainlistings.New(domainlistings.CreateParams{
		ID:            domainlistings.ListingID(id),
		Host:          domainlistings.HostID(host),
		Title:         "Listing " + id,
		LocationValue: "NO",
		NightlyPrice:  price,
		RoomCount:     2,
		BathroomCount: 1,
		GuestLimit:    4,
		Now:           seedTime,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), listing))
	return listing
}

func mustReservation(t *testing.T, id, listingID string, in, out time.Time) *reservation.Reservation {
	t.Helper()
	stay, err := daterange.New(in, out)
	require.NoError(t, err)
	res, err := reservation.New(reservation.CreateParams{
		ID:         reservation.ReservationID(id),
		ListingID:  domainlistings.ListingID(listingID),
		GuestID:    "guest",
		Stay:       stay,
		GuestCount: 2,
		TotalPrice: 100,
		Now:        seedTime,
	})
	require.NoError(t, err)
	return res
}

func TestReservationCreateRejectsOverlap(t *testing.T) {
	repo := NewReservationRepository(nil)
	ctx := context.Background()

	res := mustReservation(t, "r1", "l1",
		time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.July, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, res))

	overlap := mustReservation(t, "r2", "l1",
		time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.July, 6, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, repo.Create(ctx, overlap), reservation.ErrDateConflict)

	// Same dates on another listing are unrelated.
	other := mustReservation(t, "r3", "l2",
		time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.July, 6, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, repo.Create(ctx, other))
}

func TestReservationRoundTripKeepsStay(t *testing.T) {
	repo := NewReservationRepository(nil)
	ctx := context.Background()

	in := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	out := time.Date(2024, time.July, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, mustReservation(t, "r1", "l1", in, out)))

	got, err := repo.ByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, in, got.Stay.CheckIn)
	assert.Equal(t, out, got.Stay.CheckOut)
	assert.Equal(t, int64(100), got.TotalPrice)
}

func TestReservationReadFailsClosedOnCorruptRecord(t *testing.T) {
	repo := NewReservationRepository(nil)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, mustReservation(t, "r1", "l1",
		time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.July, 5, 0, 0, 0, 0, time.UTC))))
	repo.Corrupt("r1", "[garbage")

	_, err := repo.ByID(ctx, "r1")
	assert.ErrorIs(t, err, reservation.ErrCorruptStay)

	window, err := daterange.New(
		time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = repo.Overlapping(ctx, "l1", window)
	assert.ErrorIs(t, err, reservation.ErrCorruptStay)
}

func TestListingDeleteCascades(t *testing.T) {
	listingRepo := NewListingRepository()
	imageRepo := NewImageRepository()
	reservationRepo := NewReservationRepository(nil)
	listingRepo.OnDelete(imageRepo.DeleteByListing)
	listingRepo.OnDelete(reservationRepo.DeleteByListing)

	ctx := context.Background()
	listing := seedListing(t, listingRepo, "l1", "host-1", 5000)

	require.NoError(t, imageRepo.Save(ctx, domainlistings.Image{
		ID: "img-1", ListingID: listing.ID, URL: "memory://img-1", Order: 0, CreatedAt: seedTime,
	}))
	require.NoError(t, reservationRepo.Create(ctx, mustReservation(t, "r1", "l1",
		time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.July, 5, 0, 0, 0, 0, time.UTC))))

	require.NoError(t, listingRepo.Delete(ctx, listing.ID))

	_, err := listingRepo.ByID(ctx, listing.ID)
	assert.ErrorIs(t, err, domainlistings.ErrNotFound)

	images, err := imageRepo.ByListing(ctx, listing.ID)
	require.NoError(t, err)
	assert.Empty(t, images)

	remaining, err := reservationRepo.ByListing(ctx, listing.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestListingSearchFilters(t *testing.T) {
	repo := NewListingRepository()
	ctx := context.Background()

	cheap := seedListing(t, repo, "l1", "host-1", 3000)
	seedListing(t, repo, "l2", "host-2", 9000)

	found, err := repo.Search(ctx, domainlistings.SearchParams{MaxPrice: 5000})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, cheap.ID, found[0].ID)

	found, err = repo.Search(ctx, domainlistings.SearchParams{Host: "host-2"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, domainlistings.ListingID("l2"), found[0].ID)

	found, err = repo.Search(ctx, domainlistings.SearchParams{})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestImageReorderChecksOwnership(t *testing.T) {
	repo := NewImageRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, domainlistings.Image{ID: "a", ListingID: "l1", Order: 0}))
	require.NoError(t, repo.Save(ctx, domainlistings.Image{ID: "b", ListingID: "l1", Order: 1}))
	require.NoError(t, repo.Save(ctx, domainlistings.Image{ID: "c", ListingID: "l2", Order: 0}))

	require.NoError(t, repo.Reorder(ctx, "l1", map[string]int{"a": 1, "b": 0}))
	images, err := repo.ByListing(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "b", images[0].ID)

	// Reordering an image through a listing that does not own it fails.
	assert.ErrorIs(t, repo.Reorder(ctx, "l1", map[string]int{"c": 5}), domainlistings.ErrNotFound)
}
