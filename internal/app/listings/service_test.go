package listings

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainlistings "stayaway/internal/domain/listings"
	"stayaway/internal/domain/reservation"
	"stayaway/internal/domain/shared/daterange"
	"stayaway/internal/infra/storage/memory"
)

var serviceNow = time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

func newListingService(t *testing.T) (*Service, *memory.BlobStore) {
	t.Helper()

	listingRepo := memory.NewListingRepository()
	imageRepo := memory.NewImageRepository()
	reservationRepo := memory.NewReservationRepository(nil)
	listingRepo.OnDelete(imageRepo.DeleteByListing)
	listingRepo.OnDelete(reservationRepo.DeleteByListing)
	blobs := memory.NewBlobStore()

	return &Service{
		Listings:     listingRepo,
		Images:       imageRepo,
		Reservations: reservationRepo,
		Blobs:        blobs,
		Now:          func() time.Time { return serviceNow },
	}, blobs
}

func validRequest() ListingRequest {
	return ListingRequest{
		Title:         "Quiet loft",
		Description:   "Near the harbor",
		Category:      "apartment",
		LocationValue: "PT",
		NightlyPrice:  4200,
		RoomCount:     1,
		BathroomCount: 1,
		GuestLimit:    2,
	}
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newListingService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "host-1", validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domainlistings.HostID("host-1"), created.Host)

	got, images, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)
	assert.Empty(t, images)
}

func TestCreateValidates(t *testing.T) {
	svc, _ := newListingService(t)

	req := validRequest()
	req.Title = "  "
	_, err := svc.Create(context.Background(), "host-1", req)
	assert.ErrorIs(t, err, domainlistings.ErrTitleRequired)

	req = validRequest()
	req.NightlyPrice = 0
	_, err = svc.Create(context.Background(), "host-1", req)
	assert.ErrorIs(t, err, domainlistings.ErrNightlyPrice)
}

func TestUpdateRequiresOwnership(t *testing.T) {
	svc, _ := newListingService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "host-1", validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.Title = "Renamed"
	_, err = svc.Update(ctx, created.ID, "host-2", req)
	assert.ErrorIs(t, err, ErrNotOwner)

	updated, err := svc.Update(ctx, created.ID, "host-1", req)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestAttachAndRemoveImage(t *testing.T) {
	svc, blobs := newListingService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "host-1", validRequest())
	require.NoError(t, err)

	image, err := svc.AttachImage(ctx, created.ID, "host-1", bytes.NewBufferString("jpeg bytes"), "image/jpeg", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(image.URL, "memory://"), "got %q", image.URL)

	_, stored := blobs.Get("listings/" + string(created.ID) + "/" + image.ID)
	assert.True(t, stored)

	_, imgs, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, imgs, 1)

	require.NoError(t, svc.RemoveImage(ctx, image.ID, "host-1"))
	_, stored = blobs.Get("listings/" + string(created.ID) + "/" + image.ID)
	assert.False(t, stored)
}

func TestAttachImageRequiresOwnership(t *testing.T) {
	svc, _ := newListingService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "host-1", validRequest())
	require.NoError(t, err)

	_, err = svc.AttachImage(ctx, created.ID, "host-2", bytes.NewBufferString("x"), "image/png", 0)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestDeleteCleansUp(t *testing.T) {
	svc, blobs := newListingService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "host-1", validRequest())
	require.NoError(t, err)
	image, err := svc.AttachImage(ctx, created.ID, "host-1", bytes.NewBufferString("x"), "image/png", 0)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID, "host-2"), ErrNotOwner)
	require.NoError(t, svc.Delete(ctx, created.ID, "host-1"))

	_, _, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domainlistings.ErrNotFound)
	_, stored := blobs.Get("listings/" + string(created.ID) + "/" + image.ID)
	assert.False(t, stored)
}

func TestHostListingsBundlesReservations(t *testing.T) {
	svc, _ := newListingService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "host-1", validRequest())
	require.NoError(t, err)
	_, err = svc.Create(ctx, "host-2", validRequest())
	require.NoError(t, err)

	stay, err := daterange.New(
		time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	res, err := reservation.New(reservation.CreateParams{
		ID:         "r1",
		ListingID:  created.ID,
		GuestID:    "guest",
		Stay:       stay,
		GuestCount: 2,
		TotalPrice: 12600,
		Now:        serviceNow,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Reservations.Create(ctx, res))

	bundles, err := svc.HostListings(ctx, "host-1")
	require.NoError(t, err)
	require.Len(t, bundles, 1)
	assert.Equal(t, created.ID, bundles[0].Listing.ID)
	require.Len(t, bundles[0].Reservations, 1)
	assert.Equal(t, reservation.ReservationID("r1"), bundles[0].Reservations[0].ID)
}
