package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayaway/internal/domain/listings"
	"stayaway/internal/domain/reservation"
	"stayaway/internal/domain/shared/daterange"
	"stayaway/internal/infra/storage/memory"
)

var testToday = time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

type capturedEvent struct {
	topic   string
	key     string
	payload []byte
}

type captureSink struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (s *captureSink) Publish(_ context.Context, topic string, key string, payload []byte, _ map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, capturedEvent{topic: topic, key: key, payload: payload})
	return nil
}

func newTestService(t *testing.T) (*Service, *memory.ReservationRepository, *captureSink, listings.ListingID) {
	t.Helper()

	listingRepo := memory.NewListingRepository()
	reservationRepo := memory.NewReservationRepository(nil)
	sink := &captureSink{}

	listing, err := listings.New(listings.CreateParams{
		ID:            "listing-1",
		Host:          "host-1",
		Title:         "Cabin by the lake",
		LocationValue: "NO",
		NightlyPrice:  5000,
		RoomCount:     2,
		BathroomCount: 1,
		GuestLimit:    4,
		Now:           testToday,
	})
	require.NoError(t, err)
	require.NoError(t, listingRepo.Save(context.Background(), listing))

	svc := &Service{
		Listings:     listingRepo,
		Reservations: reservationRepo,
		Events:       sink,
		Now:          func() time.Time { return testToday },
	}
	return svc, reservationRepo, sink, listing.ID
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBookComputesTotalPrice(t *testing.T) {
	svc, _, sink, listingID := newTestService(t)

	res, err := svc.Book(context.Background(), BookRequest{
		ListingID:  listingID,
		GuestID:    "guest-1",
		CheckIn:    day(2024, time.May, 10),
		CheckOut:   day(2024, time.May, 12),
		GuestCount: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10000), res.TotalPrice)
	assert.Equal(t, 2, res.Stay.Nights())
	assert.Equal(t, "guest-1", res.GuestID)

	require.Len(t, sink.events, 1)
	assert.Equal(t, reservation.TopicCreated, sink.events[0].topic)
	assert.Equal(t, string(listingID), sink.events[0].key)
}

func TestBookRejectsOverlap(t *testing.T) {
	svc, _, _, listingID := newTestService(t)

	_, err := svc.Book(context.Background(), BookRequest{
		ListingID:  listingID,
		GuestID:    "guest-1",
		CheckIn:    day(2024, time.May, 10),
		CheckOut:   day(2024, time.May, 12),
		GuestCount: 2,
	})
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), BookRequest{
		ListingID:  listingID,
		GuestID:    "guest-2",
		CheckIn:    day(2024, time.May, 11),
		CheckOut:   day(2024, time.May, 13),
		GuestCount: 1,
	})
	assert.ErrorIs(t, err, reservation.ErrDateConflict)
}

func TestBookAllowsBackToBack(t *testing.T) {
	svc, _, _, listingID := newTestService(t)

	_, err := svc.Book(context.Background(), BookRequest{
		ListingID:  listingID,
		GuestID:    "guest-1",
		CheckIn:    day(2024, time.May, 10),
		CheckOut:   day(2024, time.May, 12),
		GuestCount: 2,
	})
	require.NoError(t, err)

	// A new stay starting on the previous checkout day does not overlap.
	_, err = svc.Book(context.Background(), BookRequest{
		ListingID:  listingID,
		GuestID:    "guest-2",
		CheckIn:    day(2024, time.May, 12),
		CheckOut:   day(2024, time.May, 14),
		GuestCount: 1,
	})
	assert.NoError(t, err)
}

func TestBookValidation(t *testing.T) {
	svc, _, _, listingID := newTestService(t)

	cases := []struct {
		name    string
		req     BookRequest
		wantErr error
	}{
		{
			name: "inverted range",
			req: BookRequest{
				ListingID: listingID, GuestID: "g",
				CheckIn: day(2024, time.May, 12), CheckOut: day(2024, time.May, 10),
				GuestCount: 1,
			},
			wantErr: daterange.ErrInvalidRange,
		},
		{
			name: "zero nights",
			req: BookRequest{
				ListingID: listingID, GuestID: "g",
				CheckIn: day(2024, time.May, 10), CheckOut: day(2024, time.May, 10),
				GuestCount: 1,
			},
			wantErr: daterange.ErrInvalidRange,
		},
		{
			name: "check-in before today",
			req: BookRequest{
				ListingID: listingID, GuestID: "g",
				CheckIn: day(2024, time.April, 28), CheckOut: day(2024, time.April, 30),
				GuestCount: 1,
			},
			wantErr: ErrCheckInPast,
		},
		{
			name: "unknown listing",
			req: BookRequest{
				ListingID: "missing", GuestID: "g",
				CheckIn: day(2024, time.May, 10), CheckOut: day(2024, time.May, 12),
				GuestCount: 1,
			},
			wantErr: listings.ErrNotFound,
		},
		{
			name: "zero guests",
			req: BookRequest{
				ListingID: listingID, GuestID: "g",
				CheckIn: day(2024, time.May, 10), CheckOut: day(2024, time.May, 12),
			},
			wantErr: reservation.ErrInvalidGuests,
		},
		{
			name: "over capacity",
			req: BookRequest{
				ListingID: listingID, GuestID: "g",
				CheckIn: day(2024, time.May, 10), CheckOut: day(2024, time.May, 12),
				GuestCount: 5,
			},
			wantErr: reservation.ErrGuestLimitExceeded,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Book(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestBookNormalizesTimeOfDay(t *testing.T) {
	svc, _, _, listingID := newTestService(t)

	res, err := svc.Book(context.Background(), BookRequest{
		ListingID:  listingID,
		GuestID:    "guest-1",
		CheckIn:    time.Date(2024, time.May, 10, 15, 30, 0, 0, time.UTC),
		CheckOut:   time.Date(2024, time.May, 12, 9, 0, 0, 0, time.UTC),
		GuestCount: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.May, 10), res.Stay.CheckIn)
	assert.Equal(t, day(2024, time.May, 12), res.Stay.CheckOut)
}

func TestConcurrentBookingSingleWinner(t *testing.T) {
	svc, _, _, listingID := newTestService(t)

	const attempts = 8
	results := make(chan error, attempts)

	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < attempts; i++ {
		go func() {
			start.Wait()
			_, err := svc.Book(context.Background(), BookRequest{
				ListingID:  listingID,
				GuestID:    "guest",
				CheckIn:    day(2024, time.June, 1),
				CheckOut:   day(2024, time.June, 5),
				GuestCount: 1,
			})
			results <- err
		}()
	}
	start.Done()

	var wins, conflicts int
	for i := 0; i < attempts; i++ {
		if err := <-results; err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, reservation.ErrDateConflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, conflicts)
}

func TestCheckAvailability(t *testing.T) {
	svc, _, _, listingID := newTestService(t)

	_, err := svc.Book(context.Background(), BookRequest{
		ListingID:  listingID,
		GuestID:    "guest-1",
		CheckIn:    day(2024, time.May, 10),
		CheckOut:   day(2024, time.May, 12),
		GuestCount: 1,
	})
	require.NoError(t, err)

	window, err := daterange.New(day(2024, time.May, 11), day(2024, time.May, 13))
	require.NoError(t, err)
	available, err := svc.CheckAvailability(context.Background(), listingID, window)
	require.NoError(t, err)
	assert.False(t, available)

	window, err = daterange.New(day(2024, time.May, 12), day(2024, time.May, 14))
	require.NoError(t, err)
	available, err = svc.CheckAvailability(context.Background(), listingID, window)
	require.NoError(t, err)
	assert.True(t, available)
}

func TestCancelAuthorization(t *testing.T) {
	svc, repo, sink, listingID := newTestService(t)

	res, err := svc.Book(context.Background(), BookRequest{
		ListingID:  listingID,
		GuestID:    "guest-1",
		CheckIn:    day(2024, time.May, 10),
		CheckOut:   day(2024, time.May, 12),
		GuestCount: 1,
	})
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), res.ID, "stranger")
	assert.ErrorIs(t, err, reservation.ErrNotAllowed)

	err = svc.Cancel(context.Background(), res.ID, "guest-1")
	require.NoError(t, err)

	_, err = repo.ByID(context.Background(), res.ID)
	assert.ErrorIs(t, err, reservation.ErrNotFound)

	err = svc.Cancel(context.Background(), res.ID, "guest-1")
	assert.ErrorIs(t, err, reservation.ErrNotFound)

	// created + cancelled
	require.Len(t, sink.events, 2)
	assert.Equal(t, reservation.TopicCancelled, sink.events[1].topic)
}

func TestCancelByHost(t *testing.T) {
	svc, _, _, listingID := newTestService(t)

	res, err := svc.Book(context.Background(), BookRequest{
		ListingID:  listingID,
		GuestID:    "guest-1",
		CheckIn:    day(2024, time.May, 10),
		CheckOut:   day(2024, time.May, 12),
		GuestCount: 1,
	})
	require.NoError(t, err)

	assert.NoError(t, svc.Cancel(context.Background(), res.ID, "host-1"))
}
