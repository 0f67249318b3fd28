package availability

import (
	"context"
	"time"

	"stayaway/internal/domain/listings"
	"stayaway/internal/domain/reservation"
	"stayaway/internal/domain/shared/daterange"
)

// DefaultHorizonMonths bounds the calendar window when the caller gives
// none. The listing page seeds its calendar with the next two months.
const DefaultHorizonMonths = 2

// Query returns reserved intervals for a listing inside a window.
type Query struct {
	Reservations reservation.Repository
	Now          func() time.Time
}

// ReservedRanges returns every reservation interval overlapping
// [from, to), normalized to plain calendar dates. Zero bounds fall back
// to the default horizon. A stored interval that cannot be decoded aborts
// the whole query: silently dropping a reservation would let the calendar
// offer days the conflict checker will refuse.
func (q Query) ReservedRanges(ctx context.Context, listingID listings.ListingID, from, to time.Time) ([]daterange.DateRange, error) {
	window, err := q.window(from, to)
	if err != nil {
		return nil, err
	}

	overlapping, err := q.Reservations.Overlapping(ctx, listingID, window)
	if err != nil {
		return nil, err
	}

	ranges := make([]daterange.DateRange, 0, len(overlapping))
	for _, res := range overlapping {
		ranges = append(ranges, res.Stay.Truncate())
	}
	return ranges, nil
}

func (q Query) window(from, to time.Time) (daterange.DateRange, error) {
	now := time.Now
	if q.Now != nil {
		now = q.Now
	}
	if from.IsZero() {
		from = daterange.Day(now())
	}
	if to.IsZero() {
		to = daterange.Day(from).AddDate(0, DefaultHorizonMonths, 0)
	}
	return daterange.New(from, to)
}
