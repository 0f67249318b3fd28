package ginserver

import (
	"fmt"
	"time"

	applistings "stayaway/internal/app/listings"
	"stayaway/internal/domain/listings"
	"stayaway/internal/domain/reservation"
	"stayaway/internal/domain/shared/daterange"
)

const dateLayout = "2006-01-02"

// parseDate accepts plain calendar dates and full RFC 3339 instants;
// either way the result is normalized to a UTC midnight.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return daterange.Day(t), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return daterange.Day(t), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", value)
}

type rangeResponse struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

func toRangeResponse(dr daterange.DateRange) rangeResponse {
	return rangeResponse{
		CheckIn:  dr.CheckIn.UTC().Format(dateLayout),
		CheckOut: dr.CheckOut.UTC().Format(dateLayout),
	}
}

type listingResponse struct {
	ID            string `json:"id"`
	HostID        string `json:"host_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	LocationValue string `json:"location_value"`
	NightlyPrice  int64  `json:"nightly_price"`
	RoomCount     int    `json:"room_count"`
	BathroomCount int    `json:"bathroom_count"`
	GuestLimit    int    `json:"guest_limit"`
	CreatedAt     string `json:"created_at"`
}

func toListingResponse(l *listings.Listing) listingResponse {
	return listingResponse{
		ID:            string(l.ID),
		HostID:        string(l.Host),
		Title:         l.Title,
		Description:   l.Description,
		Category:      l.Category,
		LocationValue: l.LocationValue,
		NightlyPrice:  l.NightlyPrice,
		RoomCount:     l.RoomCount,
		BathroomCount: l.BathroomCount,
		GuestLimit:    l.GuestLimit,
		CreatedAt:     l.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toListingResponses(items []*listings.Listing) []listingResponse {
	out := make([]listingResponse, 0, len(items))
	for _, l := range items {
		out = append(out, toListingResponse(l))
	}
	return out
}

type imageResponse struct {
	ID        string `json:"id"`
	ListingID string `json:"listing_id"`
	URL       string `json:"url"`
	Order     int    `json:"order"`
}

func toImageResponses(items []listings.Image) []imageResponse {
	out := make([]imageResponse, 0, len(items))
	for _, img := range items {
		out = append(out, imageResponse{
			ID:        img.ID,
			ListingID: string(img.ListingID),
			URL:       img.URL,
			Order:     img.Order,
		})
	}
	return out
}

type reservationResponse struct {
	ID         string        `json:"id"`
	ListingID  string        `json:"listing_id"`
	GuestID    string        `json:"guest_id"`
	Stay       rangeResponse `json:"stay"`
	GuestCount int           `json:"guest_count"`
	TotalPrice int64         `json:"total_price"`
	CreatedAt  string        `json:"created_at"`
}

func toReservationResponse(r *reservation.Reservation) reservationResponse {
	return reservationResponse{
		ID:         string(r.ID),
		ListingID:  string(r.ListingID),
		GuestID:    r.GuestID,
		Stay:       toRangeResponse(r.Stay),
		GuestCount: r.GuestCount,
		TotalPrice: r.TotalPrice,
		CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toReservationResponses(items []*reservation.Reservation) []reservationResponse {
	out := make([]reservationResponse, 0, len(items))
	for _, r := range items {
		out = append(out, toReservationResponse(r))
	}
	return out
}

type hostListingResponse struct {
	Listing      listingResponse       `json:"listing"`
	Images       []imageResponse       `json:"images"`
	Reservations []reservationResponse `json:"reservations"`
}

func toHostListingResponses(items []applistings.HostListing) []hostListingResponse {
	out := make([]hostListingResponse, 0, len(items))
	for _, hl := range items {
		out = append(out, hostListingResponse{
			Listing:      toListingResponse(hl.Listing),
			Images:       toImageResponses(hl.Images),
			Reservations: toReservationResponses(hl.Reservations),
		})
	}
	return out
}
