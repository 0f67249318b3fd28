package reservation

import (
	"time"

	"stayaway/internal/domain/listings"
)

const (
	TopicCreated   = "reservation.created"
	TopicCancelled = "reservation.cancelled"
)

type CreatedEvent struct {
	ReservationID ReservationID      `json:"reservation_id"`
	ListingID     listings.ListingID `json:"listing_id"`
	GuestID       string             `json:"guest_id"`
	CheckIn       time.Time          `json:"check_in"`
	CheckOut      time.Time          `json:"check_out"`
	GuestCount    int                `json:"guest_count"`
	TotalPrice    int64              `json:"total_price"`
	At            time.Time          `json:"at"`
}

type CancelledEvent struct {
	ReservationID ReservationID      `json:"reservation_id"`
	ListingID     listings.ListingID `json:"listing_id"`
	CancelledBy   string             `json:"cancelled_by"`
	At            time.Time          `json:"at"`
}
