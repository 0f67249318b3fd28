package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	appbooking "stayaway/internal/app/booking"
	"stayaway/internal/domain/listings"
	"stayaway/internal/domain/reservation"
)

type ReservationHandler struct {
	Booking      *appbooking.Service
	Reservations reservation.Repository
	Logger       *slog.Logger
	Now          func() time.Time
}

type createReservationRequest struct {
	ListingID  string `json:"listing_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	GuestCount int    `json:"guest_count"`
}

func (h ReservationHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkOut, err := parseDate(req.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.Booking.Book(c.Request.Context(), appbooking.BookRequest{
		ListingID:  listings.ListingID(req.ListingID),
		GuestID:    user.ID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		GuestCount: req.GuestCount,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, toReservationResponse(res))
}

func (h ReservationHandler) Cancel(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	err := h.Booking.Cancel(c.Request.Context(), reservation.ReservationID(c.Param("id")), user.ID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMine returns the caller's reservations split into upcoming and past
// stays relative to the current day.
func (h ReservationHandler) ListMine(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	all, err := h.Reservations.ByGuest(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}

	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	upcoming := make([]reservationResponse, 0, len(all))
	past := make([]reservationResponse, 0)
	for _, res := range all {
		if res.Upcoming(now) {
			upcoming = append(upcoming, toReservationResponse(res))
		} else {
			past = append(past, toReservationResponse(res))
		}
	}
	c.JSON(http.StatusOK, gin.H{"upcoming": upcoming, "past": past})
}

var _ ReservationHTTP = ReservationHandler{}
