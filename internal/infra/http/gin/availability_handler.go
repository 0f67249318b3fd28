package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	appavailability "stayaway/internal/app/availability"
	appbooking "stayaway/internal/app/booking"
	"stayaway/internal/domain/availability"
	"stayaway/internal/domain/listings"
	"stayaway/internal/domain/shared/daterange"
)

type AvailabilityHandler struct {
	Query   appavailability.Query
	Booking *appbooking.Service
	Logger  *slog.Logger
}

// Calendar returns the reserved intervals inside the requested window so
// clients can grey out taken days. Omitted bounds default to the next two
// months. When selection_from is given the proposed pick is normalized
// against the same data: a single day grows to one night, and a blocked
// day anywhere in the range rejects it keeping the start.
func (h AvailabilityHandler) Calendar(c *gin.Context) {
	from, ok := optionalDateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := optionalDateQuery(c, "to")
	if !ok {
		return
	}

	reserved, err := h.Query.ReservedRanges(c.Request.Context(), listings.ListingID(c.Param("id")), from, to)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}

	ranges := make([]rangeResponse, 0, len(reserved))
	for _, dr := range reserved {
		ranges = append(ranges, toRangeResponse(dr))
	}
	body := gin.H{"reserved": ranges}

	if c.Query("selection_from") != "" {
		selFrom, ok := requiredDateQuery(c, "selection_from")
		if !ok {
			return
		}
		selTo, ok := optionalDateQuery(c, "selection_to")
		if !ok {
			return
		}
		body["selection"] = h.normalizeSelection(selFrom, selTo, reserved)
	}

	c.JSON(http.StatusOK, body)
}

type selectionResponse struct {
	From   string `json:"from"`
	To     string `json:"to,omitempty"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func (h AvailabilityHandler) normalizeSelection(from, to time.Time, reserved []daterange.DateRange) selectionResponse {
	now := time.Now()
	if h.Query.Now != nil {
		now = h.Query.Now()
	}
	cal := availability.NewCalendar(now, reserved)

	sel, err := cal.NormalizeSelection(from, to)
	resp := selectionResponse{OK: err == nil}
	if !sel.From.IsZero() {
		resp.From = sel.From.Format(dateLayout)
	}
	if !sel.To.IsZero() {
		resp.To = sel.To.Format(dateLayout)
	}
	if err != nil {
		resp.Reason = err.Error()
	}
	return resp
}

// Check answers whether a stay can currently be booked. The answer is
// advisory; booking re-checks inside the write.
func (h AvailabilityHandler) Check(c *gin.Context) {
	checkIn, ok := requiredDateQuery(c, "check_in")
	if !ok {
		return
	}
	checkOut, ok := requiredDateQuery(c, "check_out")
	if !ok {
		return
	}
	window, err := daterange.New(checkIn, checkOut)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}

	available, err := h.Booking.CheckAvailability(c.Request.Context(), listings.ListingID(c.Param("id")), window)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": available})
}

func optionalDateQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := parseDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return time.Time{}, false
	}
	return t, true
}

func requiredDateQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parameter '" + name + "' is required"})
		return time.Time{}, false
	}
	t, err := parseDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return time.Time{}, false
	}
	return t, true
}

var _ AvailabilityHTTP = AvailabilityHandler{}
