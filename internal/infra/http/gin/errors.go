package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	appbooking "stayaway/internal/app/booking"
	applistings "stayaway/internal/app/listings"
	"stayaway/internal/domain/availability"
	"stayaway/internal/domain/listings"
	"stayaway/internal/domain/reservation"
	"stayaway/internal/domain/shared/daterange"
)

// writeError translates domain sentinels into HTTP responses. Anything
// unrecognized is a storage or programming fault: log it, answer 500 and
// keep the detail out of the body.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, listings.ErrNotFound), errors.Is(err, reservation.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, reservation.ErrDateConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "dates are no longer available"})
	case errors.Is(err, reservation.ErrNotAllowed), errors.Is(err, applistings.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
	case isValidation(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		if logger != nil {
			logger.Error("request failed", "error", err, "path", c.FullPath())
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func isValidation(err error) bool {
	for _, sentinel := range []error{
		daterange.ErrInvalidRange,
		appbooking.ErrCheckInPast,
		reservation.ErrInvalidGuests,
		reservation.ErrGuestLimitExceeded,
		reservation.ErrGuestRequired,
		availability.ErrStartUnavailable,
		availability.ErrRangeUnavailable,
		listings.ErrTitleRequired,
		listings.ErrHostRequired,
		listings.ErrNightlyPrice,
		listings.ErrGuestLimit,
		listings.ErrRoomCount,
		listings.ErrBathroomCount,
		listings.ErrLocationRequired,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
