package mongo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"stayaway/internal/domain/reservation"
)

func TestListingLockTimeoutIsTransient(t *testing.T) {
	err := fmt.Errorf("%w: listing listing-1", errListingLockBusy)

	assert.ErrorIs(t, err, errListingLockBusy)
	// Contention on the per-listing lock says nothing about the dates.
	// It must never surface as the permanent conflict answer, which
	// clients treat as "pick different dates" rather than "try again".
	assert.False(t, errors.Is(err, reservation.ErrDateConflict))
}
