package booking

import (
	"net/http"
	"time"

	"github.com/hogwarts/facility-booking/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "booking not found")
	ErrFacilityNotFound = apperror.New(http.StatusNotFound, "facility not found")
	ErrUserNotFound     = apperror.New(http.StatusNotFound, "user not found")
	ErrSlotConflict     = apperror.New(http.StatusConflict, "time slot already booked")
	ErrInvalidSlot      = apperror.New(http.StatusBadRequest, "invalid time slot")
	ErrInvalidInput     = apperror.New(http.StatusBadRequest, "invalid input parameters")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "permission denied")
)

// Booking is a confirmed reservation of one facility for one interval on one day.
// A booking either exists or it does not; cancelling deletes it.
type Booking struct {
	ID              int64
	FacilityID      int64
	FacilityName    string
	OwnerID         int64
	OwnerHogwartsID string
	Date            time.Time // midnight UTC
	Slot            Interval
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FacilityCount is one row of the per-facility booking statistics.
type FacilityCount struct {
	FacilityID   int64
	FacilityName string
	Count        int
}
