package facility

import (
	"net/http"
	"time"

	"github.com/hogwarts/facility-booking/internal/pkg/apperror"
)

var (
	ErrNotFound  = apperror.New(http.StatusNotFound, "facility not found")
	ErrEmptyName = apperror.New(http.StatusBadRequest, "facility name cannot be empty")
	ErrEmptyRef  = apperror.New(http.StatusBadRequest, "facility is required")
	ErrNameTaken = apperror.New(http.StatusConflict, "facility name already exists")
)

// Facility is a bookable physical place (court, pool, classroom).
type Facility struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// DefaultNames are the facilities seeded on a fresh install.
var DefaultNames = []string{
	"Badminton Court",
	"Swimming Pool",
	"Gym",
	"Classroom 1",
	"Classroom 2",
	"Classroom 3",
	"Classroom 4",
}

// DefaultAliases maps shorthand keys to facility names. Keys are normalised
// with NormalizeKey before use.
var DefaultAliases = map[string]string{
	"badminton":  "Badminton Court",
	"swimming":   "Swimming Pool",
	"pool":       "Swimming Pool",
	"gym":        "Gym",
	"classroomA": "Classroom 1",
	"classroomB": "Classroom 2",
	"classroomC": "Classroom 3",
	"classroomD": "Classroom 4",
	"classroom1": "Classroom 1",
	"classroom2": "Classroom 2",
	"classroom3": "Classroom 3",
	"classroom4": "Classroom 4",
}
