package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/hogwarts/facility-booking/internal/pkg/apperror"
)

const DateLayout = "2006-01-02"

const minutesPerDay = 24 * 60

var (
	clockPattern = regexp.MustCompile(`^(\d{2}):(\d{2})(?::(\d{2}))?$`)
	slotPattern  = regexp.MustCompile(`^\s*(\d{2}:\d{2}(?::\d{2})?)\s*-\s*(\d{2}:\d{2}(?::\d{2})?)\s*$`)
	dashReplacer = strings.NewReplacer("–", "-", "—", "-")
)

// Clock is a wall-clock time of day with minute resolution, stored as
// minutes since midnight.
type Clock int

// ParseClock accepts "HH:MM" or "HH:MM:SS". Seconds, when present, must be 00.
func ParseClock(s string) (Clock, error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, invalidSlot("malformed time %q", s)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if h > 23 || mm > 59 {
		return 0, invalidSlot("time %q out of range", s)
	}
	if m[3] != "" && m[3] != "00" {
		return 0, invalidSlot("time %q must fall on a whole minute", s)
	}
	return Clock(h*60 + mm), nil
}

// String renders "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Canonical renders the normalised "HH:MM:00" form.
func (c Clock) Canonical() string {
	return c.String() + ":00"
}

func (c Clock) PgTime() pgtype.Time {
	return pgtype.Time{Microseconds: int64(c) * int64(time.Minute/time.Microsecond), Valid: true}
}

func ClockFromPgTime(t pgtype.Time) Clock {
	return Clock(t.Microseconds / int64(time.Minute/time.Microsecond))
}

// Interval is the half-open range [Start, End) within one day.
type Interval struct {
	Start Clock
	End   Clock
}

// NewInterval rejects zero-length and inverted ranges.
func NewInterval(start, end Clock) (Interval, error) {
	if start < 0 || end > minutesPerDay || start >= end {
		return Interval{}, invalidSlot("start %s must be before end %s", start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether the two half-open ranges share any instant.
// Touching ranges such as 09:00-10:00 and 10:00-11:00 do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return !(i.End <= o.Start || i.Start >= o.End)
}

// String renders "HH:MM-HH:MM".
func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}

// ParseSlot parses a compound "HH:MM-HH:MM" slot. En and em dashes are
// accepted as separators and whitespace around the parts is ignored.
func ParseSlot(s string) (Interval, error) {
	m := slotPattern.FindStringSubmatch(dashReplacer.Replace(s))
	if m == nil {
		return Interval{}, invalidSlot("malformed slot %q", s)
	}
	start, err := ParseClock(m[1])
	if err != nil {
		return Interval{}, err
	}
	end, err := ParseClock(m[2])
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(start, end)
}

// SlotInput carries the two accepted request shapes: a compound TimeSlot, or
// separate Start and End. Exactly one shape must be used.
type SlotInput struct {
	TimeSlot string
	Start    string
	End      string
}

// Resolve turns the input into a validated interval.
func (in SlotInput) Resolve() (Interval, error) {
	hasCompound := strings.TrimSpace(in.TimeSlot) != ""
	hasSplit := strings.TrimSpace(in.Start) != "" || strings.TrimSpace(in.End) != ""

	switch {
	case hasCompound && hasSplit:
		return Interval{}, invalidSlot("use either timeSlot or startTime/endTime, not both")
	case hasCompound:
		return ParseSlot(in.TimeSlot)
	case hasSplit:
		start, err := ParseClock(in.Start)
		if err != nil {
			return Interval{}, err
		}
		end, err := ParseClock(in.End)
		if err != nil {
			return Interval{}, err
		}
		return NewInterval(start, end)
	default:
		return Interval{}, invalidSlot("time slot is required")
	}
}

// ParseDate parses a strict YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperror.Wrap(err, ErrInvalidInput.Code, ErrInvalidInput.Message)
	}
	return d, nil
}

func invalidSlot(format string, args ...any) error {
	return apperror.Wrap(fmt.Errorf(format, args...), ErrInvalidSlot.Code, ErrInvalidSlot.Message)
}
