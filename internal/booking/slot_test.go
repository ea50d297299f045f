package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iv(t *testing.T, s string) Interval {
	t.Helper()
	i, err := ParseSlot(s)
	require.NoError(t, err)
	return i
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in        string
		want      string
		canonical string
		wantErr   bool
	}{
		{in: "09:00", want: "09:00", canonical: "09:00:00"},
		{in: "09:30:00", want: "09:30", canonical: "09:30:00"},
		{in: " 23:59 ", want: "23:59", canonical: "23:59:00"},
		{in: "00:00", want: "00:00", canonical: "00:00:00"},
		{in: "9:00", wantErr: true},
		{in: "24:00", wantErr: true},
		{in: "10:60", wantErr: true},
		{in: "10:00:30", wantErr: true},
		{in: "ten", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSlot)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.String())
			assert.Equal(t, tt.canonical, c.Canonical())
		})
	}
}

func TestParseSlot(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "ascii hyphen", in: "09:00-10:00", want: "09:00-10:00"},
		{name: "en dash", in: "09:00–10:00", want: "09:00-10:00"},
		{name: "em dash", in: "09:00—10:00", want: "09:00-10:00"},
		{name: "spaces around dash", in: " 13:00 - 14:30 ", want: "13:00-14:30"},
		{name: "seconds", in: "08:00:00-09:00:00", want: "08:00-09:00"},
		{name: "zero length", in: "10:00-10:00", wantErr: true},
		{name: "inverted", in: "11:00-10:00", wantErr: true},
		{name: "missing end", in: "10:00-", wantErr: true},
		{name: "single time", in: "10:00", wantErr: true},
		{name: "garbage", in: "morning", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSlot(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSlot)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestSlotInputResolve(t *testing.T) {
	tests := []struct {
		name    string
		in      SlotInput
		want    string
		wantErr bool
	}{
		{name: "compound", in: SlotInput{TimeSlot: "09:00-10:00"}, want: "09:00-10:00"},
		{name: "split", in: SlotInput{Start: "09:00", End: "10:00:00"}, want: "09:00-10:00"},
		{name: "both shapes", in: SlotInput{TimeSlot: "09:00-10:00", Start: "09:00"}, wantErr: true},
		{name: "split missing end", in: SlotInput{Start: "09:00"}, wantErr: true},
		{name: "split inverted", in: SlotInput{Start: "10:00", End: "09:00"}, wantErr: true},
		{name: "empty", in: SlotInput{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Resolve()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSlot)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestIntervalOverlaps(t *testing.T) {
	base := iv(t, "09:00-10:00")

	tests := []struct {
		other string
		want  bool
	}{
		{"09:30-10:30", true},
		{"08:30-09:30", true},
		{"09:15-09:45", true},
		{"08:00-11:00", true},
		{"09:00-10:00", true},
		{"10:00-11:00", false},
		{"08:00-09:00", false},
		{"13:00-14:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.other, func(t *testing.T) {
			o := iv(t, tt.other)
			assert.Equal(t, tt.want, base.Overlaps(o))
			assert.Equal(t, tt.want, o.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestClockPgTimeRoundTrip(t *testing.T) {
	c, err := ParseClock("17:45")
	require.NoError(t, err)

	pt := c.PgTime()
	assert.True(t, pt.Valid)
	assert.Equal(t, int64(17*3600+45*60)*1_000_000, pt.Microseconds)
	assert.Equal(t, c, ClockFromPgTime(pt))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-09-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-09-01", d.Format(DateLayout))

	for _, bad := range []string{"", "2025-9-1", "01/09/2025", "2025-02-30"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidInput, "input %q", bad)
	}
}

func TestFreeSlots(t *testing.T) {
	assert.Len(t, StandardGrid, 13)
	assert.Equal(t, "08:00-09:00", StandardGrid[0].String())
	assert.Equal(t, "21:00-22:00", StandardGrid[len(StandardGrid)-1].String())
	for _, g := range StandardGrid {
		assert.NotEqual(t, "12:00-13:00", g.String())
	}

	tests := []struct {
		name   string
		booked []string
		want   int
		absent []string
	}{
		{name: "nothing booked", want: 13},
		{name: "one aligned booking", booked: []string{"09:00-10:00"}, want: 12, absent: []string{"09:00-10:00"}},
		{name: "straddling booking blocks two slots", booked: []string{"09:30-10:30"}, want: 11, absent: []string{"09:00-10:00", "10:00-11:00"}},
		{name: "booking over lunch", booked: []string{"12:00-13:00"}, want: 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var booked []Interval
			for _, b := range tt.booked {
				booked = append(booked, iv(t, b))
			}
			free := FreeSlots(StandardGrid, booked)
			assert.Len(t, free, tt.want)
			for _, f := range free {
				for _, a := range tt.absent {
					assert.NotEqual(t, a, f.String())
				}
			}
		})
	}
}
