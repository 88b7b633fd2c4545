package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, Date{2024, time.June, 3}, d)
	assert.Equal(t, "2024-06-03", d.String())
	assert.Equal(t, time.Monday, d.Weekday())

	for _, bad := range []string{"", "2024-6-3", "03-06-2024", "2024-13-01", "2024-02-30", "yesterday"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, "input %q", bad)
	}
}

func TestDateNextRollover(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2024-06-03", "2024-06-04"},
		{"2024-06-30", "2024-07-01"},
		{"2024-12-31", "2025-01-01"},
		{"2024-02-28", "2024-02-29"}, // leap year
		{"2023-02-28", "2023-03-01"},
	}
	for _, tt := range tests {
		d, err := ParseDate(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, d.Next().String())
	}
}

func TestMonthWindow(t *testing.T) {
	w, err := MonthWindow("2024-06")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", w.Start.String())
	assert.Equal(t, "2024-06-30", w.End.String())

	w, err = MonthWindow("2024-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", w.End.String())

	_, err = MonthWindow("2024-6")
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestClockFixedOffset(t *testing.T) {
	// 2024-06-03 21:00 UTC + 330 minutes = 2024-06-04 02:30 shifted.
	wall := func() time.Time { return time.Date(2024, time.June, 3, 21, 0, 0, 0, time.UTC) }
	c := NewClockAt(330, wall)
	assert.Equal(t, "2024-06-04", c.Today().String())

	// Negative offsets shift the other way.
	c = NewClockAt(-300, func() time.Time { return time.Date(2024, time.June, 3, 2, 0, 0, 0, time.UTC) })
	assert.Equal(t, "2024-06-02", c.Today().String())
}
