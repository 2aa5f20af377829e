package utils

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePhone(t *testing.T) {
	valid := []string{"+15551234567", "15551234567", "+44 20 7946 0958", "(555) 123-4567"}
	for _, p := range valid {
		assert.True(t, ValidatePhone(p), p)
	}
	invalid := []string{"", "+0123", "phone", "+1555123456789012", "555-CALL"}
	for _, p := range invalid {
		assert.False(t, ValidatePhone(p), p)
	}
	assert.Equal(t, "+15551234567", NormalizePhone("+1 (555) 123-4567"))
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("jane@example.com"))
	assert.False(t, ValidateEmail("Jane <jane@example.com>"))
	assert.False(t, ValidateEmail("jane"))
	assert.False(t, ValidateEmail(""))
}

func TestParseDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	day, err := ParseDay("2025-06-10", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 10, 0, 0, 0, 0, loc), day)

	_, err = ParseDay("06/10/2025", loc)
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2025-06-10T14:00:00-04:00")
	require.NoError(t, err)
	assert.True(t, ts.Equal(time.Date(2025, time.June, 10, 18, 0, 0, 0, time.UTC)))

	_, err = ParseTimestamp("2025-06-10 14:00")
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	start := time.Date(2025, time.June, 10, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysBetween(start, start.Add(20*time.Minute)))
	assert.Equal(t, 1, DaysBetween(start, start.Add(time.Hour)))
	assert.Equal(t, 7, DaysBetween(start, start.AddDate(0, 0, 7)))
}
