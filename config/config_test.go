package config

import (
	"os"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"09:00", 9 * time.Hour, false},
		{" 20:30 ", 20*time.Hour + 30*time.Minute, false},
		{"00:00", 0, false},
		{"24:00", 24 * time.Hour, false},
		{"24:30", 0, true},
		{"9", 0, true},
		{"9:60", 0, true},
		{"ab:00", 0, true},
		{"-1:00", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBusinessHours(t *testing.T) {
	cfg := Config{
		BusinessOpen:   "09:00",
		BusinessClose:  "20:00",
		Timezone:       "America/New_York",
		ClosedWeekdays: []string{"Sunday", "mon"},
	}
	hours, err := cfg.BusinessHours()
	require.NoError(t, err)
	assert.Equal(t, 9*time.Hour, hours.Open)
	assert.Equal(t, 20*time.Hour, hours.Close)
	assert.Equal(t, "America/New_York", hours.Location.String())
	assert.True(t, hours.Closed[time.Sunday])
	assert.True(t, hours.Closed[time.Monday])
	assert.False(t, hours.Closed[time.Tuesday])
}

func TestBusinessHoursErrors(t *testing.T) {
	base := Config{BusinessOpen: "09:00", BusinessClose: "20:00", Timezone: "UTC"}

	bad := base
	bad.Timezone = "Mars/Olympus"
	_, err := bad.BusinessHours()
	assert.ErrorContains(t, err, "TIMEZONE")

	bad = base
	bad.BusinessClose = "08:00"
	_, err = bad.BusinessHours()
	assert.ErrorContains(t, err, "must be after")

	bad = base
	bad.ClosedWeekdays = []string{"someday"}
	_, err = bad.BusinessHours()
	assert.ErrorContains(t, err, "CLOSED_WEEKDAYS")
}

func TestOffsetsSortedLargestFirst(t *testing.T) {
	cfg := Config{ReminderOffsets: []string{"2h", " 30m", "24h", ""}}
	offsets, err := cfg.Offsets()
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{24 * time.Hour, 2 * time.Hour, 30 * time.Minute}, offsets)
}

func TestOffsetsDefaultsAndErrors(t *testing.T) {
	offsets, err := Config{}.Offsets()
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{24 * time.Hour, 2 * time.Hour}, offsets)

	_, err = Config{ReminderOffsets: []string{"-1h"}}.Offsets()
	assert.Error(t, err)
	_, err = Config{ReminderOffsets: []string{"soon"}}.Offsets()
	assert.Error(t, err)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/salonbook")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REMINDER_OFFSETS", "48h,1h")
	t.Setenv("CLOSED_WEEKDAYS", "sun")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.SlotStep)
	assert.Equal(t, []string{"48h", "1h"}, cfg.ReminderOffsets)
	assert.Equal(t, 3, cfg.ReminderMaxAttempts)
	assert.Equal(t, time.Hour, cfg.ReminderGrace)
	assert.True(t, cfg.TwilioValidateWebhook)
	assert.False(t, cfg.EmailLogOnly)
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("DB_URL", "")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("DB_URL")
	os.Unsetenv("JWT_SECRET")
	_, err := Load()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLogger("bogus")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}
