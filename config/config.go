package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from .env and the environment.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	DBURL    string `envconfig:"DB_URL" required:"true"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	JWTSecret      string `envconfig:"JWT_SECRET" required:"true"`
	JWTExpiryHours int    `envconfig:"JWT_EXPIRY_HOURS" default:"24"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`

	// Business hours are a fixed daily window in Timezone.
	BusinessOpen   string        `envconfig:"BUSINESS_OPEN" default:"09:00"`
	BusinessClose  string        `envconfig:"BUSINESS_CLOSE" default:"20:00"`
	Timezone       string        `envconfig:"TIMEZONE" default:"America/New_York"`
	ClosedWeekdays []string      `envconfig:"CLOSED_WEEKDAYS"`
	BookingBuffer  time.Duration `envconfig:"BOOKING_BUFFER" default:"0s"`
	SlotStep       time.Duration `envconfig:"SLOT_STEP" default:"30m"`

	ReminderOffsets       []string      `envconfig:"REMINDER_OFFSETS" default:"24h,2h"`
	ReminderMaxAttempts   int           `envconfig:"REMINDER_MAX_ATTEMPTS" default:"3"`
	ReminderSweepInterval time.Duration `envconfig:"REMINDER_SWEEP_INTERVAL" default:"30m"`
	ReminderBatchSize     int           `envconfig:"REMINDER_BATCH_SIZE" default:"100"`
	ReminderClaimTTL      time.Duration `envconfig:"REMINDER_CLAIM_TTL" default:"5m"`
	ReminderGrace         time.Duration `envconfig:"REMINDER_GRACE" default:"1h"`

	TwilioAccountSID      string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken       string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber     string `envconfig:"TWILIO_PHONE_NUMBER"`
	TwilioWhatsAppNumber  string `envconfig:"TWILIO_WHATSAPP_NUMBER"`
	TwilioStatusCallback  string `envconfig:"TWILIO_STATUS_CALLBACK_URL"`
	TwilioValidateWebhook bool   `envconfig:"TWILIO_VALIDATE_WEBHOOK" default:"true"`

	EmailProvider  string `envconfig:"EMAIL_PROVIDER" default:"sendgrid"` // sendgrid|resend
	SendGridAPIKey string `envconfig:"SENDGRID_API_KEY"`
	ResendAPIKey   string `envconfig:"RESEND_API_KEY"`
	EmailFrom      string `envconfig:"EMAIL_FROM" default:"reminders@salonbook.local"`
	EmailFromName  string `envconfig:"EMAIL_FROM_NAME" default:"SalonBook"`
	// EmailLogOnly logs email reminders instead of dropping the channel when
	// no provider key is set. Development only.
	EmailLogOnly bool `envconfig:"EMAIL_LOG_ONLY" default:"false"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	// A missing .env file is fine; real deployments use the environment.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if _, err := cfg.BusinessHours(); err != nil {
		return cfg, err
	}
	if _, err := cfg.Offsets(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// BusinessHours is the salon's daily opening window.
type BusinessHours struct {
	Open     time.Duration // offset from local midnight
	Close    time.Duration
	Location *time.Location
	Closed   map[time.Weekday]bool
}

// BusinessHours parses the opening window settings.
func (c Config) BusinessHours() (BusinessHours, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return BusinessHours{}, fmt.Errorf("TIMEZONE: %w", err)
	}
	open, err := ParseClock(c.BusinessOpen)
	if err != nil {
		return BusinessHours{}, fmt.Errorf("BUSINESS_OPEN: %w", err)
	}
	closing, err := ParseClock(c.BusinessClose)
	if err != nil {
		return BusinessHours{}, fmt.Errorf("BUSINESS_CLOSE: %w", err)
	}
	if closing <= open {
		return BusinessHours{}, fmt.Errorf("BUSINESS_CLOSE %s must be after BUSINESS_OPEN %s", c.BusinessClose, c.BusinessOpen)
	}
	closed := make(map[time.Weekday]bool)
	for _, name := range c.ClosedWeekdays {
		day, err := parseWeekday(name)
		if err != nil {
			return BusinessHours{}, fmt.Errorf("CLOSED_WEEKDAYS: %w", err)
		}
		closed[day] = true
	}
	return BusinessHours{Open: open, Close: closing, Location: loc, Closed: closed}, nil
}

// Offsets parses the reminder lead times, largest first.
func (c Config) Offsets() ([]time.Duration, error) {
	var offsets []time.Duration
	for _, raw := range c.ReminderOffsets {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("REMINDER_OFFSETS: invalid offset %q", raw)
		}
		offsets = append(offsets, d)
	}
	if len(offsets) == 0 {
		offsets = []time.Duration{24 * time.Hour, 2 * time.Hour}
	}
	for i := 1; i < len(offsets); i++ {
		for j := i; j > 0 && offsets[j] > offsets[j-1]; j-- {
			offsets[j], offsets[j-1] = offsets[j-1], offsets[j]
		}
	}
	return offsets, nil
}

// ParseClock parses "HH:MM" into an offset from midnight. "24:00" is allowed.
func ParseClock(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}
