package services_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"salonbook-backend/config"
	"salonbook-backend/models"
	"salonbook-backend/services"
	"salonbook-backend/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var offsets = []time.Duration{24 * time.Hour, 2 * time.Hour}

type fixture struct {
	store    *testutil.MemoryStore
	clock    *testutil.Clock
	gateway  *testutil.FakeGateway
	loc      *time.Location
	checker  *services.AvailabilityChecker
	appts    *services.AppointmentService
	reminder *services.ReminderService
	salon    models.Salon
	client   models.Client
	service  models.Service
}

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func businessHours(t *testing.T, loc *time.Location) config.BusinessHours {
	t.Helper()
	return config.BusinessHours{
		Open:     9 * time.Hour,
		Close:    20 * time.Hour,
		Location: loc,
		Closed:   map[time.Weekday]bool{},
	}
}

// newFixture builds a salon open 09:00-20:00 New York time with one client and
// one 30 minute service. The clock starts Monday 2025-06-02 08:00.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc := newYork(t)
	f := &fixture{
		store:   testutil.NewMemoryStore(),
		clock:   testutil.NewClock(time.Date(2025, time.June, 2, 8, 0, 0, 0, loc)),
		gateway: testutil.NewFakeGateway(),
		loc:     loc,
	}
	f.salon = f.store.AddSalon(models.Salon{
		Name:               "Glow Studio",
		EmailNotifications: true,
		SMSNotifications:   true,
	})
	f.client = f.store.AddClient(models.Client{
		SalonID:  f.salon.ID,
		Name:     "Jane Doe",
		Phone:    "+15551234567",
		Email:    "jane@example.com",
		IsActive: true,
	})
	f.service = f.store.AddService(models.Service{
		SalonID:  f.salon.ID,
		Name:     "Haircut",
		Duration: 30,
		IsActive: true,
	})

	f.checker = services.NewAvailabilityChecker(businessHours(t, loc), 0, f.clock)
	f.appts = services.NewAppointmentService(f.store, f.checker, offsets, f.clock, zap.NewNop())
	f.reminder = services.NewReminderService(f.store, f.gateway, nil, f.clock, services.ReminderConfig{
		MaxAttempts: 3,
		Location:    loc,
	}, zap.NewNop())
	return f
}

func (f *fixture) at(month time.Month, day, hour, min int) time.Time {
	return time.Date(2025, month, day, hour, min, 0, 0, f.loc)
}

// book stores an appointment directly, bypassing availability checks.
func (f *fixture) book(start time.Time, minutes int, status models.AppointmentStatus) models.Appointment {
	return f.store.PutAppointment(models.Appointment{
		SalonID:         f.salon.ID,
		ClientID:        f.client.ID,
		ServiceID:       f.service.ID,
		StartTime:       start,
		DurationMinutes: minutes,
		Status:          status,
		Revision:        1,
	})
}
