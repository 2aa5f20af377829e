package services

import (
	"context"
	"time"

	"salonbook-backend/models"

	"github.com/google/uuid"
)

// CalendarFacts supplies the commitments a slot is checked against.
type CalendarFacts interface {
	// FindConflictingAppointments returns pending/confirmed appointments of the
	// salon overlapping [start, end), skipping excludeID when set.
	FindConflictingAppointments(ctx context.Context, salonID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]models.Appointment, error)
	// FindBlockingSchedules returns blocked periods overlapping [start, end).
	FindBlockingSchedules(ctx context.Context, salonID uuid.UUID, start, end time.Time) ([]models.BlockedSchedule, error)
}

type AppointmentFilter struct {
	From     *time.Time
	To       *time.Time
	Status   models.AppointmentStatus
	ClientID *uuid.UUID
	Limit    int
}

// CalendarStore is the persistence the booking path needs.
type CalendarStore interface {
	CalendarFacts

	FindService(ctx context.Context, salonID, serviceID uuid.UUID) (*models.Service, error)
	FindClient(ctx context.Context, salonID, clientID uuid.UUID) (*models.Client, error)
	FindAppointment(ctx context.Context, salonID, appointmentID uuid.UUID) (*models.Appointment, error)
	// LockAppointment loads the appointment and holds its row until the
	// surrounding transaction ends.
	LockAppointment(ctx context.Context, salonID, appointmentID uuid.UUID) (*models.Appointment, error)
	ListAppointments(ctx context.Context, salonID uuid.UUID, filter AppointmentFilter) ([]models.Appointment, error)

	SaveAppointment(ctx context.Context, appt *models.Appointment) error
	SaveReminder(ctx context.Context, reminder *models.Reminder) error
	// DeleteUnsentReminders drops reminders of older revisions that never went
	// out. Sent reminders are history and stay.
	DeleteUnsentReminders(ctx context.Context, appointmentID uuid.UUID) error
}

// Store adds the transactional boundary. WithCalendarLock runs fn in one
// transaction holding the salon's calendar lock; fn's error rolls it back.
type Store interface {
	CalendarStore
	WithCalendarLock(ctx context.Context, salonID uuid.UUID, fn func(CalendarStore) error) error
}

// DueReminder is a reminder joined with everything needed to deliver it.
type DueReminder struct {
	Reminder    models.Reminder
	Appointment models.Appointment
	Client      models.Client
	Service     models.Service
	Salon       models.Salon
	Preference  *models.NotificationPreference
	Template    *models.ReminderTemplate
}

// ReminderStore is the persistence the reminder sweep needs.
type ReminderStore interface {
	FindDueReminders(ctx context.Context, now time.Time, maxAttempts, limit int) ([]DueReminder, error)
	// FindReminder reads the current row, bypassing any earlier snapshot.
	FindReminder(ctx context.Context, id uuid.UUID) (*models.Reminder, error)
	// SuccessfulChannels lists channels that already hold a sent, delivered
	// or read SentReminder for the reminder.
	SuccessfulChannels(ctx context.Context, reminderID uuid.UUID) ([]models.Channel, error)
	SaveSentReminder(ctx context.Context, record *models.SentReminder) error
	SaveReminder(ctx context.Context, reminder *models.Reminder) error
	MarkReminderSent(ctx context.Context, reminder *models.Reminder, appointmentID uuid.UUID) error
	ListReminders(ctx context.Context, appointmentID uuid.UUID) ([]models.Reminder, []models.SentReminder, error)
	UpdateDeliveryStatus(ctx context.Context, externalID string, status models.DeliveryStatus, at time.Time) (int64, error)
}

// Claimer hands out short-lived exclusive claims so that concurrent
// scheduler instances never dispatch the same reminder.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
