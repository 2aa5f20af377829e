package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

// ActiveStatuses are the statuses that occupy the calendar.
var ActiveStatuses = []AppointmentStatus{StatusPending, StatusConfirmed}

var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

func (s AppointmentStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// CanTransitionTo reports whether the lifecycle allows s -> next.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment occupies [StartTime, EndTime). EndTime and DurationMinutes are
// copied from the service at booking time so later service edits do not move
// booked appointments.
type Appointment struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SalonID   uuid.UUID `gorm:"type:uuid;not null;index:idx_appointment_calendar,priority:1" json:"salonId"`
	ClientID  uuid.UUID `gorm:"type:uuid;index;not null" json:"clientId"`
	ServiceID uuid.UUID `gorm:"type:uuid;index;not null" json:"serviceId"`

	StartTime       time.Time         `gorm:"not null;index:idx_appointment_calendar,priority:2" json:"startTime"`
	EndTime         time.Time         `gorm:"not null" json:"endTime"`
	DurationMinutes int               `gorm:"not null" json:"durationMinutes"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Notes           string            `gorm:"type:text" json:"notes"`

	ReminderSent bool `gorm:"not null" json:"reminderSent"`
	// Revision increases on every reschedule; reminders belong to one revision.
	Revision int `gorm:"not null" json:"revision"`

	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	Client  *Client  `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Service *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

// Overlaps uses half-open semantics: touching intervals do not overlap.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return start.Before(a.EndTime) && end.After(a.StartTime)
}
