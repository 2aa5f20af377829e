package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SkipDisabledByPreference = "disabled_by_preference"
	SkipNoChannels           = "no_channels"
	SkipRetriesExhausted     = "retries_exhausted"
	SkipExpired              = "expired"
)

// Reminder is the scheduled intent to notify a client OffsetMinutes before
// an appointment. Sent flips to true once and never back.
type Reminder struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AppointmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reminder_offset,priority:1" json:"appointmentId"`
	OffsetMinutes int       `gorm:"not null;uniqueIndex:idx_reminder_offset,priority:2" json:"offsetMinutes"`
	Revision      int       `gorm:"not null;uniqueIndex:idx_reminder_offset,priority:3" json:"revision"`

	ScheduledTime time.Time  `gorm:"not null;index" json:"scheduledTime"`
	Sent          bool       `gorm:"not null;index" json:"sent"`
	SentAt        *time.Time `json:"sentAt,omitempty"`
	Attempts      int        `gorm:"not null" json:"attempts"`
	SkipReason    string     `gorm:"type:varchar(40);not null" json:"skipReason,omitempty"`
	Message       string     `gorm:"type:text" json:"message"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Reminder) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

func (r *Reminder) Offset() time.Duration {
	return time.Duration(r.OffsetMinutes) * time.Minute
}
