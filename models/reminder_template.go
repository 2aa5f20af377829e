package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Template placeholders.
const (
	PlaceholderClientName = "[ClientName]"
	PlaceholderService    = "[ServiceName]"
	PlaceholderDateTime   = "[AppointmentTime]"
	PlaceholderSalonName  = "[SalonName]"
)

// ReminderTemplate is a salon's message for one reminder offset.
type ReminderTemplate struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SalonID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_template_salon_offset,priority:1" json:"salonId"`
	OffsetMinutes int       `gorm:"not null;uniqueIndex:idx_template_salon_offset,priority:2" json:"offsetMinutes"`
	Subject       string    `json:"subject"`
	Message       string    `gorm:"type:text;not null" json:"message"`
	IsActive      bool      `gorm:"not null" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *ReminderTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
