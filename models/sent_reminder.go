package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliveryRead      DeliveryStatus = "read"
)

// Successful reports whether the message left the gateway.
func (s DeliveryStatus) Successful() bool {
	return s == DeliverySent || s == DeliveryDelivered || s == DeliveryRead
}

// SuccessfulDeliveryStatuses is the set Successful() accepts.
var SuccessfulDeliveryStatuses = []DeliveryStatus{DeliverySent, DeliveryDelivered, DeliveryRead}

// SentReminder is the append-only audit row of one delivery attempt on one
// channel. Only Status and StatusUpdatedAt change afterwards.
type SentReminder struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AppointmentID uuid.UUID `gorm:"type:uuid;index;not null" json:"appointmentId"`
	ReminderID    uuid.UUID `gorm:"type:uuid;index;not null" json:"reminderId"`
	OffsetMinutes int       `gorm:"not null" json:"offsetMinutes"`

	Channel      Channel        `gorm:"type:varchar(20);not null" json:"channel"`
	Recipient    string         `gorm:"type:varchar(100);not null" json:"recipient"`
	Message      string         `gorm:"type:text;not null" json:"message"`
	Status       DeliveryStatus `gorm:"type:varchar(20);not null" json:"status"`
	ExternalID   string         `gorm:"type:varchar(100);index" json:"externalId,omitempty"`
	ErrorMessage string         `gorm:"type:text" json:"errorMessage,omitempty"`

	SentAt          time.Time  `gorm:"not null" json:"sentAt"`
	StatusUpdatedAt *time.Time `json:"statusUpdatedAt,omitempty"`
}

func (r *SentReminder) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
