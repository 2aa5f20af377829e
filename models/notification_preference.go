package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// Channels lists every delivery channel in dispatch order.
var Channels = []Channel{ChannelEmail, ChannelSMS, ChannelWhatsApp}

func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelSMS || c == ChannelWhatsApp
}

// NotificationPreference holds per-client reminder settings.
type NotificationPreference struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ClientID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"clientId"`

	EmailEnabled    bool `gorm:"not null" json:"emailEnabled"`
	SMSEnabled      bool `gorm:"not null" json:"smsEnabled"`
	WhatsAppEnabled bool `gorm:"not null" json:"whatsappEnabled"`

	Reminder24h bool `gorm:"column:reminder_24h;not null" json:"reminder24h"`
	Reminder2h  bool `gorm:"column:reminder_2h;not null" json:"reminder2h"`

	// IANA zone used to format appointment times; empty means salon timezone.
	Timezone string `gorm:"type:varchar(50)" json:"timezone"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *NotificationPreference) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// DefaultNotificationPreference applies when a client never saved preferences.
func DefaultNotificationPreference(clientID uuid.UUID) NotificationPreference {
	return NotificationPreference{
		ClientID:     clientID,
		EmailEnabled: true,
		Reminder24h:  true,
		Reminder2h:   true,
	}
}

func (p *NotificationPreference) ChannelEnabled(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return p.EmailEnabled
	case ChannelSMS:
		return p.SMSEnabled
	case ChannelWhatsApp:
		return p.WhatsAppEnabled
	}
	return false
}

// OffsetEnabled reports whether reminders at the given lead time are wanted.
// Only the 24h and 2h offsets have toggles; other offsets are always on.
func (p *NotificationPreference) OffsetEnabled(offset time.Duration) bool {
	switch offset {
	case 24 * time.Hour:
		return p.Reminder24h
	case 2 * time.Hour:
		return p.Reminder2h
	}
	return true
}
