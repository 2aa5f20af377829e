package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Salon is the tenant and the single bookable resource: appointments of one
// salon never overlap.
type Salon struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name    string    `gorm:"not null" json:"name"`
	Address string    `json:"address"`
	Phone   string    `json:"phone"`

	// Salon-wide channel switches, applied on top of client preferences.
	EmailNotifications    bool `gorm:"not null" json:"emailNotifications"`
	SMSNotifications      bool `gorm:"not null" json:"smsNotifications"`
	WhatsAppNotifications bool `gorm:"not null" json:"whatsappNotifications"`

	Users             []User             `gorm:"foreignKey:SalonID" json:"-"`
	Clients           []Client           `gorm:"foreignKey:SalonID" json:"-"`
	Services          []Service          `gorm:"foreignKey:SalonID" json:"-"`
	ReminderTemplates []ReminderTemplate `gorm:"foreignKey:SalonID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Salon) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// ChannelEnabled reports whether the salon allows reminders on channel.
func (s *Salon) ChannelEnabled(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return s.EmailNotifications
	case ChannelSMS:
		return s.SMSNotifications
	case ChannelWhatsApp:
		return s.WhatsAppNotifications
	}
	return false
}
