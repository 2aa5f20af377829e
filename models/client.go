package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a salon customer. Clients are deactivated, never deleted.
type Client struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SalonID         uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_client_salon_phone,priority:1" json:"salonId"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index" json:"createdByUserId"`

	Name     string `gorm:"not null" json:"name"`
	Phone    string `gorm:"not null;uniqueIndex:idx_client_salon_phone,priority:2" json:"phone"`
	Email    string `json:"email"`
	Notes    string `json:"notes"`
	IsActive bool   `gorm:"not null" json:"isActive"`

	NotificationPreference *NotificationPreference `gorm:"foreignKey:ClientID" json:"notificationPreference,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// Recipient returns the address used for ch, or "" when the client has none.
func (c *Client) Recipient(ch Channel) string {
	switch ch {
	case ChannelEmail:
		return c.Email
	case ChannelSMS, ChannelWhatsApp:
		return c.Phone
	}
	return ""
}
