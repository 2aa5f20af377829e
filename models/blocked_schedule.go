package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlockedSchedule is a salon-wide closed period (holiday, maintenance).
type BlockedSchedule struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SalonID   uuid.UUID `gorm:"type:uuid;not null;index:idx_blocked_calendar,priority:1" json:"salonId"`
	StartTime time.Time `gorm:"not null;index:idx_blocked_calendar,priority:2" json:"startTime"`
	EndTime   time.Time `gorm:"not null" json:"endTime"`
	Reason    string    `json:"reason"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *BlockedSchedule) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}

func (b *BlockedSchedule) Overlaps(start, end time.Time) bool {
	return start.Before(b.EndTime) && end.After(b.StartTime)
}
