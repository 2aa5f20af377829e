package services

import (
	"strings"
	"time"

	"salonbook-backend/models"

	"github.com/google/uuid"
)

// DefaultTemplates seeds a new salon with one active template per offset.
func DefaultTemplates(salonID uuid.UUID, offsets []time.Duration) []models.ReminderTemplate {
	templates := make([]models.ReminderTemplate, 0, len(offsets))
	for _, offset := range offsets {
		templates = append(templates, models.ReminderTemplate{
			SalonID:       salonID,
			OffsetMinutes: int(offset / time.Minute),
			Subject:       defaultReminderSubject,
			Message:       defaultTemplateMessage(offset),
			IsActive:      true,
		})
	}
	return templates
}

func defaultTemplateMessage(offset time.Duration) string {
	switch offset {
	case 24 * time.Hour:
		return "Hi [ClientName], see you tomorrow for your [ServiceName] at [SalonName] on [AppointmentTime]."
	case 2 * time.Hour:
		return "Hi [ClientName], your [ServiceName] at [SalonName] starts soon ([AppointmentTime])."
	}
	return defaultReminderMessage
}

// ValidateTemplate checks a template before it is stored.
func ValidateTemplate(t *models.ReminderTemplate) error {
	if t.OffsetMinutes <= 0 {
		return rejectf(ErrInvalidRequest, "offset must be positive")
	}
	if strings.TrimSpace(t.Message) == "" {
		return rejectf(ErrInvalidRequest, "message is required")
	}
	if strings.Count(t.Message, "[") != strings.Count(t.Message, "]") {
		return rejectf(ErrInvalidRequest, "unbalanced placeholder brackets in message")
	}
	return nil
}

// PreviewTemplate renders message with sample values.
func PreviewTemplate(message, salonName string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	sample := time.Date(2025, time.March, 14, 15, 30, 0, 0, loc)
	return strings.NewReplacer(
		models.PlaceholderClientName, "Jane Doe",
		models.PlaceholderService, "Haircut",
		models.PlaceholderSalonName, salonName,
		models.PlaceholderDateTime, sample.Format(reminderTimeLayout),
	).Replace(message)
}
