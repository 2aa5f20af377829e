// Package repository implements the service stores on gorm/Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonbook-backend/models"
	"salonbook-backend/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements services.Store and services.ReminderStore.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func calendarLockKey(salonID uuid.UUID) string {
	return "calendar:" + salonID.String()
}

// WithCalendarLock runs fn in a transaction holding a transaction-scoped
// advisory lock on the salon's calendar. The lock is released on commit or
// rollback.
func (s *GormStore) WithCalendarLock(ctx context.Context, salonID uuid.UUID, fn func(services.CalendarStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", calendarLockKey(salonID)).Error; err != nil {
			return fmt.Errorf("acquire calendar lock: %w", err)
		}
		return fn(&GormStore{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.ErrNotFound
	}
	return err
}

func (s *GormStore) FindConflictingAppointments(ctx context.Context, salonID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]models.Appointment, error) {
	q := s.db.WithContext(ctx).
		Where("salon_id = ? AND status IN ?", salonID, models.ActiveStatuses).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var appts []models.Appointment
	if err := q.Order("start_time").Find(&appts).Error; err != nil {
		return nil, err
	}
	return appts, nil
}

func (s *GormStore) FindBlockingSchedules(ctx context.Context, salonID uuid.UUID, start, end time.Time) ([]models.BlockedSchedule, error) {
	var blocks []models.BlockedSchedule
	err := s.db.WithContext(ctx).
		Where("salon_id = ? AND start_time < ? AND end_time > ?", salonID, end, start).
		Order("start_time").
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

func (s *GormStore) FindService(ctx context.Context, salonID, serviceID uuid.UUID) (*models.Service, error) {
	var service models.Service
	if err := s.db.WithContext(ctx).Where("id = ? AND salon_id = ?", serviceID, salonID).First(&service).Error; err != nil {
		return nil, notFound(err)
	}
	return &service, nil
}

func (s *GormStore) FindClient(ctx context.Context, salonID, clientID uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := s.db.WithContext(ctx).Where("id = ? AND salon_id = ?", clientID, salonID).First(&client).Error; err != nil {
		return nil, notFound(err)
	}
	return &client, nil
}

func (s *GormStore) FindAppointment(ctx context.Context, salonID, appointmentID uuid.UUID) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Service").
		Where("id = ? AND salon_id = ?", appointmentID, salonID).
		First(&appt).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &appt, nil
}

func (s *GormStore) LockAppointment(ctx context.Context, salonID, appointmentID uuid.UUID) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND salon_id = ?", appointmentID, salonID).
		First(&appt).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &appt, nil
}

func (s *GormStore) ListAppointments(ctx context.Context, salonID uuid.UUID, filter services.AppointmentFilter) ([]models.Appointment, error) {
	q := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Service").
		Where("salon_id = ?", salonID)
	if filter.From != nil {
		q = q.Where("start_time >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("start_time < ?", *filter.To)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ClientID != nil {
		q = q.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var appts []models.Appointment
	if err := q.Order("start_time").Find(&appts).Error; err != nil {
		return nil, err
	}
	return appts, nil
}

func (s *GormStore) SaveAppointment(ctx context.Context, appt *models.Appointment) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(appt).Error
}

func (s *GormStore) SaveReminder(ctx context.Context, reminder *models.Reminder) error {
	return s.db.WithContext(ctx).Save(reminder).Error
}

func (s *GormStore) FindReminder(ctx context.Context, id uuid.UUID) (*models.Reminder, error) {
	var reminder models.Reminder
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&reminder).Error; err != nil {
		return nil, notFound(err)
	}
	return &reminder, nil
}

func (s *GormStore) DeleteUnsentReminders(ctx context.Context, appointmentID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("appointment_id = ? AND sent = ?", appointmentID, false).
		Delete(&models.Reminder{}).Error
}

// FindDueReminders selects unsent reminders of the current appointment
// revision whose time has come and whose appointment is still active and in
// the future, then loads what delivery needs in a few batched queries.
func (s *GormStore) FindDueReminders(ctx context.Context, now time.Time, maxAttempts, limit int) ([]services.DueReminder, error) {
	db := s.db.WithContext(ctx)

	var reminders []models.Reminder
	err := db.Select("reminders.*").
		Joins("JOIN appointments ON appointments.id = reminders.appointment_id").
		Where("reminders.sent = ? AND reminders.skip_reason = ''", false).
		Where("reminders.attempts < ?", maxAttempts).
		Where("reminders.scheduled_time <= ?", now).
		Where("reminders.revision = appointments.revision").
		Where("appointments.status IN ? AND appointments.start_time > ?", models.ActiveStatuses, now).
		Order("reminders.scheduled_time").
		Limit(limit).
		Find(&reminders).Error
	if err != nil {
		return nil, fmt.Errorf("select due reminders: %w", err)
	}
	if len(reminders) == 0 {
		return nil, nil
	}

	apptIDs := make([]uuid.UUID, 0, len(reminders))
	for _, r := range reminders {
		apptIDs = append(apptIDs, r.AppointmentID)
	}
	var appts []models.Appointment
	err = db.Preload("Client.NotificationPreference").
		Preload("Service").
		Where("id IN ?", apptIDs).
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	apptByID := make(map[uuid.UUID]models.Appointment, len(appts))
	salonIDs := make([]uuid.UUID, 0, len(appts))
	seen := make(map[uuid.UUID]bool)
	for _, a := range appts {
		apptByID[a.ID] = a
		if !seen[a.SalonID] {
			seen[a.SalonID] = true
			salonIDs = append(salonIDs, a.SalonID)
		}
	}

	var salons []models.Salon
	if err := db.Where("id IN ?", salonIDs).Find(&salons).Error; err != nil {
		return nil, fmt.Errorf("load salons: %w", err)
	}
	salonByID := make(map[uuid.UUID]models.Salon, len(salons))
	for _, s := range salons {
		salonByID[s.ID] = s
	}

	var templates []models.ReminderTemplate
	if err := db.Where("salon_id IN ? AND is_active = ?", salonIDs, true).Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	type templateKey struct {
		salon  uuid.UUID
		offset int
	}
	templateFor := make(map[templateKey]*models.ReminderTemplate, len(templates))
	for i := range templates {
		t := &templates[i]
		templateFor[templateKey{t.SalonID, t.OffsetMinutes}] = t
	}

	due := make([]services.DueReminder, 0, len(reminders))
	for _, r := range reminders {
		appt, ok := apptByID[r.AppointmentID]
		if !ok || appt.Client == nil || appt.Service == nil {
			continue
		}
		d := services.DueReminder{
			Reminder:    r,
			Appointment: appt,
			Client:      *appt.Client,
			Service:     *appt.Service,
			Salon:       salonByID[appt.SalonID],
			Preference:  appt.Client.NotificationPreference,
			Template:    templateFor[templateKey{appt.SalonID, r.OffsetMinutes}],
		}
		due = append(due, d)
	}
	return due, nil
}

func (s *GormStore) SuccessfulChannels(ctx context.Context, reminderID uuid.UUID) ([]models.Channel, error) {
	var channels []models.Channel
	err := s.db.WithContext(ctx).
		Model(&models.SentReminder{}).
		Where("reminder_id = ? AND status IN ?", reminderID, models.SuccessfulDeliveryStatuses).
		Distinct().
		Pluck("channel", &channels).Error
	return channels, err
}

func (s *GormStore) SaveSentReminder(ctx context.Context, record *models.SentReminder) error {
	return s.db.WithContext(ctx).Create(record).Error
}

// MarkReminderSent flips the reminder and the appointment flag together.
func (s *GormStore) MarkReminderSent(ctx context.Context, reminder *models.Reminder, appointmentID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(reminder).Error; err != nil {
			return err
		}
		return tx.Model(&models.Appointment{}).
			Where("id = ?", appointmentID).
			Update("reminder_sent", true).Error
	})
}

func (s *GormStore) ListReminders(ctx context.Context, appointmentID uuid.UUID) ([]models.Reminder, []models.SentReminder, error) {
	db := s.db.WithContext(ctx)
	var reminders []models.Reminder
	if err := db.Where("appointment_id = ?", appointmentID).Order("scheduled_time").Find(&reminders).Error; err != nil {
		return nil, nil, err
	}
	var sent []models.SentReminder
	if err := db.Where("appointment_id = ?", appointmentID).Order("sent_at").Find(&sent).Error; err != nil {
		return nil, nil, err
	}
	return reminders, sent, nil
}

func (s *GormStore) UpdateDeliveryStatus(ctx context.Context, externalID string, status models.DeliveryStatus, at time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.SentReminder{}).
		Where("external_id = ?", externalID).
		Updates(map[string]interface{}{"status": status, "status_updated_at": at})
	return res.RowsAffected, res.Error
}
