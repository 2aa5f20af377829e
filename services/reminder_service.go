// services/reminder_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"salonbook-backend/metrics"
	"salonbook-backend/models"
	"salonbook-backend/notifications"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	defaultReminderSubject = "Appointment reminder"
	defaultReminderMessage = "Hi [ClientName], this is a reminder of your [ServiceName] appointment at [SalonName] on [AppointmentTime]. We look forward to seeing you!"
	reminderTimeLayout     = "Mon Jan 2, 2006 at 15:04 MST"
)

type ReminderConfig struct {
	MaxAttempts int
	BatchSize   int
	ClaimTTL    time.Duration
	// Grace is how long after its scheduled time a reminder may still go
	// out, retries included. Older reminders are skipped as expired.
	Grace time.Duration
	// Location formats times for clients without a timezone preference.
	Location *time.Location
}

// ReminderService finds appointments whose reminder time has passed and
// delivers them on every channel the client and salon allow.
type ReminderService struct {
	store   ReminderStore
	gateway notifications.Gateway
	claimer Claimer
	clock   Clock
	cfg     ReminderConfig
	logger  *zap.Logger
}

func NewReminderService(store ReminderStore, gateway notifications.Gateway, claimer Claimer, clock Clock, cfg ReminderConfig, logger *zap.Logger) *ReminderService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = 5 * time.Minute
	}
	if cfg.Grace <= 0 {
		cfg.Grace = time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if claimer == nil {
		claimer = NewLocalClaimer()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{store: store, gateway: gateway, claimer: claimer, clock: clock, cfg: cfg, logger: logger}
}

// ProcessDueReminders runs one sweep and returns the delivery records it
// wrote, failed attempts included. It is safe to call repeatedly with the
// same now: sent reminders are not selected again and channels that already
// succeeded are skipped. A failure on one reminder never stops the batch.
func (s *ReminderService) ProcessDueReminders(ctx context.Context, now time.Time) ([]models.SentReminder, error) {
	timer := prometheus.NewTimer(metrics.ReminderSweepDuration)
	defer timer.ObserveDuration()

	due, err := s.store.FindDueReminders(ctx, now, s.cfg.MaxAttempts, s.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("find due reminders: %w", err)
	}

	var records []models.SentReminder
	for _, d := range due {
		if ctx.Err() != nil {
			break
		}
		written, err := s.processReminder(ctx, now, d)
		records = append(records, written...)
		if err != nil {
			s.logger.Error("reminder processing failed",
				zap.String("reminder_id", d.Reminder.ID.String()),
				zap.String("appointment_id", d.Appointment.ID.String()),
				zap.Error(err))
		}
	}
	return records, nil
}

func (s *ReminderService) processReminder(ctx context.Context, now time.Time, d DueReminder) ([]models.SentReminder, error) {
	key := "reminder:claim:" + d.Reminder.ID.String()
	claimed, err := s.claimer.Claim(ctx, key, s.cfg.ClaimTTL)
	if err != nil {
		return nil, fmt.Errorf("claim: %w", err)
	}
	if !claimed {
		s.logger.Debug("reminder claimed elsewhere", zap.String("reminder_id", d.Reminder.ID.String()))
		return nil, nil
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := s.claimer.Release(releaseCtx, key); err != nil {
			s.logger.Warn("release reminder claim", zap.String("key", key), zap.Error(err))
		}
	}()

	// Another instance may have finished an attempt since the batch was read.
	current, err := s.store.FindReminder(ctx, d.Reminder.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reload reminder: %w", err)
	}
	reminder := *current
	if reminder.Sent || reminder.SkipReason != "" ||
		reminder.Attempts >= s.cfg.MaxAttempts ||
		!d.Appointment.Status.Active() ||
		d.Appointment.Revision != reminder.Revision ||
		!d.Appointment.StartTime.After(now) {
		return nil, nil
	}
	if now.After(reminder.ScheduledTime.Add(s.cfg.Grace)) {
		return nil, s.skip(ctx, &reminder, models.SkipExpired)
	}

	pref := d.Preference
	if pref == nil {
		def := models.DefaultNotificationPreference(d.Client.ID)
		pref = &def
	}

	if !pref.OffsetEnabled(reminder.Offset()) {
		return nil, s.skip(ctx, &reminder, models.SkipDisabledByPreference)
	}
	channels := s.enabledChannels(d, pref)
	if len(channels) == 0 {
		return nil, s.skip(ctx, &reminder, models.SkipNoChannels)
	}

	done, err := s.store.SuccessfulChannels(ctx, reminder.ID)
	if err != nil {
		return nil, fmt.Errorf("load delivered channels: %w", err)
	}
	subject, body := s.render(d, pref)
	reminder.Message = body

	var records []models.SentReminder
	failed := 0
	for _, ch := range channels {
		if containsChannel(done, ch) {
			continue
		}
		record, ok := s.deliver(ctx, now, d, ch, subject, body)
		if err := s.store.SaveSentReminder(ctx, &record); err != nil {
			s.logger.Error("record reminder delivery",
				zap.String("reminder_id", reminder.ID.String()),
				zap.String("channel", string(ch)),
				zap.Error(err))
			ok = false
		} else {
			records = append(records, record)
		}
		if !ok {
			failed++
		}
	}

	if failed == 0 {
		sentAt := now
		reminder.Sent = true
		reminder.SentAt = &sentAt
		if err := s.store.MarkReminderSent(ctx, &reminder, d.Appointment.ID); err != nil {
			return records, fmt.Errorf("mark reminder sent: %w", err)
		}
		s.logger.Info("reminder sent",
			zap.String("reminder_id", reminder.ID.String()),
			zap.String("appointment_id", d.Appointment.ID.String()),
			zap.Int("offset_minutes", reminder.OffsetMinutes))
		return records, nil
	}

	reminder.Attempts++
	if reminder.Attempts >= s.cfg.MaxAttempts {
		reminder.SkipReason = models.SkipRetriesExhausted
		s.logger.Warn("reminder retries exhausted",
			zap.String("reminder_id", reminder.ID.String()),
			zap.Int("attempts", reminder.Attempts))
	}
	if err := s.store.SaveReminder(ctx, &reminder); err != nil {
		return records, fmt.Errorf("save reminder attempt: %w", err)
	}
	return records, nil
}

// deliver sends on one channel and builds the audit record. ok is false when
// the gateway rejected the message.
func (s *ReminderService) deliver(ctx context.Context, now time.Time, d DueReminder, ch models.Channel, subject, body string) (models.SentReminder, bool) {
	recipient := d.Client.Recipient(ch)
	record := models.SentReminder{
		AppointmentID: d.Appointment.ID,
		ReminderID:    d.Reminder.ID,
		OffsetMinutes: d.Reminder.OffsetMinutes,
		Channel:       ch,
		Recipient:     recipient,
		Message:       body,
		SentAt:        now,
	}

	delivery, err := s.gateway.Send(ctx, notifications.Message{
		Channel:   ch,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
	})
	if err != nil {
		derr := &GatewayDeliveryError{Channel: ch, Recipient: recipient, Err: err}
		record.Status = models.DeliveryFailed
		record.ErrorMessage = derr.Error()
		metrics.RemindersTotal.WithLabelValues(string(ch), string(models.DeliveryFailed)).Inc()
		s.logger.Warn("reminder delivery failed",
			zap.String("reminder_id", d.Reminder.ID.String()),
			zap.Error(derr))
		return record, false
	}

	record.Status = delivery.Status
	if record.Status == "" {
		record.Status = models.DeliverySent
	}
	record.ExternalID = delivery.ExternalID
	metrics.RemindersTotal.WithLabelValues(string(ch), string(record.Status)).Inc()
	return record, true
}

func (s *ReminderService) skip(ctx context.Context, reminder *models.Reminder, reason string) error {
	reminder.SkipReason = reason
	if err := s.store.SaveReminder(ctx, reminder); err != nil {
		return fmt.Errorf("skip reminder: %w", err)
	}
	s.logger.Info("reminder skipped",
		zap.String("reminder_id", reminder.ID.String()),
		zap.String("reason", reason))
	return nil
}

type channelRouter interface {
	Handles(ch models.Channel) bool
}

func (s *ReminderService) enabledChannels(d DueReminder, pref *models.NotificationPreference) []models.Channel {
	router, _ := s.gateway.(channelRouter)
	var channels []models.Channel
	for _, ch := range models.Channels {
		if !pref.ChannelEnabled(ch) || !d.Salon.ChannelEnabled(ch) {
			continue
		}
		if d.Client.Recipient(ch) == "" {
			continue
		}
		if router != nil && !router.Handles(ch) {
			continue
		}
		channels = append(channels, ch)
	}
	return channels
}

// render fills the salon template for the offset, or the built-in one.
func (s *ReminderService) render(d DueReminder, pref *models.NotificationPreference) (subject, body string) {
	subject, body = defaultReminderSubject, defaultReminderMessage
	if t := d.Template; t != nil && t.IsActive && strings.TrimSpace(t.Message) != "" {
		body = t.Message
		if t.Subject != "" {
			subject = t.Subject
		}
	}

	loc := s.cfg.Location
	if pref.Timezone != "" {
		if l, err := time.LoadLocation(pref.Timezone); err == nil {
			loc = l
		} else {
			s.logger.Warn("invalid client timezone", zap.String("timezone", pref.Timezone), zap.Error(err))
		}
	}

	replacer := strings.NewReplacer(
		models.PlaceholderClientName, d.Client.Name,
		models.PlaceholderService, d.Service.Name,
		models.PlaceholderSalonName, d.Salon.Name,
		models.PlaceholderDateTime, d.Appointment.StartTime.In(loc).Format(reminderTimeLayout),
	)
	return replacer.Replace(subject), replacer.Replace(body)
}

// UpdateDeliveryStatus applies a provider delivery callback.
func (s *ReminderService) UpdateDeliveryStatus(ctx context.Context, externalID string, status models.DeliveryStatus) error {
	if externalID == "" {
		return rejectf(ErrInvalidRequest, "external id is required")
	}
	n, err := s.store.UpdateDeliveryStatus(ctx, externalID, status, s.clock.Now())
	if err != nil {
		return fmt.Errorf("update delivery status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delivery %s: %w", externalID, ErrNotFound)
	}
	return nil
}

// History returns the reminders of an appointment and their delivery log.
func (s *ReminderService) History(ctx context.Context, appointmentID uuid.UUID) ([]models.Reminder, []models.SentReminder, error) {
	return s.store.ListReminders(ctx, appointmentID)
}

func containsChannel(list []models.Channel, ch models.Channel) bool {
	for _, c := range list {
		if c == ch {
			return true
		}
	}
	return false
}

// RunSweep processes reminders due at the current time. It is the scheduler's
// job function.
func (s *ReminderService) RunSweep(ctx context.Context) {
	now := s.clock.Now()
	records, err := s.ProcessDueReminders(ctx, now)
	if err != nil {
		s.logger.Error("reminder sweep failed", zap.Error(err))
		return
	}
	if len(records) > 0 {
		s.logger.Info("reminder sweep finished", zap.Int("deliveries", len(records)))
	}
}
