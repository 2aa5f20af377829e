package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonbook-backend/metrics"
	"salonbook-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AppointmentService owns the appointment lifecycle:
//
//	pending -> confirmed -> completed
//	pending | confirmed -> cancelled
//	confirmed -> no_show
//
// Every mutation runs under the salon's calendar lock, so availability checks
// and writes are atomic with respect to other bookings.
type AppointmentService struct {
	store   Store
	checker *AvailabilityChecker
	offsets []time.Duration
	clock   Clock
	logger  *zap.Logger
}

func NewAppointmentService(store Store, checker *AvailabilityChecker, offsets []time.Duration, clock Clock, logger *zap.Logger) *AppointmentService {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{store: store, checker: checker, offsets: offsets, clock: clock, logger: logger}
}

type CreateAppointmentInput struct {
	SalonID   uuid.UUID
	ClientID  uuid.UUID
	ServiceID uuid.UUID
	Start     time.Time
	Notes     string
}

// Create books a pending appointment and its reminders, or rejects the slot.
func (s *AppointmentService) Create(ctx context.Context, in CreateAppointmentInput) (*models.Appointment, error) {
	var created *models.Appointment
	err := s.store.WithCalendarLock(ctx, in.SalonID, func(tx CalendarStore) error {
		client, err := tx.FindClient(ctx, in.SalonID, in.ClientID)
		if err != nil {
			return fmt.Errorf("client %s: %w", in.ClientID, err)
		}
		if !client.IsActive {
			return rejectf(ErrInvalidRequest, "client %s is not active", client.ID)
		}
		service, err := tx.FindService(ctx, in.SalonID, in.ServiceID)
		if err != nil {
			return fmt.Errorf("service %s: %w", in.ServiceID, err)
		}

		if err := s.checker.Check(ctx, tx, SlotRequest{SalonID: in.SalonID, Service: service, Start: in.Start}); err != nil {
			return err
		}

		appt := &models.Appointment{
			SalonID:         in.SalonID,
			ClientID:        client.ID,
			ServiceID:       service.ID,
			StartTime:       in.Start,
			EndTime:         in.Start.Add(service.DurationTime()),
			DurationMinutes: service.Duration,
			Status:          models.StatusPending,
			Notes:           in.Notes,
			Revision:        1,
		}
		if err := tx.SaveAppointment(ctx, appt); err != nil {
			return fmt.Errorf("save appointment: %w", err)
		}
		if err := s.scheduleReminders(ctx, tx, appt); err != nil {
			return err
		}
		created = appt
		return nil
	})
	metrics.BookingsTotal.WithLabelValues("create", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment booked",
		zap.String("appointment_id", created.ID.String()),
		zap.String("salon_id", created.SalonID.String()),
		zap.Time("start", created.StartTime))
	return created, nil
}

// Reschedule moves a pending or confirmed appointment. The appointment's own
// row is ignored by the conflict check, so moving to the same time succeeds.
// Reminders are recomputed for the new time.
func (s *AppointmentService) Reschedule(ctx context.Context, salonID, appointmentID uuid.UUID, newStart time.Time) (*models.Appointment, error) {
	var updated *models.Appointment
	err := s.store.WithCalendarLock(ctx, salonID, func(tx CalendarStore) error {
		appt, err := tx.LockAppointment(ctx, salonID, appointmentID)
		if err != nil {
			return fmt.Errorf("appointment %s: %w", appointmentID, err)
		}
		if !appt.Status.Active() {
			return &InvalidStateTransitionError{From: appt.Status, To: appt.Status, Action: "reschedule"}
		}
		service, err := tx.FindService(ctx, salonID, appt.ServiceID)
		if err != nil {
			return fmt.Errorf("service %s: %w", appt.ServiceID, err)
		}
		// The booked duration wins over later edits of the service.
		booked := *service
		booked.Duration = appt.DurationMinutes

		if err := s.checker.Check(ctx, tx, SlotRequest{
			SalonID:   salonID,
			Service:   &booked,
			Start:     newStart,
			ExcludeID: &appt.ID,
		}); err != nil {
			return err
		}

		appt.StartTime = newStart
		appt.EndTime = newStart.Add(booked.DurationTime())
		appt.ReminderSent = false
		appt.Revision++
		if err := tx.SaveAppointment(ctx, appt); err != nil {
			return fmt.Errorf("save appointment: %w", err)
		}
		if err := tx.DeleteUnsentReminders(ctx, appt.ID); err != nil {
			return fmt.Errorf("drop stale reminders: %w", err)
		}
		if err := s.scheduleReminders(ctx, tx, appt); err != nil {
			return err
		}
		updated = appt
		return nil
	})
	metrics.BookingsTotal.WithLabelValues("reschedule", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment rescheduled",
		zap.String("appointment_id", updated.ID.String()),
		zap.Time("start", updated.StartTime),
		zap.Int("revision", updated.Revision))
	return updated, nil
}

// Cancel is allowed from pending and confirmed. Unsent reminders stay in
// place; the scheduler never sends for cancelled appointments.
func (s *AppointmentService) Cancel(ctx context.Context, salonID, appointmentID uuid.UUID) (*models.Appointment, error) {
	return s.transition(ctx, salonID, appointmentID, models.StatusCancelled)
}

func (s *AppointmentService) Confirm(ctx context.Context, salonID, appointmentID uuid.UUID) (*models.Appointment, error) {
	return s.transition(ctx, salonID, appointmentID, models.StatusConfirmed)
}

func (s *AppointmentService) Complete(ctx context.Context, salonID, appointmentID uuid.UUID) (*models.Appointment, error) {
	return s.transition(ctx, salonID, appointmentID, models.StatusCompleted)
}

func (s *AppointmentService) MarkNoShow(ctx context.Context, salonID, appointmentID uuid.UUID) (*models.Appointment, error) {
	return s.transition(ctx, salonID, appointmentID, models.StatusNoShow)
}

func (s *AppointmentService) transition(ctx context.Context, salonID, appointmentID uuid.UUID, to models.AppointmentStatus) (*models.Appointment, error) {
	var updated *models.Appointment
	err := s.store.WithCalendarLock(ctx, salonID, func(tx CalendarStore) error {
		appt, err := tx.LockAppointment(ctx, salonID, appointmentID)
		if err != nil {
			return fmt.Errorf("appointment %s: %w", appointmentID, err)
		}
		if !appt.Status.CanTransitionTo(to) {
			return &InvalidStateTransitionError{From: appt.Status, To: to}
		}

		now := s.clock.Now()
		appt.Status = to
		switch to {
		case models.StatusCancelled:
			appt.CancelledAt = &now
		case models.StatusCompleted:
			appt.CompletedAt = &now
		}
		if err := tx.SaveAppointment(ctx, appt); err != nil {
			return fmt.Errorf("save appointment: %w", err)
		}
		updated = appt
		return nil
	})
	metrics.TransitionsTotal.WithLabelValues(string(to), outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment status changed",
		zap.String("appointment_id", updated.ID.String()),
		zap.String("status", string(updated.Status)))
	return updated, nil
}

func (s *AppointmentService) Get(ctx context.Context, salonID, appointmentID uuid.UUID) (*models.Appointment, error) {
	return s.store.FindAppointment(ctx, salonID, appointmentID)
}

func (s *AppointmentService) List(ctx context.Context, salonID uuid.UUID, filter AppointmentFilter) ([]models.Appointment, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, rejectf(ErrInvalidRequest, "unknown status %q", filter.Status)
	}
	return s.store.ListAppointments(ctx, salonID, filter)
}

// IsSlotAvailable is a read-only check; it takes no lock and promises
// nothing about a later Create.
func (s *AppointmentService) IsSlotAvailable(ctx context.Context, salonID, serviceID uuid.UUID, start time.Time) (SlotResult, error) {
	service, err := s.store.FindService(ctx, salonID, serviceID)
	if err != nil {
		return SlotResult{}, fmt.Errorf("service %s: %w", serviceID, err)
	}
	return s.checker.IsSlotAvailable(ctx, s.store, SlotRequest{SalonID: salonID, Service: service, Start: start})
}

func (s *AppointmentService) AvailableSlots(ctx context.Context, salonID, serviceID uuid.UUID, day time.Time, step time.Duration) ([]time.Time, error) {
	service, err := s.store.FindService(ctx, salonID, serviceID)
	if err != nil {
		return nil, fmt.Errorf("service %s: %w", serviceID, err)
	}
	return s.checker.AvailableSlots(ctx, s.store, salonID, service, day, step)
}

// scheduleReminders creates one reminder per offset for the appointment's
// current revision. Offsets whose send time has already passed are skipped.
func (s *AppointmentService) scheduleReminders(ctx context.Context, tx CalendarStore, appt *models.Appointment) error {
	now := s.clock.Now()
	for _, offset := range s.offsets {
		at := appt.StartTime.Add(-offset)
		if !at.After(now) {
			continue
		}
		reminder := &models.Reminder{
			AppointmentID: appt.ID,
			OffsetMinutes: int(offset / time.Minute),
			Revision:      appt.Revision,
			ScheduledTime: at,
		}
		if err := tx.SaveReminder(ctx, reminder); err != nil {
			return fmt.Errorf("save %s reminder: %w", offset, err)
		}
	}
	return nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var rejected *BookingError
	if errors.As(err, &rejected) {
		return rejected.Reason()
	}
	var transition *InvalidStateTransitionError
	if errors.As(err, &transition) {
		return "invalid_transition"
	}
	if errors.Is(err, ErrNotFound) {
		return "not_found"
	}
	return "error"
}
