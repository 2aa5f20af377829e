package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonbook-backend/config"
	"salonbook-backend/models"

	"github.com/google/uuid"
)

// AvailabilityChecker decides whether a service can be booked at a time. It
// only reads; callers that book must hold the calendar lock around the check
// and the write.
type AvailabilityChecker struct {
	hours  config.BusinessHours
	buffer time.Duration
	clock  Clock
}

func NewAvailabilityChecker(hours config.BusinessHours, buffer time.Duration, clock Clock) *AvailabilityChecker {
	if hours.Location == nil {
		hours.Location = time.UTC
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &AvailabilityChecker{hours: hours, buffer: buffer, clock: clock}
}

type SlotRequest struct {
	SalonID uuid.UUID
	Service *models.Service
	Start   time.Time
	// ExcludeID skips an appointment's own row when it is being moved.
	ExcludeID *uuid.UUID
}

type SlotResult struct {
	Available bool      `json:"available"`
	Reason    string    `json:"reason,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// IsSlotAvailable reports the outcome of Check as a value. Only storage
// failures are returned as errors.
func (a *AvailabilityChecker) IsSlotAvailable(ctx context.Context, facts CalendarFacts, req SlotRequest) (SlotResult, error) {
	result := SlotResult{Start: req.Start}
	if req.Service != nil {
		result.End = req.Start.Add(req.Service.DurationTime())
	}

	err := a.Check(ctx, facts, req)
	var rejected *BookingError
	switch {
	case errors.As(err, &rejected):
		result.Reason = rejected.Reason()
		result.Detail = rejected.Detail
		return result, nil
	case err != nil:
		return SlotResult{}, err
	}
	result.Available = true
	return result, nil
}

// Check returns nil when the slot is bookable, a *BookingError when it is
// not, and any other error for storage failures.
func (a *AvailabilityChecker) Check(ctx context.Context, facts CalendarFacts, req SlotRequest) error {
	if err := validateService(req.Service); err != nil {
		return err
	}
	now := a.clock.Now()
	if !req.Start.After(now) {
		return rejectf(ErrInvalidRequest, "start %s is not in the future", req.Start.Format(time.RFC3339))
	}

	start := req.Start
	end := start.Add(req.Service.DurationTime())

	if !a.withinBusinessHours(start, end) {
		open, closing := a.window(start)
		return rejectf(ErrOutsideBusinessHours, "%s-%s is outside %s-%s",
			start.In(a.hours.Location).Format("2006-01-02 15:04"),
			end.In(a.hours.Location).Format("15:04"),
			open.Format("15:04"), closing.Format("15:04"))
	}

	blocks, err := facts.FindBlockingSchedules(ctx, req.SalonID, start, end)
	if err != nil {
		return fmt.Errorf("find blocking schedules: %w", err)
	}
	for i := range blocks {
		if blocks[i].Overlaps(start, end) {
			return rejectf(ErrBlockedPeriod, "salon closed %s to %s (%s)",
				blocks[i].StartTime.Format(time.RFC3339), blocks[i].EndTime.Format(time.RFC3339), blocks[i].Reason)
		}
	}

	paddedStart, paddedEnd := start.Add(-a.buffer), end.Add(a.buffer)
	existing, err := facts.FindConflictingAppointments(ctx, req.SalonID, paddedStart, paddedEnd, req.ExcludeID)
	if err != nil {
		return fmt.Errorf("find conflicting appointments: %w", err)
	}
	for i := range existing {
		appt := &existing[i]
		if req.ExcludeID != nil && appt.ID == *req.ExcludeID {
			continue
		}
		if appt.Status.Active() && appt.Overlaps(paddedStart, paddedEnd) {
			return rejectf(ErrConflict, "overlaps appointment %s at %s", appt.ID, appt.StartTime.Format(time.RFC3339))
		}
	}
	return nil
}

// AvailableSlots lists bookable start times on day, stepping from opening
// time. Calendar facts are read once for the whole day.
func (a *AvailabilityChecker) AvailableSlots(ctx context.Context, facts CalendarFacts, salonID uuid.UUID, service *models.Service, day time.Time, step time.Duration) ([]time.Time, error) {
	if err := validateService(service); err != nil {
		return nil, err
	}
	if step <= 0 {
		return nil, rejectf(ErrInvalidRequest, "slot step must be positive")
	}

	open, closing := a.window(day)
	if a.hours.Closed[open.Weekday()] {
		return nil, nil
	}
	duration := service.DurationTime()

	blocks, err := facts.FindBlockingSchedules(ctx, salonID, open, closing)
	if err != nil {
		return nil, fmt.Errorf("find blocking schedules: %w", err)
	}
	existing, err := facts.FindConflictingAppointments(ctx, salonID, open.Add(-a.buffer), closing.Add(a.buffer), nil)
	if err != nil {
		return nil, fmt.Errorf("find conflicting appointments: %w", err)
	}

	now := a.clock.Now()
	slots := []time.Time{}
	for t := open; !t.Add(duration).After(closing); t = t.Add(step) {
		if !t.After(now) {
			continue
		}
		end := t.Add(duration)
		if a.slotFree(t, end, blocks, existing) {
			slots = append(slots, t)
		}
	}
	return slots, nil
}

func (a *AvailabilityChecker) slotFree(start, end time.Time, blocks []models.BlockedSchedule, existing []models.Appointment) bool {
	for i := range blocks {
		if blocks[i].Overlaps(start, end) {
			return false
		}
	}
	paddedStart, paddedEnd := start.Add(-a.buffer), end.Add(a.buffer)
	for i := range existing {
		if existing[i].Status.Active() && existing[i].Overlaps(paddedStart, paddedEnd) {
			return false
		}
	}
	return true
}

func (a *AvailabilityChecker) withinBusinessHours(start, end time.Time) bool {
	open, closing := a.window(start)
	if a.hours.Closed[open.Weekday()] {
		return false
	}
	return !start.Before(open) && !end.After(closing)
}

// window returns the opening and closing instants of the local day holding t.
// Wall-clock construction keeps the window right across DST changes.
func (a *AvailabilityChecker) window(t time.Time) (time.Time, time.Time) {
	loc := a.hours.Location
	y, m, d := t.In(loc).Date()
	open := time.Date(y, m, d, 0, int(a.hours.Open/time.Minute), 0, 0, loc)
	closing := time.Date(y, m, d, 0, int(a.hours.Close/time.Minute), 0, 0, loc)
	return open, closing
}

func validateService(service *models.Service) error {
	if service == nil {
		return rejectf(ErrInvalidRequest, "service is required")
	}
	if !service.IsActive {
		return rejectf(ErrInvalidRequest, "service %q is not active", service.Name)
	}
	if service.Duration <= 0 {
		return rejectf(ErrInvalidRequest, "service %q has no duration", service.Name)
	}
	return nil
}
