package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"salonbook-backend/models"
	"salonbook-backend/services"
	"salonbook-backend/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	f := newFixture(t)
	f.book(f.at(time.June, 10, 14, 0), 30, models.StatusConfirmed)
	f.book(f.at(time.June, 10, 16, 0), 30, models.StatusCancelled)
	f.store.AddBlock(models.BlockedSchedule{
		SalonID:   f.salon.ID,
		StartTime: f.at(time.December, 25, 0, 0),
		EndTime:   f.at(time.December, 26, 0, 0),
		Reason:    "Christmas",
	})

	tests := []struct {
		name  string
		start time.Time
		want  error
	}{
		{"overlaps existing", f.at(time.June, 10, 14, 15), services.ErrConflict},
		{"same start as existing", f.at(time.June, 10, 14, 0), services.ErrConflict},
		{"back to back after", f.at(time.June, 10, 14, 30), nil},
		{"back to back before", f.at(time.June, 10, 13, 30), nil},
		{"before opening", f.at(time.June, 10, 7, 0), services.ErrOutsideBusinessHours},
		{"runs past closing", f.at(time.June, 10, 19, 45), services.ErrOutsideBusinessHours},
		{"ends at closing", f.at(time.June, 10, 19, 30), nil},
		{"starts at opening", f.at(time.June, 10, 9, 0), nil},
		{"cancelled does not block", f.at(time.June, 10, 16, 0), nil},
		{"blocked holiday", f.at(time.December, 25, 10, 0), services.ErrBlockedPeriod},
		{"in the past", f.at(time.June, 1, 10, 0), services.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.checker.Check(context.Background(), f.store, services.SlotRequest{
				SalonID: f.salon.ID,
				Service: &f.service,
				Start:   tt.start,
			})
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			var rejected *services.BookingError
			assert.True(t, errors.As(err, &rejected))
		})
	}
}

func TestCheckRejectsBadService(t *testing.T) {
	f := newFixture(t)
	start := f.at(time.June, 10, 10, 0)

	err := f.checker.Check(context.Background(), f.store, services.SlotRequest{SalonID: f.salon.ID, Start: start})
	assert.ErrorIs(t, err, services.ErrInvalidRequest)

	inactive := f.service
	inactive.IsActive = false
	err = f.checker.Check(context.Background(), f.store, services.SlotRequest{SalonID: f.salon.ID, Service: &inactive, Start: start})
	assert.ErrorIs(t, err, services.ErrInvalidRequest)

	zero := f.service
	zero.Duration = 0
	err = f.checker.Check(context.Background(), f.store, services.SlotRequest{SalonID: f.salon.ID, Service: &zero, Start: start})
	assert.ErrorIs(t, err, services.ErrInvalidRequest)
}

func TestCheckExcludesOwnAppointment(t *testing.T) {
	f := newFixture(t)
	existing := f.book(f.at(time.June, 10, 14, 0), 30, models.StatusPending)

	err := f.checker.Check(context.Background(), f.store, services.SlotRequest{
		SalonID:   f.salon.ID,
		Service:   &f.service,
		Start:     f.at(time.June, 10, 14, 15),
		ExcludeID: &existing.ID,
	})
	assert.NoError(t, err)
}

func TestCheckAppliesBuffer(t *testing.T) {
	f := newFixture(t)
	f.book(f.at(time.June, 10, 14, 0), 30, models.StatusConfirmed)
	checker := services.NewAvailabilityChecker(businessHours(t, f.loc), 15*time.Minute, f.clock)

	check := func(start time.Time) error {
		return checker.Check(context.Background(), f.store, services.SlotRequest{
			SalonID: f.salon.ID,
			Service: &f.service,
			Start:   start,
		})
	}
	assert.ErrorIs(t, check(f.at(time.June, 10, 14, 30)), services.ErrConflict)
	assert.ErrorIs(t, check(f.at(time.June, 10, 13, 30)), services.ErrConflict)
	assert.NoError(t, check(f.at(time.June, 10, 14, 45)))
	assert.NoError(t, check(f.at(time.June, 10, 13, 15)))
}

func TestCheckOtherSalonDoesNotConflict(t *testing.T) {
	f := newFixture(t)
	other := f.store.AddSalon(models.Salon{Name: "Other"})
	f.store.PutAppointment(models.Appointment{
		SalonID:         other.ID,
		ClientID:        uuid.New(),
		ServiceID:       uuid.New(),
		StartTime:       f.at(time.June, 10, 14, 0),
		DurationMinutes: 30,
		Status:          models.StatusConfirmed,
	})

	err := f.checker.Check(context.Background(), f.store, services.SlotRequest{
		SalonID: f.salon.ID,
		Service: &f.service,
		Start:   f.at(time.June, 10, 14, 0),
	})
	assert.NoError(t, err)
}

func TestCheckClosedWeekday(t *testing.T) {
	f := newFixture(t)
	hours := businessHours(t, f.loc)
	hours.Closed[time.Sunday] = true
	checker := services.NewAvailabilityChecker(hours, 0, f.clock)

	// 2025-06-08 is a Sunday.
	err := checker.Check(context.Background(), f.store, services.SlotRequest{
		SalonID: f.salon.ID,
		Service: &f.service,
		Start:   f.at(time.June, 8, 10, 0),
	})
	assert.ErrorIs(t, err, services.ErrOutsideBusinessHours)

	slots, err := checker.AvailableSlots(context.Background(), f.store, f.salon.ID, &f.service, f.at(time.June, 8, 0, 0), 30*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestCheckAcrossDSTChange(t *testing.T) {
	loc := newYork(t)
	store := testutil.NewMemoryStore()
	clock := testutil.NewClock(time.Date(2025, time.March, 1, 8, 0, 0, 0, loc))
	checker := services.NewAvailabilityChecker(businessHours(t, loc), 0, clock)
	service := models.Service{Name: "Color", Duration: 60, IsActive: true}
	salonID := uuid.New()

	// Clocks spring forward on 2025-03-09; opening is still 09:00 local.
	err := checker.Check(context.Background(), store, services.SlotRequest{
		SalonID: salonID,
		Service: &service,
		Start:   time.Date(2025, time.March, 9, 9, 0, 0, 0, loc),
	})
	assert.NoError(t, err)

	err = checker.Check(context.Background(), store, services.SlotRequest{
		SalonID: salonID,
		Service: &service,
		Start:   time.Date(2025, time.March, 9, 8, 30, 0, 0, loc),
	})
	assert.ErrorIs(t, err, services.ErrOutsideBusinessHours)

	// Same instant expressed in UTC.
	err = checker.Check(context.Background(), store, services.SlotRequest{
		SalonID: salonID,
		Service: &service,
		Start:   time.Date(2025, time.March, 9, 13, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
}

func TestIsSlotAvailableReportsReason(t *testing.T) {
	f := newFixture(t)
	f.book(f.at(time.June, 10, 14, 0), 30, models.StatusConfirmed)

	result, err := f.checker.IsSlotAvailable(context.Background(), f.store, services.SlotRequest{
		SalonID: f.salon.ID,
		Service: &f.service,
		Start:   f.at(time.June, 10, 14, 15),
	})
	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, "conflict", result.Reason)
	assert.Equal(t, f.at(time.June, 10, 14, 45), result.End)

	result, err = f.checker.IsSlotAvailable(context.Background(), f.store, services.SlotRequest{
		SalonID: f.salon.ID,
		Service: &f.service,
		Start:   f.at(time.June, 10, 14, 30),
	})
	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.Empty(t, result.Reason)
}

func TestAvailableSlots(t *testing.T) {
	f := newFixture(t)
	f.book(f.at(time.June, 10, 14, 0), 30, models.StatusConfirmed)
	hour := f.store.AddService(models.Service{SalonID: f.salon.ID, Name: "Color", Duration: 60, IsActive: true})

	slots, err := f.checker.AvailableSlots(context.Background(), f.store, f.salon.ID, &hour, f.at(time.June, 10, 0, 0), 30*time.Minute)
	require.NoError(t, err)

	assert.Len(t, slots, 19)
	assert.Equal(t, f.at(time.June, 10, 9, 0), slots[0])
	assert.Equal(t, f.at(time.June, 10, 19, 0), slots[len(slots)-1])
	assert.Contains(t, slots, f.at(time.June, 10, 13, 0))
	assert.Contains(t, slots, f.at(time.June, 10, 14, 30))
	assert.NotContains(t, slots, f.at(time.June, 10, 13, 30))
	assert.NotContains(t, slots, f.at(time.June, 10, 14, 0))
}

func TestAvailableSlotsSkipsPastTimes(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(f.at(time.June, 2, 18, 10))

	slots, err := f.checker.AvailableSlots(context.Background(), f.store, f.salon.ID, &f.service, f.at(time.June, 2, 0, 0), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		f.at(time.June, 2, 18, 30),
		f.at(time.June, 2, 19, 0),
		f.at(time.June, 2, 19, 30),
	}, slots)
}

func TestAvailableSlotsRejectsBadStep(t *testing.T) {
	f := newFixture(t)
	_, err := f.checker.AvailableSlots(context.Background(), f.store, f.salon.ID, &f.service, f.at(time.June, 10, 0, 0), 0)
	assert.ErrorIs(t, err, services.ErrInvalidRequest)
}
