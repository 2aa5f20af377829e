// Package testutil provides in-memory fakes for service and handler tests.
package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"salonbook-backend/models"
	"salonbook-backend/services"

	"github.com/google/uuid"
)

// MemoryStore implements services.Store and services.ReminderStore in
// memory. WithCalendarLock serializes per salon and restores the previous
// state when fn fails.
type MemoryStore struct {
	lockMu sync.Mutex
	locks  map[uuid.UUID]*sync.Mutex

	mu           sync.Mutex
	salons       map[uuid.UUID]models.Salon
	clients      map[uuid.UUID]models.Client
	services     map[uuid.UUID]models.Service
	appointments map[uuid.UUID]models.Appointment
	blocks       map[uuid.UUID]models.BlockedSchedule
	reminders    map[uuid.UUID]models.Reminder
	sent         []models.SentReminder
	prefs        map[uuid.UUID]models.NotificationPreference
	templates    map[uuid.UUID]models.ReminderTemplate

	// FailSaveSentReminder makes SaveSentReminder return this error.
	FailSaveSentReminder error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locks:        make(map[uuid.UUID]*sync.Mutex),
		salons:       make(map[uuid.UUID]models.Salon),
		clients:      make(map[uuid.UUID]models.Client),
		services:     make(map[uuid.UUID]models.Service),
		appointments: make(map[uuid.UUID]models.Appointment),
		blocks:       make(map[uuid.UUID]models.BlockedSchedule),
		reminders:    make(map[uuid.UUID]models.Reminder),
		prefs:        make(map[uuid.UUID]models.NotificationPreference),
		templates:    make(map[uuid.UUID]models.ReminderTemplate),
	}
}

var (
	_ services.Store         = (*MemoryStore)(nil)
	_ services.ReminderStore = (*MemoryStore)(nil)
)

// Fixture helpers.

func (s *MemoryStore) AddSalon(salon models.Salon) models.Salon {
	s.mu.Lock()
	defer s.mu.Unlock()
	if salon.ID == uuid.Nil {
		salon.ID = uuid.New()
	}
	s.salons[salon.ID] = salon
	return salon
}

func (s *MemoryStore) AddClient(client models.Client) models.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	if client.NotificationPreference != nil {
		pref := *client.NotificationPreference
		pref.ClientID = client.ID
		s.prefs[client.ID] = pref
		client.NotificationPreference = nil
	}
	s.clients[client.ID] = client
	return client
}

func (s *MemoryStore) AddService(service models.Service) models.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	if service.ID == uuid.Nil {
		service.ID = uuid.New()
	}
	s.services[service.ID] = service
	return service
}

func (s *MemoryStore) AddBlock(block models.BlockedSchedule) models.BlockedSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	if block.ID == uuid.Nil {
		block.ID = uuid.New()
	}
	s.blocks[block.ID] = block
	return block
}

func (s *MemoryStore) AddTemplate(t models.ReminderTemplate) models.ReminderTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	s.templates[t.ID] = t
	return t
}

func (s *MemoryStore) SetPreference(pref models.NotificationPreference) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[pref.ClientID] = pref
}

// PutAppointment stores an appointment as is, bypassing every check.
func (s *MemoryStore) PutAppointment(appt models.Appointment) models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	if appt.EndTime.IsZero() {
		appt.EndTime = appt.StartTime.Add(time.Duration(appt.DurationMinutes) * time.Minute)
	}
	appt.Client, appt.Service = nil, nil
	s.appointments[appt.ID] = appt
	return appt
}

// Appointment returns the stored appointment.
func (s *MemoryStore) Appointment(id uuid.UUID) (models.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	return a, ok
}

// Appointments returns every stored appointment ordered by start time.
func (s *MemoryStore) Appointments() []models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// RemindersFor returns the reminders of an appointment ordered by time.
func (s *MemoryStore) RemindersFor(appointmentID uuid.UUID) []models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remindersFor(appointmentID)
}

// SentReminders returns every delivery record.
func (s *MemoryStore) SentReminders() []models.SentReminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SentReminder(nil), s.sent...)
}

// CalendarStore.

func (s *MemoryStore) WithCalendarLock(ctx context.Context, salonID uuid.UUID, fn func(services.CalendarStore) error) error {
	l := s.salonLock(salonID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *MemoryStore) FindConflictingAppointments(_ context.Context, salonID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Appointment
	for _, a := range s.appointments {
		if a.SalonID != salonID || !a.Status.Active() {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.Overlaps(start, end) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *MemoryStore) FindBlockingSchedules(_ context.Context, salonID uuid.UUID, start, end time.Time) ([]models.BlockedSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.BlockedSchedule
	for _, b := range s.blocks {
		if b.SalonID == salonID && b.Overlaps(start, end) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *MemoryStore) FindService(_ context.Context, salonID, serviceID uuid.UUID) (*models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[serviceID]
	if !ok || svc.SalonID != salonID {
		return nil, services.ErrNotFound
	}
	return &svc, nil
}

func (s *MemoryStore) FindClient(_ context.Context, salonID, clientID uuid.UUID) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok || c.SalonID != salonID {
		return nil, services.ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) FindAppointment(_ context.Context, salonID, appointmentID uuid.UUID) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[appointmentID]
	if !ok || a.SalonID != salonID {
		return nil, services.ErrNotFound
	}
	s.attach(&a)
	return &a, nil
}

func (s *MemoryStore) LockAppointment(ctx context.Context, salonID, appointmentID uuid.UUID) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[appointmentID]
	if !ok || a.SalonID != salonID {
		return nil, services.ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) ListAppointments(_ context.Context, salonID uuid.UUID, filter services.AppointmentFilter) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Appointment
	for _, a := range s.appointments {
		if a.SalonID != salonID {
			continue
		}
		if filter.From != nil && a.StartTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !a.StartTime.Before(*filter.To) {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.ClientID != nil && a.ClientID != *filter.ClientID {
			continue
		}
		s.attach(&a)
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) SaveAppointment(_ context.Context, appt *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
		appt.CreatedAt = now
	}
	appt.UpdatedAt = now
	stored := *appt
	stored.Client, stored.Service = nil, nil
	s.appointments[appt.ID] = stored
	return nil
}

func (s *MemoryStore) SaveReminder(_ context.Context, reminder *models.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveReminder(reminder)
}

func (s *MemoryStore) DeleteUnsentReminders(_ context.Context, appointmentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.reminders {
		if r.AppointmentID == appointmentID && !r.Sent {
			delete(s.reminders, id)
		}
	}
	return nil
}

// ReminderStore.

func (s *MemoryStore) FindDueReminders(_ context.Context, now time.Time, maxAttempts, limit int) ([]services.DueReminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []services.DueReminder
	for _, r := range s.reminders {
		if r.Sent || r.SkipReason != "" || r.Attempts >= maxAttempts || r.ScheduledTime.After(now) {
			continue
		}
		a, ok := s.appointments[r.AppointmentID]
		if !ok || !a.Status.Active() || !a.StartTime.After(now) || a.Revision != r.Revision {
			continue
		}
		d := services.DueReminder{
			Reminder:    r,
			Appointment: a,
			Client:      s.clients[a.ClientID],
			Service:     s.services[a.ServiceID],
			Salon:       s.salons[a.SalonID],
		}
		if pref, ok := s.prefs[a.ClientID]; ok {
			d.Preference = &pref
		}
		for _, t := range s.templates {
			if t.SalonID == a.SalonID && t.OffsetMinutes == r.OffsetMinutes && t.IsActive {
				t := t
				d.Template = &t
			}
		}
		due = append(due, d)
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].Reminder.ScheduledTime.Before(due[j].Reminder.ScheduledTime)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *MemoryStore) FindReminder(_ context.Context, id uuid.UUID) (*models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return &r, nil
}

func (s *MemoryStore) SuccessfulChannels(_ context.Context, reminderID uuid.UUID) ([]models.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Channel
	seen := make(map[models.Channel]bool)
	for _, r := range s.sent {
		if r.ReminderID == reminderID && r.Status.Successful() && !seen[r.Channel] {
			seen[r.Channel] = true
			out = append(out, r.Channel)
		}
	}
	return out, nil
}

// ErrDuplicateDelivery mirrors the unique index on successful deliveries.
var ErrDuplicateDelivery = errors.New("duplicate successful delivery")

func (s *MemoryStore) SaveSentReminder(_ context.Context, record *models.SentReminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaveSentReminder != nil {
		return s.FailSaveSentReminder
	}
	if record.Status.Successful() {
		for _, r := range s.sent {
			if r.ReminderID == record.ReminderID && r.Channel == record.Channel && r.Status.Successful() {
				return ErrDuplicateDelivery
			}
		}
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.sent = append(s.sent, *record)
	return nil
}

func (s *MemoryStore) MarkReminderSent(_ context.Context, reminder *models.Reminder, appointmentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveReminder(reminder); err != nil {
		return err
	}
	if a, ok := s.appointments[appointmentID]; ok {
		a.ReminderSent = true
		s.appointments[appointmentID] = a
	}
	return nil
}

func (s *MemoryStore) ListReminders(_ context.Context, appointmentID uuid.UUID) ([]models.Reminder, []models.SentReminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sent []models.SentReminder
	for _, r := range s.sent {
		if r.AppointmentID == appointmentID {
			sent = append(sent, r)
		}
	}
	return s.remindersFor(appointmentID), sent, nil
}

func (s *MemoryStore) UpdateDeliveryStatus(_ context.Context, externalID string, status models.DeliveryStatus, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.sent {
		if s.sent[i].ExternalID == externalID {
			s.sent[i].Status = status
			t := at
			s.sent[i].StatusUpdatedAt = &t
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) saveReminder(reminder *models.Reminder) error {
	if reminder.ID == uuid.Nil {
		for _, r := range s.reminders {
			if r.AppointmentID == reminder.AppointmentID && r.OffsetMinutes == reminder.OffsetMinutes && r.Revision == reminder.Revision {
				return errors.New("duplicate reminder")
			}
		}
		reminder.ID = uuid.New()
	}
	s.reminders[reminder.ID] = *reminder
	return nil
}

func (s *MemoryStore) remindersFor(appointmentID uuid.UUID) []models.Reminder {
	var out []models.Reminder
	for _, r := range s.reminders {
		if r.AppointmentID == appointmentID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revision != out[j].Revision {
			return out[i].Revision < out[j].Revision
		}
		return out[i].ScheduledTime.Before(out[j].ScheduledTime)
	})
	return out
}

func (s *MemoryStore) attach(a *models.Appointment) {
	if c, ok := s.clients[a.ClientID]; ok {
		a.Client = &c
	}
	if svc, ok := s.services[a.ServiceID]; ok {
		a.Service = &svc
	}
}

func (s *MemoryStore) salonLock(salonID uuid.UUID) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.locks[salonID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[salonID] = l
	}
	return l
}

type snapshot struct {
	appointments map[uuid.UUID]models.Appointment
	reminders    map[uuid.UUID]models.Reminder
}

func (s *MemoryStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		appointments: make(map[uuid.UUID]models.Appointment, len(s.appointments)),
		reminders:    make(map[uuid.UUID]models.Reminder, len(s.reminders)),
	}
	for k, v := range s.appointments {
		snap.appointments[k] = v
	}
	for k, v := range s.reminders {
		snap.reminders[k] = v
	}
	return snap
}

func (s *MemoryStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments = snap.appointments
	s.reminders = snap.reminders
}
