package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"salonbook-backend/models"
	"salonbook-backend/services"
	"salonbook-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CreateAppointmentInput struct {
	ClientID  uuid.UUID `json:"clientId" binding:"required"`
	ServiceID uuid.UUID `json:"serviceId" binding:"required"`
	StartTime time.Time `json:"startTime" binding:"required"`
	Notes     string    `json:"notes"`
}

type RescheduleInput struct {
	StartTime time.Time `json:"startTime" binding:"required"`
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}

	var input CreateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithReason(c, http.StatusBadRequest, "invalid_request", "Invalid input: "+err.Error())
		return
	}

	appt, err := h.Appointments.Create(c.Request.Context(), services.CreateAppointmentInput{
		SalonID:   salonID,
		ClientID:  input.ClientID,
		ServiceID: input.ServiceID,
		Start:     input.StartTime,
		Notes:     input.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, appt)
}

// ListAppointments accepts from/to (RFC 3339), status, clientId and limit.
func (h *Handler) ListAppointments(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}

	var filter services.AppointmentFilter
	if v := c.Query("from"); v != "" {
		t, err := utils.ParseTimestamp(v)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		filter.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := utils.ParseTimestamp(v)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		filter.To = &t
	}
	if v := c.Query("clientId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
			return
		}
		filter.ClientID = &id
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = n
	}
	filter.Status = models.AppointmentStatus(c.Query("status"))

	appts, err := h.Appointments.List(c.Request.Context(), salonID, filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appts)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "appointment")
	if !ok {
		return
	}

	appt, err := h.Appointments.Get(c.Request.Context(), salonID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// CheckAvailability checks one slot: ?serviceId=&start=RFC3339.
func (h *Handler) CheckAvailability(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}
	serviceID, err := uuid.Parse(c.Query("serviceId"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid service ID format")
		return
	}
	start, err := utils.ParseTimestamp(c.Query("start"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.Appointments.IsSlotAvailable(c.Request.Context(), salonID, serviceID, start)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetAvailableSlots lists free start times: ?serviceId=&date=YYYY-MM-DD.
func (h *Handler) GetAvailableSlots(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}
	serviceID, err := uuid.Parse(c.Query("serviceId"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid service ID format")
		return
	}
	day, err := utils.ParseDay(c.Query("date"), h.Hours.Location)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	slots, err := h.Appointments.AvailableSlots(c.Request.Context(), salonID, serviceID, day, h.Config.SlotStep)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if slots == nil {
		slots = []time.Time{}
	}
	c.JSON(http.StatusOK, gin.H{
		"date":  day.Format("2006-01-02"),
		"slots": slots,
	})
}

func (h *Handler) RescheduleAppointment(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "appointment")
	if !ok {
		return
	}

	var input RescheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithReason(c, http.StatusBadRequest, "invalid_request", "Invalid input: "+err.Error())
		return
	}

	appt, err := h.Appointments.Reschedule(c.Request.Context(), salonID, id, input.StartTime)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	h.transition(c, h.Appointments.Cancel)
}

func (h *Handler) ConfirmAppointment(c *gin.Context) {
	h.transition(c, h.Appointments.Confirm)
}

func (h *Handler) CompleteAppointment(c *gin.Context) {
	h.transition(c, h.Appointments.Complete)
}

func (h *Handler) MarkNoShow(c *gin.Context) {
	h.transition(c, h.Appointments.MarkNoShow)
}

type transitionFunc func(ctx context.Context, salonID, appointmentID uuid.UUID) (*models.Appointment, error)

func (h *Handler) transition(c *gin.Context, fn transitionFunc) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "appointment")
	if !ok {
		return
	}

	appt, err := fn(c.Request.Context(), salonID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// GetAppointmentReminders returns the reminder rows and delivery log.
func (h *Handler) GetAppointmentReminders(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "appointment")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Appointments.Get(ctx, salonID, id); err != nil {
		h.respondError(c, err)
		return
	}
	reminders, deliveries, err := h.Reminders.History(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reminders":  reminders,
		"deliveries": deliveries,
	})
}
