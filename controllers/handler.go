package controllers

import (
	"errors"
	"net/http"
	"time"

	"salonbook-backend/config"
	"salonbook-backend/services"
	"salonbook-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WebhookValidator checks a provider request signature.
type WebhookValidator interface {
	Validate(url string, params map[string]string, expectedSignature string) bool
}

// Handler carries the dependencies of every HTTP handler.
type Handler struct {
	DB           *gorm.DB
	Appointments *services.AppointmentService
	Reminders    *services.ReminderService
	Config       config.Config
	Hours        config.BusinessHours
	Offsets      []time.Duration
	Logger       *zap.Logger
	Clock        services.Clock
	// TwilioValidator is nil when webhook signatures are not checked.
	TwilioValidator WebhookValidator
}

func (h *Handler) now() time.Time {
	if h.Clock == nil {
		return time.Now()
	}
	return h.Clock.Now()
}

func (h *Handler) salon(c *gin.Context) (uuid.UUID, bool) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "Salon ID not found in context")
	}
	return salonID, ok
}

func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+name+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service errors to HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	var rejected *services.BookingError
	var transition *services.InvalidStateTransitionError
	switch {
	case errors.As(err, &rejected):
		status := http.StatusUnprocessableEntity
		switch rejected.Kind {
		case services.ErrInvalidRequest:
			status = http.StatusBadRequest
		case services.ErrConflict:
			status = http.StatusConflict
		}
		utils.RespondWithReason(c, status, rejected.Reason(), rejected.Error())
	case errors.As(err, &transition):
		utils.RespondWithReason(c, http.StatusConflict, "invalid_state_transition", transition.Error())
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		utils.RespondWithError(c, http.StatusNotFound, "Not found")
	default:
		h.Logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}
