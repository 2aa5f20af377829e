// controllers/reminder.go
package controllers

import (
	"errors"
	"net/http"
	"strings"

	"salonbook-backend/models"
	"salonbook-backend/notifications"
	"salonbook-backend/services"
	"salonbook-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateReminderTemplateInput defines the expected JSON structure
type CreateReminderTemplateInput struct {
	OffsetMinutes int    `json:"offsetMinutes" binding:"required,min=1"`
	Subject       string `json:"subject"`
	Message       string `json:"message" binding:"required"`
}

// UpdateReminderTemplateInput defines the expected JSON structure
type UpdateReminderTemplateInput struct {
	Subject  *string `json:"subject"`
	Message  *string `json:"message"`
	IsActive *bool   `json:"isActive"`
}

// CreateReminderTemplate creates a new reminder template
func (h *Handler) CreateReminderTemplate(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}

	var input CreateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	template := models.ReminderTemplate{
		SalonID:       salonID,
		OffsetMinutes: input.OffsetMinutes,
		Subject:       input.Subject,
		Message:       input.Message,
		IsActive:      true,
	}
	if err := services.ValidateTemplate(&template); err != nil {
		h.respondError(c, err)
		return
	}

	// Check if a template already exists for this offset
	var existing models.ReminderTemplate
	if err := h.DB.Where("salon_id = ? AND offset_minutes = ?", salonID, input.OffsetMinutes).
		First(&existing).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Template for this offset already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	if err := h.DB.Create(&template).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create template")
		return
	}

	c.JSON(http.StatusCreated, template)
}

// GetReminderTemplates retrieves all reminder templates for the salon
func (h *Handler) GetReminderTemplates(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}

	var templates []models.ReminderTemplate
	if err := h.DB.Where("salon_id = ?", salonID).Order("offset_minutes DESC").Find(&templates).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve templates")
		return
	}

	c.JSON(http.StatusOK, templates)
}

// GetReminderTemplate returns the template with a rendered preview.
func (h *Handler) GetReminderTemplate(c *gin.Context) {
	template, ok := h.loadTemplate(c)
	if !ok {
		return
	}

	var salon models.Salon
	if err := h.DB.First(&salon, "id = ?", template.SalonID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"template": template,
		"preview":  services.PreviewTemplate(template.Message, salon.Name, h.Hours.Location),
	})
}

// UpdateReminderTemplate updates an existing template
func (h *Handler) UpdateReminderTemplate(c *gin.Context) {
	template, ok := h.loadTemplate(c)
	if !ok {
		return
	}

	var input UpdateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Subject != nil {
		template.Subject = *input.Subject
	}
	if input.Message != nil {
		template.Message = *input.Message
	}
	if input.IsActive != nil {
		template.IsActive = *input.IsActive
	}
	if err := services.ValidateTemplate(template); err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.DB.Save(template).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update template")
		return
	}

	c.JSON(http.StatusOK, template)
}

// DeleteReminderTemplate deletes a template; reminders fall back to the
// built-in message.
func (h *Handler) DeleteReminderTemplate(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "template")
	if !ok {
		return
	}

	result := h.DB.Where("salon_id = ? AND id = ?", salonID, id).Delete(&models.ReminderTemplate{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete template")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Template not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}

// ProcessReminders runs one reminder sweep now. Reminders of every salon are
// processed; the response only counts deliveries.
func (h *Handler) ProcessReminders(c *gin.Context) {
	records, err := h.Reminders.ProcessDueReminders(c.Request.Context(), h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}

	sent, failed := 0, 0
	for _, r := range records {
		if r.Status.Successful() {
			sent++
		} else {
			failed++
		}
	}
	c.JSON(http.StatusOK, gin.H{"sent": sent, "failed": failed})
}

// TwilioStatusCallback records delivery status updates posted by Twilio.
func (h *Handler) TwilioStatusCallback(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid form")
		return
	}

	if h.TwilioValidator != nil {
		params := make(map[string]string, len(c.Request.PostForm))
		for k, v := range c.Request.PostForm {
			params[k] = strings.Join(v, "")
		}
		url := h.Config.TwilioStatusCallback
		if url == "" {
			url = requestURL(c)
		}
		if !h.TwilioValidator.Validate(url, params, c.GetHeader("X-Twilio-Signature")) {
			utils.RespondWithError(c, http.StatusForbidden, "Invalid signature")
			return
		}
	}

	sid := c.PostForm("MessageSid")
	if sid == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "MessageSid is required")
		return
	}
	status := notifications.MapTwilioStatus(c.PostForm("MessageStatus"))

	err := h.Reminders.UpdateDeliveryStatus(c.Request.Context(), sid, status)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		h.respondError(c, err)
		return
	}
	if err != nil {
		h.Logger.Debug("status callback for unknown message", zap.String("sid", sid))
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) loadTemplate(c *gin.Context) (*models.ReminderTemplate, bool) {
	salonID, ok := h.salon(c)
	if !ok {
		return nil, false
	}
	id, ok := paramID(c, "template")
	if !ok {
		return nil, false
	}

	var template models.ReminderTemplate
	if err := h.DB.Where("salon_id = ? AND id = ?", salonID, id).First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Template not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &template, true
}

func requestURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.RequestURI()
}
