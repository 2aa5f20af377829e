package controllers

import (
	"net/http"

	"salonbook-backend/models"
	"salonbook-backend/utils"

	"github.com/gin-gonic/gin"
)

type UpdateProfileInput struct {
	SalonName             *string `json:"salonName"`
	SalonAddress          *string `json:"salonAddress"`
	Phone                 *string `json:"phone"`
	EmailNotifications    *bool   `json:"emailNotifications"`
	SMSNotifications      *bool   `json:"smsNotifications"`
	WhatsAppNotifications *bool   `json:"whatsappNotifications"`
}

// GetProfile returns the salon profile with its business hours and channel
// switches.
func (h *Handler) GetProfile(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}

	var salon models.Salon
	if err := h.DB.First(&salon, "id = ?", salonID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Salon not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"salon": salon,
		"businessHours": gin.H{
			"open":     h.Config.BusinessOpen,
			"close":    h.Config.BusinessClose,
			"timezone": h.Config.Timezone,
			"closed":   h.Config.ClosedWeekdays,
		},
	})
}

// UpdateProfile changes salon details. Owner only.
func (h *Handler) UpdateProfile(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	var salon models.Salon
	if err := h.DB.First(&salon, "id = ?", salonID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Salon not found")
		return
	}

	if input.SalonName != nil {
		salon.Name = *input.SalonName
	}
	if input.SalonAddress != nil {
		salon.Address = *input.SalonAddress
	}
	if input.Phone != nil {
		if !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		salon.Phone = *input.Phone
	}
	if input.EmailNotifications != nil {
		salon.EmailNotifications = *input.EmailNotifications
	}
	if input.SMSNotifications != nil {
		salon.SMSNotifications = *input.SMSNotifications
	}
	if input.WhatsAppNotifications != nil {
		salon.WhatsAppNotifications = *input.WhatsAppNotifications
	}

	if err := h.DB.Save(&salon).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, salon)
}
