package controllers

import (
	"errors"
	"net/http"
	"time"

	"salonbook-backend/models"
	"salonbook-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateClientInput struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
	Email string `json:"email"`
	Notes string `json:"notes"`
}

type UpdateClientInput struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Notes    *string `json:"notes"`
	IsActive *bool   `json:"isActive"`
}

type UpdatePreferencesInput struct {
	EmailEnabled    *bool   `json:"emailEnabled"`
	SMSEnabled      *bool   `json:"smsEnabled"`
	WhatsAppEnabled *bool   `json:"whatsappEnabled"`
	Reminder24h     *bool   `json:"reminder24h"`
	Reminder2h      *bool   `json:"reminder2h"`
	Timezone        *string `json:"timezone"`
}

// CreateClient creates a new client for the salon
func (h *Handler) CreateClient(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}
	userID, _ := utils.UserID(c)

	var input CreateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}
	if input.Email != "" && !utils.ValidateEmail(input.Email) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid email format")
		return
	}
	phone := utils.NormalizePhone(input.Phone)

	// Check if phone already exists for this salon
	var existing models.Client
	if err := h.DB.Where("salon_id = ? AND phone = ?", salonID, phone).First(&existing).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Client with this phone number already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	client := models.Client{
		SalonID:         salonID,
		CreatedByUserID: userID,
		Name:            input.Name,
		Phone:           phone,
		Email:           input.Email,
		Notes:           input.Notes,
		IsActive:        true,
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("NotificationPreference").Create(&client).Error; err != nil {
			return err
		}
		pref := models.DefaultNotificationPreference(client.ID)
		if err := tx.Create(&pref).Error; err != nil {
			return err
		}
		client.NotificationPreference = &pref
		return nil
	})
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create client")
		return
	}

	c.JSON(http.StatusCreated, client)
}

// GetClients lists the salon's clients. ?active=false includes deactivated ones.
func (h *Handler) GetClients(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}

	q := h.DB.Where("salon_id = ?", salonID)
	if c.DefaultQuery("active", "true") != "false" {
		q = q.Where("is_active = ?", true)
	}
	var clients []models.Client
	if err := q.Order("name").Find(&clients).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve clients")
		return
	}

	c.JSON(http.StatusOK, clients)
}

func (h *Handler) GetClient(c *gin.Context) {
	client, ok := h.loadClient(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *Handler) UpdateClient(c *gin.Context) {
	client, ok := h.loadClient(c)
	if !ok {
		return
	}

	var input UpdateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Name != nil {
		client.Name = *input.Name
	}
	if input.Phone != nil {
		if !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		phone := utils.NormalizePhone(*input.Phone)
		if phone != client.Phone {
			var existing models.Client
			if err := h.DB.Where("salon_id = ? AND phone = ?", client.SalonID, phone).First(&existing).Error; err == nil {
				utils.RespondWithError(c, http.StatusConflict, "Another client with this phone number already exists")
				return
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
				return
			}
		}
		client.Phone = phone
	}
	if input.Email != nil {
		if *input.Email != "" && !utils.ValidateEmail(*input.Email) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid email format")
			return
		}
		client.Email = *input.Email
	}
	if input.Notes != nil {
		client.Notes = *input.Notes
	}
	if input.IsActive != nil {
		client.IsActive = *input.IsActive
	}

	if err := h.DB.Omit("NotificationPreference").Save(client).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update client")
		return
	}

	c.JSON(http.StatusOK, client)
}

// DeleteClient deactivates the client. Appointment history keeps pointing at
// the row.
func (h *Handler) DeleteClient(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}
	clientID, ok := paramID(c, "client")
	if !ok {
		return
	}

	result := h.DB.Model(&models.Client{}).
		Where("salon_id = ? AND id = ?", salonID, clientID).
		Update("is_active", false)
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to deactivate client")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Client deactivated"})
}

// GetClientPreferences returns stored preferences, or the defaults.
func (h *Handler) GetClientPreferences(c *gin.Context) {
	client, ok := h.loadClient(c)
	if !ok {
		return
	}
	if client.NotificationPreference == nil {
		pref := models.DefaultNotificationPreference(client.ID)
		c.JSON(http.StatusOK, pref)
		return
	}
	c.JSON(http.StatusOK, client.NotificationPreference)
}

func (h *Handler) UpdateClientPreferences(c *gin.Context) {
	client, ok := h.loadClient(c)
	if !ok {
		return
	}

	var input UpdatePreferencesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	pref := client.NotificationPreference
	if pref == nil {
		def := models.DefaultNotificationPreference(client.ID)
		pref = &def
	}
	if input.EmailEnabled != nil {
		pref.EmailEnabled = *input.EmailEnabled
	}
	if input.SMSEnabled != nil {
		pref.SMSEnabled = *input.SMSEnabled
	}
	if input.WhatsAppEnabled != nil {
		pref.WhatsAppEnabled = *input.WhatsAppEnabled
	}
	if input.Reminder24h != nil {
		pref.Reminder24h = *input.Reminder24h
	}
	if input.Reminder2h != nil {
		pref.Reminder2h = *input.Reminder2h
	}
	if input.Timezone != nil {
		if *input.Timezone != "" {
			if _, err := time.LoadLocation(*input.Timezone); err != nil {
				utils.RespondWithError(c, http.StatusBadRequest, "Unknown timezone")
				return
			}
		}
		pref.Timezone = *input.Timezone
	}

	if err := h.DB.Save(pref).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update preferences")
		return
	}

	c.JSON(http.StatusOK, pref)
}

func (h *Handler) loadClient(c *gin.Context) (*models.Client, bool) {
	salonID, ok := h.salon(c)
	if !ok {
		return nil, false
	}
	clientID, ok := paramID(c, "client")
	if !ok {
		return nil, false
	}

	var client models.Client
	err := h.DB.Preload("NotificationPreference").
		Where("salon_id = ? AND id = ?", salonID, clientID).
		First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &client, true
}
