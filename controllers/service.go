// controllers/service.go
package controllers

import (
	"errors"
	"net/http"

	"salonbook-backend/models"
	"salonbook-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateServiceInput defines the expected JSON structure for creating a service
type CreateServiceInput struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"min=0"`
	Duration    int     `json:"duration" binding:"required,min=1"` // in minutes
	Category    string  `json:"category"`
}

// UpdateServiceInput defines the expected JSON structure for updating a service
type UpdateServiceInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
	Duration    *int     `json:"duration" binding:"omitempty,min=1"`
	Category    *string  `json:"category"`
	IsActive    *bool    `json:"isActive"`
}

// CreateService creates a new service for the salon
func (h *Handler) CreateService(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}

	var input CreateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	service := models.Service{
		SalonID:     salonID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Duration:    input.Duration,
		Category:    input.Category,
		IsActive:    true,
	}

	if err := h.DB.Create(&service).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create service")
		return
	}

	c.JSON(http.StatusCreated, service)
}

// GetServices retrieves all services for the salon
func (h *Handler) GetServices(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}

	q := h.DB.Where("salon_id = ?", salonID)
	if c.DefaultQuery("active", "true") != "false" {
		q = q.Where("is_active = ?", true)
	}
	var services []models.Service
	if err := q.Order("category, name").Find(&services).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve services")
		return
	}

	c.JSON(http.StatusOK, services)
}

// GetService retrieves a specific service by ID
func (h *Handler) GetService(c *gin.Context) {
	service, ok := h.loadService(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, service)
}

// UpdateService updates an existing service. Booked appointments keep the
// duration they were booked with.
func (h *Handler) UpdateService(c *gin.Context) {
	service, ok := h.loadService(c)
	if !ok {
		return
	}

	var input UpdateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Name != nil {
		service.Name = *input.Name
	}
	if input.Description != nil {
		service.Description = *input.Description
	}
	if input.Price != nil {
		service.Price = *input.Price
	}
	if input.Duration != nil {
		service.Duration = *input.Duration
	}
	if input.Category != nil {
		service.Category = *input.Category
	}
	if input.IsActive != nil {
		service.IsActive = *input.IsActive
	}

	if err := h.DB.Save(service).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update service")
		return
	}

	c.JSON(http.StatusOK, service)
}

// DeleteService deactivates a service; existing appointments still reference it.
func (h *Handler) DeleteService(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}
	serviceID, ok := paramID(c, "service")
	if !ok {
		return
	}

	result := h.DB.Model(&models.Service{}).
		Where("salon_id = ? AND id = ?", salonID, serviceID).
		Update("is_active", false)
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to deactivate service")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Service not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Service deactivated"})
}

func (h *Handler) loadService(c *gin.Context) (*models.Service, bool) {
	salonID, ok := h.salon(c)
	if !ok {
		return nil, false
	}
	serviceID, ok := paramID(c, "service")
	if !ok {
		return nil, false
	}

	var service models.Service
	if err := h.DB.Where("salon_id = ? AND id = ?", salonID, serviceID).First(&service).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Service not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &service, true
}
