package controllers

import (
	"errors"
	"net/http"

	"salonbook-backend/models"
	"salonbook-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AddEmployeeInput struct {
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=owner employee"`
}

type UpdateEmployeeInput struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role" binding:"omitempty,oneof=owner employee"`
	IsActive *bool   `json:"isActive"`
}

func (h *Handler) GetEmployees(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}

	var users []models.User
	if err := h.DB.Where("salon_id = ?", salonID).Order("name").Find(&users).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve employees")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) AddEmployee(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}

	var input AddEmployeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Phone != "" && !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	var existing models.User
	if err := h.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email already registered")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	role := input.Role
	if role == "" {
		role = models.RoleEmployee
	}
	user := models.User{
		Email:    input.Email,
		Phone:    input.Phone,
		Name:     input.Name,
		Password: input.Password,
		Role:     role,
		SalonID:  salonID,
		IsActive: true,
	}
	if err := h.DB.Omit("Salon").Create(&user).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create employee")
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *Handler) UpdateEmployee(c *gin.Context) {
	user, ok := h.loadEmployee(c)
	if !ok {
		return
	}

	var input UpdateEmployeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := h.DB.Omit("Salon").Save(user).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update employee")
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteEmployee deactivates the account. Owners cannot remove themselves.
func (h *Handler) DeleteEmployee(c *gin.Context) {
	user, ok := h.loadEmployee(c)
	if !ok {
		return
	}
	if self, _ := utils.UserID(c); self == user.ID {
		utils.RespondWithError(c, http.StatusBadRequest, "Cannot deactivate your own account")
		return
	}

	if err := h.DB.Model(user).Update("is_active", false).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to deactivate employee")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Employee deactivated"})
}

func (h *Handler) loadEmployee(c *gin.Context) (*models.User, bool) {
	salonID, ok := h.salon(c)
	if !ok {
		return nil, false
	}
	id, ok := paramID(c, "employee")
	if !ok {
		return nil, false
	}

	var user models.User
	if err := h.DB.Where("salon_id = ? AND id = ?", salonID, id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Employee not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &user, true
}
