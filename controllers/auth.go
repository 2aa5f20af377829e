package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"salonbook-backend/models"
	"salonbook-backend/services"
	"salonbook-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Password     string `json:"password" binding:"required,min=8"`
	SalonName    string `json:"salonName" binding:"required"`
	SalonAddress string `json:"salonAddress"`
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // Can be email or phone
	Password   string `json:"password" binding:"required"`
}

// Register creates a salon, its owner account and the default reminder
// templates in one transaction.
func (h *Handler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	// Check if email or phone already exists
	var existing models.User
	result := h.DB.Where("email = ? OR phone = ?", input.Email, input.Phone).First(&existing)
	if result.Error == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email or phone already registered")
		return
	} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	salon := models.Salon{
		Name:               input.SalonName,
		Address:            input.SalonAddress,
		Phone:              input.Phone,
		EmailNotifications: true,
		SMSNotifications:   true,
	}
	user := models.User{
		Email:    input.Email,
		Phone:    input.Phone,
		Name:     input.Name,
		Password: input.Password, // Will be hashed in BeforeCreate hook
		Role:     models.RoleOwner,
		IsActive: true,
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&salon).Error; err != nil {
			return err
		}
		user.SalonID = salon.ID
		if err := tx.Omit("Salon").Create(&user).Error; err != nil {
			return err
		}
		templates := services.DefaultTemplates(salon.ID, h.Offsets)
		if len(templates) == 0 {
			return nil
		}
		return tx.Create(&templates).Error
	})
	if err != nil {
		h.Logger.Error("register salon", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	token, err := utils.GenerateToken(h.Config.JWTSecret, h.Config.JWTExpiryHours, user.ID, salon.ID, user.Role)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	h.setTokenCookie(c, token)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user":    userResponse(user, salon),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	identifier := strings.TrimSpace(input.Identifier)

	var user models.User
	result := h.DB.Preload("Salon").Where("email = ? OR phone = ?", identifier, identifier).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if !user.IsActive || !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateToken(h.Config.JWTSecret, h.Config.JWTExpiryHours, user.ID, user.SalonID, user.Role)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	// Update last login
	now := time.Now()
	if err := h.DB.Model(&user).Update("last_login", &now).Error; err != nil {
		h.Logger.Warn("update last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	h.setTokenCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userResponse(user, user.Salon),
	})
}

func (h *Handler) Me(c *gin.Context) {
	userID, ok := utils.UserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var user models.User
	if err := h.DB.Preload("Salon").First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userResponse(user, user.Salon)})
}

func (h *Handler) setTokenCookie(c *gin.Context, token string) {
	expiryHours := h.Config.JWTExpiryHours
	if expiryHours <= 0 {
		expiryHours = 24
	}
	c.SetCookie("token", token, expiryHours*3600, "/", "", true, true)
}

func userResponse(user models.User, salon models.Salon) gin.H {
	return gin.H{
		"id":        user.ID,
		"email":     user.Email,
		"phone":     user.Phone,
		"name":      user.Name,
		"role":      user.Role,
		"salonId":   user.SalonID,
		"salonName": salon.Name,
	}
}
