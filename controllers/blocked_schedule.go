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

type BlockedScheduleInput struct {
	StartTime time.Time `json:"startTime" binding:"required"`
	EndTime   time.Time `json:"endTime" binding:"required"`
	Reason    string    `json:"reason"`
}

func (in BlockedScheduleInput) valid() bool {
	return in.EndTime.After(in.StartTime)
}

func (h *Handler) CreateBlockedSchedule(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}

	var input BlockedScheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !input.valid() {
		utils.RespondWithError(c, http.StatusBadRequest, "endTime must be after startTime")
		return
	}

	block := models.BlockedSchedule{
		SalonID:   salonID,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Reason:    input.Reason,
	}
	if err := h.DB.Create(&block).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create blocked schedule")
		return
	}

	c.JSON(http.StatusCreated, block)
}

// GetBlockedSchedules lists blocks ending after ?from (default now).
func (h *Handler) GetBlockedSchedules(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}

	from := time.Now()
	if v := c.Query("from"); v != "" {
		t, err := utils.ParseTimestamp(v)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		from = t
	}

	var blocks []models.BlockedSchedule
	if err := h.DB.Where("salon_id = ? AND end_time > ?", salonID, from).
		Order("start_time").Find(&blocks).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve blocked schedules")
		return
	}

	c.JSON(http.StatusOK, blocks)
}

func (h *Handler) GetBlockedSchedule(c *gin.Context) {
	block, ok := h.loadBlockedSchedule(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, block)
}

// UpdateBlockedSchedule replaces the period. Appointments already booked
// inside it are left alone.
func (h *Handler) UpdateBlockedSchedule(c *gin.Context) {
	block, ok := h.loadBlockedSchedule(c)
	if !ok {
		return
	}

	var input BlockedScheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !input.valid() {
		utils.RespondWithError(c, http.StatusBadRequest, "endTime must be after startTime")
		return
	}

	block.StartTime = input.StartTime
	block.EndTime = input.EndTime
	block.Reason = input.Reason
	if err := h.DB.Save(block).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update blocked schedule")
		return
	}

	c.JSON(http.StatusOK, block)
}

func (h *Handler) DeleteBlockedSchedule(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "blocked schedule")
	if !ok {
		return
	}

	result := h.DB.Where("salon_id = ? AND id = ?", salonID, id).Delete(&models.BlockedSchedule{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete blocked schedule")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Blocked schedule not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Blocked schedule deleted"})
}

func (h *Handler) loadBlockedSchedule(c *gin.Context) (*models.BlockedSchedule, bool) {
	salonID, ok := h.salon(c)
	if !ok {
		return nil, false
	}
	id, ok := paramID(c, "blocked schedule")
	if !ok {
		return nil, false
	}

	var block models.BlockedSchedule
	if err := h.DB.Where("salon_id = ? AND id = ?", salonID, id).First(&block).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Blocked schedule not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &block, true
}
