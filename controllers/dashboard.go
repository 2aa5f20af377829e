package controllers

import (
	"fmt"
	"net/http"
	"time"

	"salonbook-backend/models"
	"salonbook-backend/utils"

	"github.com/gin-gonic/gin"
)

type UpcomingAppointment struct {
	ID          string    `json:"id"`
	ClientName  string    `json:"clientName"`
	ServiceName string    `json:"serviceName"`
	StartTime   time.Time `json:"startTime"`
	Status      string    `json:"status"`
	When        string    `json:"when"` // e.g. "Today", "Tomorrow", "3 days"
}

type FailedDelivery struct {
	AppointmentID string    `json:"appointmentId"`
	Channel       string    `json:"channel"`
	Recipient     string    `json:"recipient"`
	Error         string    `json:"error"`
	SentAt        time.Time `json:"sentAt"`
}

func (h *Handler) GetDashboardOverview(c *gin.Context) {
	salonID, ok := h.salon(c)
	if !ok {
		return
	}

	loc := h.Hours.Location
	if loc == nil {
		loc = time.UTC
	}
	now := h.now().In(loc)
	today := utils.BeginningOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	weekAhead := today.AddDate(0, 0, 7)

	// Active clients
	var totalClients int64
	if err := h.DB.Model(&models.Client{}).
		Where("salon_id = ? AND is_active = ?", salonID, true).
		Count(&totalClients).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	// Today's appointments by status
	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := h.DB.Model(&models.Appointment{}).
		Select("status, COUNT(*) AS count").
		Where("salon_id = ? AND start_time >= ? AND start_time < ?", salonID, today, tomorrow).
		Group("status").
		Scan(&counts).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	todayByStatus := gin.H{}
	var todayTotal int64
	for _, sc := range counts {
		todayByStatus[sc.Status] = sc.Count
		todayTotal += sc.Count
	}

	// Upcoming appointments for the next 7 days
	var appts []models.Appointment
	if err := h.DB.Preload("Client").Preload("Service").
		Where("salon_id = ? AND status IN ? AND start_time >= ? AND start_time < ?",
			salonID, models.ActiveStatuses, now, weekAhead).
		Order("start_time").
		Limit(10).
		Find(&appts).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	upcoming := make([]UpcomingAppointment, 0, len(appts))
	for _, a := range appts {
		u := UpcomingAppointment{
			ID:        a.ID.String(),
			StartTime: a.StartTime,
			Status:    string(a.Status),
			When:      dayLabel(utils.DaysBetween(now, a.StartTime.In(loc))),
		}
		if a.Client != nil {
			u.ClientName = a.Client.Name
		}
		if a.Service != nil {
			u.ServiceName = a.Service.Name
		}
		upcoming = append(upcoming, u)
	}

	// Reminders still waiting to go out
	var pendingReminders int64
	if err := h.DB.Model(&models.Reminder{}).
		Joins("JOIN appointments ON appointments.id = reminders.appointment_id").
		Where("appointments.salon_id = ? AND appointments.status IN ?", salonID, models.ActiveStatuses).
		Where("reminders.sent = ? AND reminders.skip_reason = ''", false).
		Count(&pendingReminders).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	// Failed deliveries in the last 7 days
	var failedRows []models.SentReminder
	if err := h.DB.Model(&models.SentReminder{}).
		Joins("JOIN appointments ON appointments.id = sent_reminders.appointment_id").
		Where("appointments.salon_id = ? AND sent_reminders.status = ? AND sent_reminders.sent_at >= ?",
			salonID, models.DeliveryFailed, now.AddDate(0, 0, -7)).
		Order("sent_reminders.sent_at DESC").
		Limit(20).
		Find(&failedRows).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	failed := make([]FailedDelivery, 0, len(failedRows))
	for _, r := range failedRows {
		failed = append(failed, FailedDelivery{
			AppointmentID: r.AppointmentID.String(),
			Channel:       string(r.Channel),
			Recipient:     r.Recipient,
			Error:         r.ErrorMessage,
			SentAt:        r.SentAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"totalClients": totalClients,
		"today": gin.H{
			"total":    todayTotal,
			"byStatus": todayByStatus,
		},
		"upcomingAppointments": upcoming,
		"pendingReminders":     pendingReminders,
		"failedDeliveries":     failed,
	})
}

func dayLabel(days int) string {
	switch days {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return fmt.Sprintf("%d days", days)
	}
}
