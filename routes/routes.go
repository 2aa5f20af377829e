package routes

import (
	"net/http"

	"salonbook-backend/config"
	"salonbook-backend/controllers"
	"salonbook-backend/models"
	"salonbook-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(h *controllers.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     h.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger(h.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/webhooks/twilio/status", h.TwilioStatusCallback)

	authMW := utils.AuthMiddleware(h.Config.JWTSecret)
	ownerOnly := utils.RequireRole(models.RoleOwner)

	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)

		auth.GET("/me", authMW, h.Me)

		// Settings routes
		profile := auth.Group("/profile", authMW)
		{
			profile.GET("", h.GetProfile)
			profile.PUT("", ownerOnly, h.UpdateProfile)
		}
	}

	api := r.Group("/api")
	api.Use(authMW)
	{
		clients := api.Group("/clients")
		{
			clients.POST("", h.CreateClient)
			clients.GET("", h.GetClients)
			clients.GET("/:id", h.GetClient)
			clients.PUT("/:id", h.UpdateClient)
			clients.DELETE("/:id", h.DeleteClient)
			clients.GET("/:id/preferences", h.GetClientPreferences)
			clients.PUT("/:id/preferences", h.UpdateClientPreferences)
		}

		services := api.Group("/services")
		{
			services.GET("", h.GetServices)
			services.GET("/:id", h.GetService)
			services.POST("", ownerOnly, h.CreateService)
			services.PUT("/:id", ownerOnly, h.UpdateService)
			services.DELETE("/:id", ownerOnly, h.DeleteService)
		}

		blocked := api.Group("/blocked-schedules")
		{
			blocked.GET("", h.GetBlockedSchedules)
			blocked.GET("/:id", h.GetBlockedSchedule)
			blocked.POST("", ownerOnly, h.CreateBlockedSchedule)
			blocked.PUT("/:id", ownerOnly, h.UpdateBlockedSchedule)
			blocked.DELETE("/:id", ownerOnly, h.DeleteBlockedSchedule)
		}

		appointments := api.Group("/appointments")
		{
			appointments.POST("", h.CreateAppointment)
			appointments.GET("", h.ListAppointments)
			appointments.GET("/availability", h.CheckAvailability)
			appointments.GET("/slots", h.GetAvailableSlots)
			appointments.GET("/:id", h.GetAppointment)
			appointments.GET("/:id/reminders", h.GetAppointmentReminders)
			appointments.POST("/:id/reschedule", h.RescheduleAppointment)
			appointments.POST("/:id/cancel", h.CancelAppointment)
			appointments.POST("/:id/confirm", ownerOnly, h.ConfirmAppointment)
			appointments.POST("/:id/complete", ownerOnly, h.CompleteAppointment)
			appointments.POST("/:id/no-show", ownerOnly, h.MarkNoShow)
		}

		templates := api.Group("/reminder-templates", ownerOnly)
		{
			templates.POST("", h.CreateReminderTemplate)
			templates.GET("", h.GetReminderTemplates)
			templates.GET("/:id", h.GetReminderTemplate)
			templates.PUT("/:id", h.UpdateReminderTemplate)
			templates.DELETE("/:id", h.DeleteReminderTemplate)
		}

		api.POST("/reminders/process", ownerOnly, h.ProcessReminders)

		api.GET("/dashboard", h.GetDashboardOverview)

		employees := api.Group("/employees", ownerOnly)
		{
			employees.GET("", h.GetEmployees)
			employees.POST("", h.AddEmployee)
			employees.PUT("/:id", h.UpdateEmployee)
			employees.DELETE("/:id", h.DeleteEmployee)
		}
	}

	return r
}
