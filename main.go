package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salonbook-backend/config"
	"salonbook-backend/controllers"
	"salonbook-backend/models"
	"salonbook-backend/notifications"
	"salonbook-backend/repository"
	"salonbook-backend/routes"
	"salonbook-backend/services"
	"salonbook-backend/utils"

	"github.com/gin-gonic/gin"
	twilioclient "github.com/twilio/twilio-go/client"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hours, err := cfg.BusinessHours()
	if err != nil {
		return err
	}
	offsets, err := cfg.Offsets()
	if err != nil {
		return err
	}

	db, err := config.ConnectDB(cfg)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}
	logger.Info("database ready")

	var claimer services.Claimer = services.NewLocalClaimer()
	rdb, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		claimer = repository.NewRedisClaimer(rdb)
		logger.Info("redis reminder claims enabled", zap.String("addr", cfg.RedisAddr))
	}

	store := repository.NewGormStore(db)
	clock := services.SystemClock{}
	checker := services.NewAvailabilityChecker(hours, cfg.BookingBuffer, clock)
	appointments := services.NewAppointmentService(store, checker, offsets, clock, logger.Named("appointments"))
	reminders := services.NewReminderService(store, buildGateway(cfg, logger), claimer, clock, services.ReminderConfig{
		MaxAttempts: cfg.ReminderMaxAttempts,
		BatchSize:   cfg.ReminderBatchSize,
		ClaimTTL:    cfg.ReminderClaimTTL,
		Grace:       reminderGrace(cfg),
		Location:    hours.Location,
	}, logger.Named("reminders"))

	scheduler, err := utils.StartReminderScheduler(cfg.ReminderSweepInterval, logger, func() {
		reminders.RunSweep(ctx)
	})
	if err != nil {
		return err
	}
	defer func() {
		<-scheduler.Stop().Done()
	}()

	handler := &controllers.Handler{
		DB:           db,
		Appointments: appointments,
		Reminders:    reminders,
		Config:       cfg,
		Hours:        hours,
		Offsets:      offsets,
		Logger:       logger,
		Clock:        clock,
	}
	if cfg.TwilioValidateWebhook && cfg.TwilioAuthToken != "" {
		validator := twilioclient.NewRequestValidator(cfg.TwilioAuthToken)
		handler.TwilioValidator = &validator
	}

	gin.SetMode(gin.ReleaseMode)
	r := routes.SetupRouter(handler)
	if cfg.LogLevel == "debug" {
		printRoutes(r)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildGateway wires a sender per configured channel. Channels without
// credentials stay unregistered and reminders skip them.
func buildGateway(cfg config.Config, logger *zap.Logger) *notifications.Router {
	router := notifications.NewRouter()

	sms, whatsapp := notifications.NewTwilioSenders(notifications.TwilioConfig{
		AccountSID:        cfg.TwilioAccountSID,
		AuthToken:         cfg.TwilioAuthToken,
		PhoneNumber:       cfg.TwilioPhoneNumber,
		WhatsAppNumber:    cfg.TwilioWhatsAppNumber,
		StatusCallbackURL: cfg.TwilioStatusCallback,
	}, logger)
	if sms != nil {
		router.Handle(models.ChannelSMS, sms)
	}
	if whatsapp != nil {
		router.Handle(models.ChannelWhatsApp, whatsapp)
	}

	router.Handle(models.ChannelEmail, notifications.NewEmailSender(notifications.EmailConfig{
		Provider:       cfg.EmailProvider,
		SendGridAPIKey: cfg.SendGridAPIKey,
		ResendAPIKey:   cfg.ResendAPIKey,
		FromEmail:      cfg.EmailFrom,
		FromName:       cfg.EmailFromName,
		LogOnly:        cfg.EmailLogOnly,
	}, logger))

	for _, ch := range models.Channels {
		logger.Info("reminder channel", zap.String("channel", string(ch)), zap.Bool("enabled", router.Handles(ch)))
	}
	return router
}

// reminderGrace keeps the grace window at least one sweep wide so a reminder
// is never expired before any sweep could see it.
func reminderGrace(cfg config.Config) time.Duration {
	if cfg.ReminderGrace < cfg.ReminderSweepInterval {
		return cfg.ReminderSweepInterval
	}
	return cfg.ReminderGrace
}

func printRoutes(r *gin.Engine) {
	for _, route := range r.Routes() {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
