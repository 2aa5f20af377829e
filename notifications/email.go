package notifications

import (
	"go.uber.org/zap"
)

// EmailConfig selects the email provider.
type EmailConfig struct {
	Provider       string // sendgrid|resend
	SendGridAPIKey string
	ResendAPIKey   string
	FromEmail      string
	FromName       string
	// LogOnly routes email to the log when no provider key is set. Log
	// deliveries are recorded as sent, so it is meant for development only.
	LogOnly bool
}

// NewEmailSender returns the configured email provider, or nil when there is
// none so the channel stays unregistered.
func NewEmailSender(cfg EmailConfig, logger *zap.Logger) Gateway {
	switch {
	case cfg.Provider == "resend" && cfg.ResendAPIKey != "":
		return NewResendSender(cfg.ResendAPIKey, cfg.FromName, cfg.FromEmail)
	case cfg.SendGridAPIKey != "":
		return NewSendGridSender(SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromName:  cfg.FromName,
			FromEmail: cfg.FromEmail,
		}, logger)
	case cfg.LogOnly:
		logger.Warn("no email provider configured, email reminders are logged only")
		return NewLogSender(logger)
	default:
		logger.Warn("no email provider configured, email reminders are disabled")
		return nil
	}
}
