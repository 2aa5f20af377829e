package notifications

import (
	"context"

	"salonbook-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogSender only logs messages. It stands in for channels without provider
// credentials in development.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) (Delivery, error) {
	id := "log-" + uuid.NewString()
	s.logger.Info("notification (log only)",
		zap.String("channel", string(msg.Channel)),
		zap.String("recipient", msg.Recipient),
		zap.String("subject", msg.Subject),
		zap.String("external_id", id))
	return Delivery{Status: models.DeliverySent, ExternalID: id}, nil
}
