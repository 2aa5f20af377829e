package notifications

import (
	"context"
	"fmt"
	"strings"

	"salonbook-backend/models"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioConfig struct {
	AccountSID        string
	AuthToken         string
	PhoneNumber       string
	WhatsAppNumber    string
	StatusCallbackURL string
}

// TwilioSender delivers SMS and WhatsApp messages through the Twilio API.
type TwilioSender struct {
	api            messageCreator
	from           string
	whatsapp       bool
	statusCallback string
	logger         *zap.Logger
}

// NewTwilioSenders returns the SMS and WhatsApp senders. Either is nil when
// its sender number is not configured.
func NewTwilioSenders(cfg TwilioConfig, logger *zap.Logger) (sms, whatsapp *TwilioSender) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, nil
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	if cfg.PhoneNumber != "" {
		sms = &TwilioSender{api: client.Api, from: cfg.PhoneNumber, statusCallback: cfg.StatusCallbackURL, logger: logger}
	}
	if cfg.WhatsAppNumber != "" {
		whatsapp = &TwilioSender{api: client.Api, from: cfg.WhatsAppNumber, whatsapp: true, statusCallback: cfg.StatusCallbackURL, logger: logger}
	}
	return sms, whatsapp
}

func (s *TwilioSender) Send(ctx context.Context, msg Message) (Delivery, error) {
	if err := ctx.Err(); err != nil {
		return Delivery{}, err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(s.address(msg.Recipient))
	params.SetFrom(s.address(s.from))
	params.SetBody(msg.Body)
	if s.statusCallback != "" {
		params.SetStatusCallback(s.statusCallback)
	}

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return Delivery{}, fmt.Errorf("twilio %s: %w", msg.Channel, err)
	}

	delivery := Delivery{Status: models.DeliverySent}
	if resp != nil && resp.Sid != nil {
		delivery.ExternalID = *resp.Sid
	} else {
		s.logger.Warn("twilio accepted message without SID", zap.String("channel", string(msg.Channel)))
	}
	if resp != nil && resp.Status != nil {
		delivery.Status = MapTwilioStatus(*resp.Status)
	}
	if delivery.Status == models.DeliveryFailed {
		return delivery, fmt.Errorf("twilio %s: message status %s", msg.Channel, *resp.Status)
	}
	return delivery, nil
}

func (s *TwilioSender) address(number string) string {
	if !s.whatsapp || strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

// MapTwilioStatus folds Twilio's message statuses into delivery statuses.
func MapTwilioStatus(status string) models.DeliveryStatus {
	switch strings.ToLower(status) {
	case "delivered":
		return models.DeliveryDelivered
	case "read":
		return models.DeliveryRead
	case "failed", "undelivered", "canceled":
		return models.DeliveryFailed
	default:
		return models.DeliverySent
	}
}
