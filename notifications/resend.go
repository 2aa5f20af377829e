package notifications

import (
	"context"
	"fmt"

	"salonbook-backend/models"

	"github.com/resend/resend-go/v2"
)

// ResendSender sends reminder emails via Resend.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender returns nil when no API key is configured.
func NewResendSender(apiKey, fromName, fromEmail string) *ResendSender {
	if apiKey == "" {
		return nil
	}
	from := fromEmail
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromEmail)
	}
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) Send(ctx context.Context, msg Message) (Delivery, error) {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.Recipient},
		Subject: msg.Subject,
		Text:    msg.Body,
	}
	resp, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return Delivery{}, fmt.Errorf("resend: %w", err)
	}
	return Delivery{Status: models.DeliverySent, ExternalID: resp.Id}, nil
}
