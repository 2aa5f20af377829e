package notifications

import (
	"context"
	"errors"
	"testing"

	"salonbook-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubSender struct {
	got []Message
}

func (s *stubSender) Send(_ context.Context, msg Message) (Delivery, error) {
	s.got = append(s.got, msg)
	return Delivery{Status: models.DeliverySent, ExternalID: "stub"}, nil
}

func TestRouterDispatchesByChannel(t *testing.T) {
	email, sms := &stubSender{}, &stubSender{}
	router := NewRouter().
		Handle(models.ChannelEmail, email).
		Handle(models.ChannelSMS, sms)

	_, err := router.Send(context.Background(), Message{Channel: models.ChannelSMS, Recipient: "+15551234567", Body: "hi"})
	require.NoError(t, err)
	assert.Empty(t, email.got)
	require.Len(t, sms.got, 1)
	assert.Equal(t, "hi", sms.got[0].Body)

	assert.True(t, router.Handles(models.ChannelEmail))
	assert.False(t, router.Handles(models.ChannelWhatsApp))
}

func TestRouterRejectsUnconfiguredChannel(t *testing.T) {
	router := NewRouter().Handle(models.ChannelEmail, &stubSender{})

	_, err := router.Send(context.Background(), Message{Channel: models.ChannelWhatsApp, Recipient: "+15551234567"})
	assert.ErrorIs(t, err, ErrChannelNotConfigured)
}

func TestRouterRejectsEmptyRecipient(t *testing.T) {
	sender := &stubSender{}
	router := NewRouter().Handle(models.ChannelEmail, sender)

	_, err := router.Send(context.Background(), Message{Channel: models.ChannelEmail})
	assert.Error(t, err)
	assert.Empty(t, sender.got)
}

func TestRouterIgnoresNilSender(t *testing.T) {
	router := NewRouter().Handle(models.ChannelEmail, nil)
	assert.False(t, router.Handles(models.ChannelEmail))
}

type fakeMessages struct {
	params *twilioApi.CreateMessageParams
	resp   *twilioApi.ApiV2010Message
	err    error
}

func (f *fakeMessages) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	return f.resp, f.err
}

func strPtr(s string) *string { return &s }

func TestTwilioSenderSMS(t *testing.T) {
	api := &fakeMessages{resp: &twilioApi.ApiV2010Message{Sid: strPtr("SM123"), Status: strPtr("queued")}}
	sender := &TwilioSender{api: api, from: "+15550001111", statusCallback: "https://example.com/webhooks/twilio/status", logger: zap.NewNop()}

	delivery, err := sender.Send(context.Background(), Message{Channel: models.ChannelSMS, Recipient: "+15551234567", Body: "See you soon"})
	require.NoError(t, err)
	assert.Equal(t, "SM123", delivery.ExternalID)
	assert.Equal(t, models.DeliverySent, delivery.Status)

	require.NotNil(t, api.params)
	assert.Equal(t, "+15551234567", *api.params.To)
	assert.Equal(t, "+15550001111", *api.params.From)
	assert.Equal(t, "See you soon", *api.params.Body)
	assert.Equal(t, "https://example.com/webhooks/twilio/status", *api.params.StatusCallback)
}

func TestTwilioSenderWhatsAppPrefixesNumbers(t *testing.T) {
	api := &fakeMessages{resp: &twilioApi.ApiV2010Message{Sid: strPtr("SM456")}}
	sender := &TwilioSender{api: api, from: "whatsapp:+15550002222", whatsapp: true, logger: zap.NewNop()}

	_, err := sender.Send(context.Background(), Message{Channel: models.ChannelWhatsApp, Recipient: "+15551234567"})
	require.NoError(t, err)
	assert.Equal(t, "whatsapp:+15551234567", *api.params.To)
	assert.Equal(t, "whatsapp:+15550002222", *api.params.From)
	assert.Nil(t, api.params.StatusCallback)
}

func TestTwilioSenderErrors(t *testing.T) {
	api := &fakeMessages{err: errors.New("invalid number")}
	sender := &TwilioSender{api: api, from: "+15550001111", logger: zap.NewNop()}

	_, err := sender.Send(context.Background(), Message{Channel: models.ChannelSMS, Recipient: "+1"})
	assert.ErrorContains(t, err, "invalid number")

	api = &fakeMessages{resp: &twilioApi.ApiV2010Message{Sid: strPtr("SM789"), Status: strPtr("failed")}}
	sender.api = api
	delivery, err := sender.Send(context.Background(), Message{Channel: models.ChannelSMS, Recipient: "+15551234567"})
	assert.Error(t, err)
	assert.Equal(t, models.DeliveryFailed, delivery.Status)
}

func TestTwilioSenderHonoursCancelledContext(t *testing.T) {
	api := &fakeMessages{}
	sender := &TwilioSender{api: api, from: "+15550001111", logger: zap.NewNop()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sender.Send(ctx, Message{Channel: models.ChannelSMS, Recipient: "+15551234567"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, api.params)
}

func TestNewTwilioSendersNeedCredentials(t *testing.T) {
	sms, wa := NewTwilioSenders(TwilioConfig{PhoneNumber: "+15550001111"}, zap.NewNop())
	assert.Nil(t, sms)
	assert.Nil(t, wa)

	sms, wa = NewTwilioSenders(TwilioConfig{AccountSID: "AC1", AuthToken: "tok", PhoneNumber: "+15550001111"}, zap.NewNop())
	assert.NotNil(t, sms)
	assert.Nil(t, wa)
}

func TestMapTwilioStatus(t *testing.T) {
	tests := map[string]models.DeliveryStatus{
		"queued":      models.DeliverySent,
		"sent":        models.DeliverySent,
		"delivered":   models.DeliveryDelivered,
		"READ":        models.DeliveryRead,
		"failed":      models.DeliveryFailed,
		"undelivered": models.DeliveryFailed,
		"canceled":    models.DeliveryFailed,
		"":            models.DeliverySent,
	}
	for in, want := range tests {
		assert.Equal(t, want, MapTwilioStatus(in), in)
	}
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sender := NewLogSender(zap.New(core))

	delivery, err := sender.Send(context.Background(), Message{Channel: models.ChannelEmail, Recipient: "jane@example.com", Subject: "Reminder"})
	require.NoError(t, err)
	assert.Equal(t, models.DeliverySent, delivery.Status)
	assert.Contains(t, delivery.ExternalID, "log-")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "jane@example.com", entries[0].ContextMap()["recipient"])
}

func TestOptionalSendersNeedKeys(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{}, zap.NewNop()))
	assert.NotNil(t, NewSendGridSender(SendGridConfig{APIKey: "SG.key", FromEmail: "hello@example.com"}, zap.NewNop()))
	assert.Nil(t, NewResendSender("", "Glow", "hello@example.com"))

	resend := NewResendSender("re_key", "Glow Studio", "hello@example.com")
	require.NotNil(t, resend)
	assert.Equal(t, "Glow Studio <hello@example.com>", resend.from)
}

func TestNewEmailSender(t *testing.T) {
	logger := zap.NewNop()

	assert.Nil(t, NewEmailSender(EmailConfig{}, logger))
	assert.IsType(t, &LogSender{}, NewEmailSender(EmailConfig{LogOnly: true}, logger))
	assert.IsType(t, &SendGridSender{}, NewEmailSender(EmailConfig{SendGridAPIKey: "SG.key", LogOnly: true}, logger))
	assert.IsType(t, &ResendSender{}, NewEmailSender(EmailConfig{Provider: "resend", ResendAPIKey: "re_key"}, logger))
	// Resend without a key falls through to SendGrid.
	assert.IsType(t, &SendGridSender{}, NewEmailSender(EmailConfig{Provider: "resend", SendGridAPIKey: "SG.key"}, logger))
}

func TestRouterLeavesEmailUnregisteredWithoutProvider(t *testing.T) {
	router := NewRouter().Handle(models.ChannelEmail, NewEmailSender(EmailConfig{}, zap.NewNop()))
	assert.False(t, router.Handles(models.ChannelEmail))

	_, err := router.Send(context.Background(), Message{Channel: models.ChannelEmail, Recipient: "jane@example.com"})
	assert.ErrorIs(t, err, ErrChannelNotConfigured)
}
