package sendgrid

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/rest"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/inkwell-press/mailer"
)

var _ mailer.Sender = (*Sender)(nil)

// APIClient is the part of the SendGrid client the sender uses.
type APIClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Sender delivers mailer messages through the SendGrid v3 API.
type Sender struct {
	client APIClient
	logger *slog.Logger
}

type Option func(*Sender)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sender) { s.logger = logger }
}

func New(apiKey string, opts ...Option) *Sender {
	return NewWithClient(sg.NewSendClient(apiKey), opts...)
}

// NewWithClient wires a custom API client, mainly for tests.
func NewWithClient(client APIClient, opts ...Option) *Sender {
	s := &Sender{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sender) Send(ctx context.Context, msg *mailer.Message) error {
	if msg.From == "" {
		return mailer.NewValidationError("from address is required", nil)
	}
	if len(msg.Recipients()) == 0 {
		return mailer.NewValidationError("at least one recipient is required", nil)
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail("", msg.From))
	m.Subject = msg.Subject
	m.AddContent(mail.NewContent("text/plain", msg.Body))

	p := mail.NewPersonalization()
	for _, to := range msg.To {
		p.AddTos(mail.NewEmail("", to))
	}
	for _, cc := range msg.CC {
		p.AddCCs(mail.NewEmail("", cc))
	}
	for _, bcc := range msg.BCC {
		p.AddBCCs(mail.NewEmail("", bcc))
	}
	m.AddPersonalizations(p)

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		err = mailer.NewDeliveryError("failed to send email", err)
		s.logger.Error("sendgrid delivery failed", "error", err)
		return err
	}
	if resp.StatusCode >= 400 {
		rejected := mailer.NewMessageRejectedError(fmt.Sprintf("sendgrid returned status %d", resp.StatusCode), nil)
		s.logger.Error("sendgrid delivery failed", "error", rejected, "status", resp.StatusCode, "body", resp.Body)
		return rejected
	}

	s.logger.Debug("email sent", "to", msg.To, "status", resp.StatusCode)
	return nil
}
