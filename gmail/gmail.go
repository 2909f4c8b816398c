package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/inkwell-press/mailer"
)

var _ mailer.Sender = (*Sender)(nil)

// Sender delivers mailer messages through the Gmail API using a service
// account impersonating userEmail.
type Sender struct {
	service *gmailapi.Service
	userID  string
	logger  *slog.Logger
}

type Option func(*Sender)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sender) { s.logger = logger }
}

func New(ctx context.Context, credentialsJSON []byte, userEmail string, opts ...Option) (*Sender, error) {
	config, err := google.JWTConfigFromJSON(credentialsJSON, gmailapi.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	config.Subject = userEmail

	service, err := gmailapi.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create gmail client: %w", err)
	}

	s := &Sender{
		service: service,
		userID:  "me",
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Sender) Send(ctx context.Context, msg *mailer.Message) error {
	if len(msg.Recipients()) == 0 {
		return mailer.NewValidationError("at least one recipient is required", nil)
	}

	raw := base64.URLEncoding.EncodeToString([]byte(msg.String()))
	_, err := s.service.Users.Messages.Send(s.userID, &gmailapi.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		err = categorizeError(err)
		s.logger.Error("gmail delivery failed", "error", err)
		return err
	}
	return nil
}

func categorizeError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 400:
			return mailer.NewValidationError("invalid message", err)
		case 403:
			return mailer.NewMessageRejectedError("sending not permitted", err)
		case 429:
			return mailer.NewRateLimitedError("gmail rate limit exceeded", err)
		case 500, 503, 504:
			return mailer.NewDeliveryError("gmail service error", err)
		}
	}
	return mailer.NewDeliveryError("failed to send email", err)
}
