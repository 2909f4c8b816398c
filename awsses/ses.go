package awsses

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"

	"github.com/inkwell-press/mailer"
)

var _ mailer.Sender = (*Sender)(nil)

// SESClient is the part of the SESv2 API the sender uses.
type SESClient interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Sender delivers mailer messages through AWS SESv2.
type Sender struct {
	client SESClient
	logger *slog.Logger
}

type Option func(*Sender)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sender) { s.logger = logger }
}

func New(client SESClient, opts ...Option) *Sender {
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
	if err := validateMessage(msg); err != nil {
		return err
	}

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		Content: &types.EmailContent{
			Simple: &types.Message{
				Body:    &types.Body{Text: utf8Content(msg.Body)},
				Subject: utf8Content(msg.Subject),
			},
		},
		Destination: &types.Destination{
			ToAddresses:  msg.To,
			CcAddresses:  msg.CC,
			BccAddresses: msg.BCC,
		},
		FromEmailAddress: aws.String(msg.From),
	})
	if err != nil {
		err = categorizeError(err)
		s.logger.Error("ses delivery failed", "error", err)
		return err
	}
	return nil
}

func validateMessage(msg *mailer.Message) error {
	if msg.From == "" {
		return mailer.NewValidationError("from address is required", nil)
	}
	if len(msg.Recipients()) == 0 {
		return mailer.NewValidationError("at least one recipient is required", nil)
	}
	return nil
}

func utf8Content(s string) *types.Content {
	return &types.Content{
		Data:    aws.String(s),
		Charset: aws.String("UTF-8"),
	}
}

func categorizeError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "TooManyRequestsException":
			return mailer.NewRateLimitedError("sending rate limit exceeded", err)
		case "MessageRejected":
			return mailer.NewMessageRejectedError("message rejected by SES", err)
		case "InvalidParameterValueException":
			return mailer.NewValidationError("invalid email parameter", err)
		case "ServiceUnavailableException", "InternalServiceErrorException":
			return mailer.NewDeliveryError("SES service error", err)
		}
	}
	return mailer.NewDeliveryError("failed to send email", err)
}
