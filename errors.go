package mailer

import "fmt"

type ErrorReason string

const (
	REASON_CONFIGURATION      ErrorReason = "CONFIGURATION_ERROR"
	REASON_TEMPLATE_NOT_FOUND ErrorReason = "TEMPLATE_NOT_FOUND"
	REASON_RENDER             ErrorReason = "RENDER_ERROR"
	REASON_VALIDATION         ErrorReason = "VALIDATION_ERROR"
	REASON_DELIVERY           ErrorReason = "DELIVERY_ERROR"
	REASON_RATE_LIMITED       ErrorReason = "RATE_LIMITED"
	REASON_MESSAGE_REJECTED   ErrorReason = "MESSAGE_REJECTED"
)

var _ error = &Error{}

type Error struct {
	Message string
	Reason  ErrorReason
	Cause   error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s.", e.Reason, e.Message)
	if e.Cause != nil {
		s += fmt.Sprintf(" Cause: %s", e.Cause)
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Message: message,
		Reason:  reason,
		Cause:   cause,
	}
}

func NewConfigurationError(message string, cause error) *Error {
	return newError(REASON_CONFIGURATION, message, cause)
}

func NewTemplateNotFoundError(message string, cause error) *Error {
	return newError(REASON_TEMPLATE_NOT_FOUND, message, cause)
}

func NewRenderError(message string, cause error) *Error {
	return newError(REASON_RENDER, message, cause)
}

func NewValidationError(message string, cause error) *Error {
	return newError(REASON_VALIDATION, message, cause)
}

func NewDeliveryError(message string, cause error) *Error {
	return newError(REASON_DELIVERY, message, cause)
}

func NewRateLimitedError(message string, cause error) *Error {
	return newError(REASON_RATE_LIMITED, message, cause)
}

func NewMessageRejectedError(message string, cause error) *Error {
	return newError(REASON_MESSAGE_REJECTED, message, cause)
}
