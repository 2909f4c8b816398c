// Package mailer renders text templates into email messages and hands
// them to a pluggable delivery backend. Delivery mode "test" returns
// the serialized message instead of sending it.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
)

// Sender delivers an assembled message. Implementations live in the
// provider subpackages (smtp, awsses, gmail, sendgrid).
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Mailer builds messages from templates or raw text and delivers them
// according to its configuration. Safe for concurrent use as long as
// the injected Loader and Sender are.
type Mailer struct {
	config Config
	sender Sender
	loader Loader
	logger *slog.Logger
}

type Option func(*Mailer)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Mailer) { m.logger = logger }
}

// New validates cfg and builds a Mailer. A sender is required for smtp
// delivery; loader may be nil when templates are passed as values.
func New(cfg Config, sender Sender, loader Loader, opts ...Option) (*Mailer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Delivery == DeliverySMTP && sender == nil {
		return nil, NewConfigurationError("smtp delivery requires a sender", nil)
	}

	m := &Mailer{
		config: cfg,
		sender: sender,
		loader: loader,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// MessageParams describes one message to assemble. Template takes
// precedence over Text as the body source; To, CC and BCC are
// comma-separated address lists.
type MessageParams struct {
	Template any
	Text     string
	To       string
	Subject  string
	From     string
	CC       string
	BCC      string
	Data     map[string]any
}

// Message assembles a text message from p. When a template is given it
// is rendered with p.Data merged with the address fields ("to_addr",
// "from_addr", "cc", "bcc"); otherwise p.Text is the body verbatim.
// No side effects beyond the loader's own I/O.
func (m *Mailer) Message(p MessageParams) (*Message, error) {
	to := p.To
	if to == "" {
		to = m.config.ToAddress
	}

	body := p.Text
	if p.Template != nil {
		data := make(map[string]any, len(p.Data)+4)
		for k, v := range p.Data {
			data[k] = v
		}
		data["to_addr"] = to
		data["from_addr"] = p.From
		data["cc"] = p.CC
		data["bcc"] = p.BCC

		rendered, err := m.Render(p.Template, data)
		if err != nil {
			return nil, err
		}
		body = rendered
	}

	from := p.From
	if from == "" {
		from = m.config.FromAddress
	}

	return &Message{
		From:    from,
		Subject: p.Subject,
		To:      SplitAddressList(to),
		CC:      SplitAddressList(p.CC),
		BCC:     SplitAddressList(p.BCC),
		Body:    body,
	}, nil
}

// Send delivers msg according to the configured delivery mode. In test
// mode it returns the serialized message and performs no network
// activity. In smtp mode it delegates to the sender; a delivery
// failure comes back as the returned error value, never a panic, so a
// caller looping over messages can keep going.
func (m *Mailer) Send(ctx context.Context, msg *Message) (string, error) {
	switch m.config.Delivery {
	case DeliveryTest:
		return msg.String(), nil
	case DeliverySMTP:
		m.logger.Debug("delivering message", "recipients", len(msg.Recipients()), "config", m.config)
		if err := m.sender.Send(ctx, msg); err != nil {
			return "", err
		}
		return "", nil
	default:
		// unreachable: New rejects unknown modes
		return "", NewConfigurationError(fmt.Sprintf("unknown delivery mode %q", m.config.Delivery), nil)
	}
}

// SendMessage assembles and delivers a message in one call.
func (m *Mailer) SendMessage(ctx context.Context, p MessageParams) (string, error) {
	msg, err := m.Message(p)
	if err != nil {
		return "", err
	}
	return m.Send(ctx, msg)
}
