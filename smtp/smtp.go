// Package smtp delivers mailer messages over a live SMTP session.
package smtp

import (
	"context"
	"log/slog"
	"net"
	netsmtp "net/smtp"
	"strconv"

	"github.com/inkwell-press/mailer"
)

const (
	defaultHost = "127.0.0.1"
	defaultPort = 25
)

// Config carries the connection settings for the SMTP gateway. AUTH is
// attempted only when both Username and Password are set.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Debug    bool
}

// Client is the protocol surface the gateway needs from an SMTP
// connection. The default implementation wraps net/smtp.
type Client interface {
	Login(username, password string) error
	SendMail(from, to string, msg []byte) error
	Quit() error
	Close() error
}

// DialFunc opens an SMTP client connection to addr ("host:port").
type DialFunc func(addr string) (Client, error)

var _ mailer.Sender = (*Sender)(nil)

// Sender implements mailer.Sender over a per-call SMTP session. Each
// Send dials, optionally authenticates, submits the message once per
// recipient and quits. No connection is reused across calls.
type Sender struct {
	config Config
	dial   DialFunc
	logger *slog.Logger
}

type Option func(*Sender)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sender) { s.logger = logger }
}

// WithDialFunc replaces the connection factory, mainly for tests.
func WithDialFunc(dial DialFunc) Option {
	return func(s *Sender) { s.dial = dial }
}

// FromMailerConfig maps the mailer-level configuration onto gateway
// settings.
func FromMailerConfig(cfg mailer.Config) Config {
	return Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		Debug:    cfg.Debug,
	}
}

func New(cfg Config, opts ...Option) *Sender {
	s := &Sender{
		config: cfg,
		dial:   dialNet,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send submits msg to every recipient (To, then Cc, then Bcc,
// duplicates included) over one SMTP session. The first failing
// recipient aborts the remainder; the failure is logged and returned,
// never panicked.
func (s *Sender) Send(ctx context.Context, msg *mailer.Message) error {
	_ = ctx // the underlying protocol client has no cancellation hooks

	from := msg.From
	addr := net.JoinHostPort(s.host(), strconv.Itoa(s.port()))
	if s.config.Debug {
		s.logger.Debug("smtp session opening", "addr", addr, "from", from)
	}

	client, err := s.dial(addr)
	if err != nil {
		return s.failed("connect to "+addr, err, msg)
	}
	defer func() { _ = client.Close() }()

	if s.config.Username != "" && s.config.Password != "" {
		if err := client.Login(s.config.Username, s.config.Password); err != nil {
			return s.failed("smtp auth", err, msg)
		}
	}

	body := []byte(msg.String())
	for _, to := range msg.Recipients() {
		if s.config.Debug {
			s.logger.Debug("smtp sending", "to", to)
		}
		if err := client.SendMail(from, to, body); err != nil {
			return s.failed("send to "+to, err, msg)
		}
	}

	if err := client.Quit(); err != nil {
		return s.failed("close smtp session", err, msg)
	}
	return nil
}

func (s *Sender) host() string {
	if s.config.Host != "" {
		return s.config.Host
	}
	return defaultHost
}

func (s *Sender) port() int {
	if s.config.Port != 0 {
		return s.config.Port
	}
	return defaultPort
}

// failed logs the delivery failure and wraps it into the shared error
// taxonomy. Full detail only when debug is on, one line otherwise.
func (s *Sender) failed(op string, err error, msg *mailer.Message) error {
	if s.config.Debug {
		s.logger.Error("smtp delivery failed",
			"op", op,
			"error", err,
			"from", msg.From,
			"recipients", msg.Recipients(),
			"host", s.host(),
			"port", s.port(),
		)
	} else {
		s.logger.Error("smtp delivery failed", "error", err)
	}
	return mailer.NewDeliveryError(op, err)
}

func dialNet(addr string) (Client, error) {
	c, err := netsmtp.Dial(addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	return &netClient{client: c, host: host}, nil
}

// netClient adapts net/smtp.Client to the Client interface.
type netClient struct {
	client *netsmtp.Client
	host   string
}

func (c *netClient) Login(username, password string) error {
	return c.client.Auth(netsmtp.PlainAuth("", username, password, c.host))
}

func (c *netClient) SendMail(from, to string, msg []byte) error {
	if err := c.client.Mail(from); err != nil {
		return err
	}
	if err := c.client.Rcpt(to); err != nil {
		return err
	}
	w, err := c.client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (c *netClient) Quit() error {
	return c.client.Quit()
}

func (c *netClient) Close() error {
	return c.client.Close()
}
