package mailer

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// DeliveryMode selects between live SMTP sending and dry-run rendering.
type DeliveryMode string

const (
	DeliverySMTP DeliveryMode = "smtp"
	DeliveryTest DeliveryMode = "test"
)

// Config holds the mailer settings. It is copied at construction time
// and never mutated afterwards.
type Config struct {
	TemplatePath string       `env:"MAILER_TEMPLATE_PATH"`
	Host         string       `env:"MAILER_SMTP_HOST"`
	Port         int          `env:"MAILER_SMTP_PORT"`
	FromAddress  string       `env:"MAILER_FROM_ADDRESS"`
	ToAddress    string       `env:"MAILER_TO_ADDRESS"`
	Delivery     DeliveryMode `env:"MAILER_DELIVERY" envDefault:"smtp"`
	Username     string       `env:"MAILER_SMTP_USERNAME"`
	Password     string       `env:"MAILER_SMTP_PASSWORD"`
	Debug        bool         `env:"MAILER_DEBUG" envDefault:"false"`
}

// LoadConfig reads and validates the configuration from the environment.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse mailer config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects delivery modes outside {smtp, test}.
func (c Config) Validate() error {
	switch c.Delivery {
	case DeliverySMTP, DeliveryTest:
		return nil
	default:
		return NewConfigurationError(fmt.Sprintf("unknown delivery mode %q", c.Delivery), nil)
	}
}

func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("host", c.Host),
		slog.Int("port", c.Port),
		slog.String("from_address", c.FromAddress),
		slog.String("to_address", c.ToAddress),
		slog.String("delivery", string(c.Delivery)),
		slog.Bool("debug", c.Debug),
	)
}
