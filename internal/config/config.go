package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

var validatorInstance = validator.New()

const (
	BackendAirtable = "airtable"
	BackendRedis    = "redis"
)

// Config is read once at startup; there is no reload.
type Config struct {
	Port int `env:"PORT" envDefault:"3000" validate:"min=1,max=65535"`

	StripeSecretKey string `env:"STRIPE_SECRET_KEY"`
	StripeAPIURL    string `env:"STRIPE_API_URL" envDefault:"https://api.stripe.com" validate:"required,url"`

	RecorderBackend string `env:"RECORDER_BACKEND" envDefault:"airtable" validate:"oneof=airtable redis"`
	AirtableAPIKey  string `env:"AIRTABLE_API_KEY"`
	AirtableAPIURL  string `env:"AIRTABLE_API_URL" envDefault:"https://api.airtable.com" validate:"required,url"`
	AirtableBaseID  string `env:"AIRTABLE_BASE_ID" envDefault:"appUNIsu8KgvOlmi0" validate:"required"`
	AirtableTable   string `env:"AIRTABLE_TABLE" envDefault:"Failed Payments" validate:"required"`
	RedisAddr       string `env:"REDIS_ADDR" envDefault:"localhost:6379" validate:"required_if=RecorderBackend redis"`
	RedisStream     string `env:"REDIS_STREAM" envDefault:"failed_payments" validate:"required_if=RecorderBackend redis"`

	MailUser       string `env:"GMAIL_USER"`
	MailPassword   string `env:"GMAIL_APP_PASSWORD"`
	AlertRecipient string `env:"ALERT_EMAIL" validate:"omitempty,email"`
	SMTPHost       string `env:"SMTP_HOST" envDefault:"smtp.gmail.com" validate:"required,hostname_rfc1123|ip"`
	SMTPPort       int    `env:"SMTP_PORT" envDefault:"587" validate:"min=1,max=65535"`

	OutboundTimeout time.Duration `env:"OUTBOUND_TIMEOUT" envDefault:"15s" validate:"gt=0"`

	// Debug is kept raw; logs.DebugEnabled decides what counts as on.
	Debug string `env:"DEBUG"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFromMap reads the configuration from the given variables only.
func LoadFromMap(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.AlertRecipient == "" {
		cfg.AlertRecipient = cfg.MailUser
	}
	if err := validatorInstance.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Addr is the fiber listen address.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
