package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	// RedisURL is optional; when set the run uses the distributed rate
	// limiter so concurrent processes share one budget.
	RedisURL     string `env:"REDIS_URL"`
	ResendAPIKey string `env:"RESEND_API_KEY"`
	// WebhookURL swaps the transport for an HTTP collector (staging runs).
	WebhookURL      string `env:"WEBHOOK_URL"`
	SenderEmail     string `env:"SENDER_EMAIL,required=true"`
	SenderName      string `env:"SENDER_NAME"`
	BatchSize       int    `env:"BATCH_SIZE,default=10"`
	RateLimitPerSec int    `env:"RATE_LIMIT_PER_SEC,default=10"`
	LogLevel        string `env:"LOG_LEVEL,default=info"`
	// MetricsPort exposes prometheus metrics while a run is active; 0
	// disables the listener.
	MetricsPort int `env:"METRICS_PORT,default=0"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// FromAddress renders the envelope sender as "Name <email>" when a sender
// name is configured.
func (c *Config) FromAddress() string {
	if c.SenderName == "" {
		return c.SenderEmail
	}
	return fmt.Sprintf("%s <%s>", c.SenderName, c.SenderEmail)
}
