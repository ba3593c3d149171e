package config

import (
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Port the HTTP API listens on
	Port int `env:"PORT" envDefault:"5250"`

	// Path to the SQLite database file
	DatabasePath string `env:"DB_PATH" envDefault:"database/deedledger.db"`

	// Endpoint of the external value-transfer collaborator. When empty,
	// transfers are logged instead of signalled.
	SettlementEndpoint string `env:"SETTLEMENT_ENDPOINT"`

	// Webhook URL for listed/sold notifications. Optional.
	NotifyWebhookURL string `env:"NOTIFY_WEBHOOK_URL"`

	// Buffer size of the event bus
	EventBufferSize int `env:"EVENT_BUFFER_SIZE" envDefault:"64"`

	// Timeout for outbound HTTP calls in seconds
	OutboundTimeout int `env:"OUTBOUND_TIMEOUT" envDefault:"10"`

	// Allowed CORS origins
	AllowedOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

func LoadConfig() (*Config, error) {
	// A missing .env file is fine; env vars still apply.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
