package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Addr is the address the HTTP server listens on.
	Addr string `env:"ADDR" envDefault:":3005" validate:"required"`
	// DBPath is the path to the SQLite database file holding the message log.
	DBPath string `env:"DB_PATH" envDefault:"relay.db" validate:"required"`
	// StaticDir is the directory the chat page is served from.
	StaticDir string `env:"STATIC_DIR" envDefault:"web/static" validate:"required"`
	// RecoveryWindow is how long a dropped connection can be resumed.
	RecoveryWindow time.Duration `env:"RECOVERY_WINDOW" envDefault:"2m" validate:"gt=0"`
}

// New loads configuration from the environment, reading a .env file first if
// one exists.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
