package config

import (
	"fmt"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings, read from the environment.
type Config struct {
	Host         string `env:"HOST,default=0.0.0.0"`
	Port         int    `env:"PORT,default=8080"`
	DataDir      string `env:"DATA_DIR,default=./data"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	LogLevel     string `env:"LOG_LEVEL,default=info"`
}

// Load reads .env if present, then unmarshals the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

// Addr returns the host:port pair the server listens on.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
