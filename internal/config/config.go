package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	MinBatchSize = 1
	MaxBatchSize = 50
)

// Config is the agent and CLI configuration, read from the environment
type Config struct {
	APIURL          string        `env:"EVENTLENS_API_URL" envDefault:"http://localhost:8000"`
	SessionFile     string        `env:"EVENTLENS_SESSION_FILE"`
	BatchSize       int           `env:"EVENTLENS_BATCH_SIZE" envDefault:"5"`
	RequestTimeout  time.Duration `env:"EVENTLENS_REQUEST_TIMEOUT" envDefault:"30s"`
	TransferTimeout time.Duration `env:"EVENTLENS_TRANSFER_TIMEOUT" envDefault:"10m"`
	ListenAddr      string        `env:"EVENTLENS_LISTEN_ADDR" envDefault:"127.0.0.1:8080"`
	AgentToken      string        `env:"EVENTLENS_AGENT_TOKEN"`
	AllowedOrigins  []string      `env:"EVENTLENS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:4200,http://localhost:3000"`
	Domain          string        `env:"DOMAIN"`
	LogLevel        string        `env:"EVENTLENS_LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"EVENTLENS_LOG_FORMAT" envDefault:"console"`
}

// Load reads .env for local development (ignored in Docker), then parses
// the environment into a validated Config
func Load(envFiles ...string) (*Config, error) {
	if os.Getenv("DOCKER_ENV") == "" {
		if len(envFiles) == 0 {
			envFiles = []string{".env"}
		}
		for _, file := range envFiles {
			// A missing file is fine; the process environment still applies
			_ = godotenv.Load(file)
		}
	}

	return Parse()
}

// Parse builds a Config from the current environment only
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	cfg.AllowedOrigins = trimAll(cfg.AllowedOrigins)
	cfg.AgentToken = strings.TrimSpace(cfg.AgentToken)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values Parse cannot check on its own
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("EVENTLENS_API_URL must be an absolute http(s) URL, got %q", c.APIURL))
	}
	if c.BatchSize < MinBatchSize || c.BatchSize > MaxBatchSize {
		errs = append(errs, fmt.Errorf("EVENTLENS_BATCH_SIZE must be between %d and %d, got %d", MinBatchSize, MaxBatchSize, c.BatchSize))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("EVENTLENS_REQUEST_TIMEOUT must be positive"))
	}
	if c.TransferTimeout <= 0 {
		errs = append(errs, errors.New("EVENTLENS_TRANSFER_TIMEOUT must be positive"))
	}
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("EVENTLENS_LISTEN_ADDR is required"))
	}

	return errors.Join(errs...)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
