package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting for the server.
type Config struct {
	Environment string        `env:"ENVIRONMENT" envDefault:"development"`
	Port        string        `env:"PORT" envDefault:"5050"`
	APIVersion  string        `env:"API_VERSION" envDefault:"v1"`
	DatabaseURL string        `env:"DATABASE_URL"`
	JWTSecret   string        `env:"JWT_PRIVATE_KEY"`
	JWTExpiry   time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`

	// Session validity is independent of token expiry.
	SessionValidity time.Duration `env:"SESSION_VALIDITY" envDefault:"24h"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	Google  Google `envPrefix:"GOOGLE_"`
	AppFile string `env:"APP_CONFIG_FILE" envDefault:"app.yaml"`

	App App `env:"-"`
}

// Google holds the OAuth client credentials for the Gmail integration.
type Google struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	CallbackURL  string `env:"CALLBACK_URL"`
	TopicName    string `env:"TOPIC_NAME"`
}

// App holds settings sourced from the optional YAML app file rather than
// the environment: OAuth scopes, additional CORS origins and upload rules.
type App struct {
	GmailScopes    []string `yaml:"gmail_scopes"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Upload         Upload   `yaml:"upload"`
}

// Upload limits attachment uploads on the send-message endpoint.
type Upload struct {
	MaxFiles     int      `yaml:"max_files"`
	MaxFileBytes int64    `yaml:"max_file_bytes"`
	AllowedTypes []string `yaml:"allowed_types"`
}

func defaultApp() App {
	return App{
		GmailScopes: []string{
			"https://www.googleapis.com/auth/gmail.labels",
			"https://www.googleapis.com/auth/gmail.modify",
		},
		Upload: Upload{
			MaxFiles:     5,
			MaxFileBytes: 2 << 20, // 2 MiB
			AllowedTypes: []string{"application/pdf", "image/png", "image/jpeg", "text/plain"},
		},
	}
}

// Load reads .env.local (if present), parses the environment into a Config
// and overlays the YAML app file when one exists on disk.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.App = defaultApp()
	if raw, err := os.ReadFile(cfg.AppFile); err == nil {
		if err := yaml.Unmarshal(raw, &cfg.App); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", cfg.AppFile, err)
		}
	}
	cfg.AllowedOrigins = append(cfg.AllowedOrigins, cfg.App.AllowedOrigins...)

	return &cfg, nil
}

// APIPath is the versioned route prefix, e.g. "/api/v1".
func (c *Config) APIPath() string {
	return "/api/" + c.APIVersion
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_PRIVATE_KEY is required")
	}
	return nil
}
