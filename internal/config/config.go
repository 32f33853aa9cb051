package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the API server configuration.
type Config struct {
	App struct {
		Name     string `envconfig:"APP_NAME" default:"Subtrack"`
		Port     int    `envconfig:"PORT" default:"8080"`
		Timezone string `envconfig:"APP_TIMEZONE" default:"UTC"`
	}

	DB Database

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	}

	Auth struct {
		Secret          string        `envconfig:"JWT_SECRET" required:"true"`
		TokenTTL        time.Duration `envconfig:"JWT_TTL" default:"1h"`
		RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"720h"`
	}
}

type Database struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:""`
	Name     string `envconfig:"DB_NAME" default:"subtrack"`
	Migrate  bool   `envconfig:"DB_MIGRATE" default:"true"`
}

func (d Database) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

func (c *Config) ConnectionString() string {
	return c.DB.ConnectionString()
}

// Location is the zone whose calendar decides "today" for billing dates.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.App.Timezone, err)
	}

	return loc, nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

// LoadDatabase reads only the database settings, for tools that do not
// serve the API.
func LoadDatabase() (*Database, error) {
	var cfg Database
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

// Client is the terminal dashboard configuration.
type Client struct {
	APIURL      string        `envconfig:"API_URL" default:"http://localhost:8080/api"`
	Timeout     time.Duration `envconfig:"CLIENT_TIMEOUT" default:"10s"`
	SessionFile string        `envconfig:"SESSION_FILE" default:"~/.subtrack/session.db"`
	LogFile     string        `envconfig:"LOG_FILE" default:"subtrack-tui.log"`
}

func LoadClient() (*Client, error) {
	var cfg Client
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	path, err := expandHome(cfg.SessionFile)
	if err != nil {
		return nil, err
	}

	cfg.SessionFile = path

	return &cfg, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
