package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	BotToken      string `env:"BOT_TOKEN,required,notEmpty"`
	WebhookURL    string `env:"WEBHOOK_URL,required,notEmpty"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	Port          int    `env:"PORT" envDefault:"10000"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME"`
	AlumniTable string `env:"DB_TABLE" envDefault:"alumni"`

	OperatorID int64 `env:"ADMIN_ID"`

	YearMin int `env:"YEAR_MIN" envDefault:"1950"`
	YearMax int `env:"YEAR_MAX" envDefault:"2030"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Extra words appended to the built-in profile screening list.
	ForbiddenWords []string `env:"FORBIDDEN_WORDS" envSeparator:","`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("config.Load: no .env file found - using env variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	if cfg.DatabaseURL == "" {
		if cfg.DBUser == "" || cfg.DBPassword == "" || cfg.DBName == "" {
			return nil, fmt.Errorf("config.Load: DATABASE_URL or DB_USER, DB_PASSWORD, DB_NAME are required")
		}
	}

	if cfg.YearMin >= cfg.YearMax {
		return nil, fmt.Errorf("config.Load: YEAR_MIN must be below YEAR_MAX")
	}

	return cfg, nil
}

// WebhookPath is the local HTTP path updates are served on. The secret keeps
// strangers from posting fake updates to the endpoint.
func (c *Config) WebhookPath() string {
	if c.WebhookSecret == "" {
		return "/"
	}

	return "/webhook/" + c.WebhookSecret
}

func (c *Config) WebhookEndpoint() string {
	if c.WebhookSecret == "" {
		return c.WebhookURL + "/"
	}

	return c.WebhookURL + "/webhook/" + c.WebhookSecret
}

func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}
