package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"bolsafeucn/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		Driver      string `yaml:"driver"` // postgres, mysql, sqlite
		DSN         string `yaml:"url"`
		AutoMigrate bool   `yaml:"auto_migrate"`
		MaxOpenConn int    `yaml:"max_open_conns"`
	} `yaml:"database"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		TemplatesDir string `yaml:"templates_dir"`
	} `yaml:"email"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // минуты
	} `yaml:"jwt"`

	Moderation struct {
		MaxAppeals             int `yaml:"max_appeals"`
		PendingReviewThreshold int `yaml:"pending_review_threshold"`
	} `yaml:"moderation"`

	RateLimit struct {
		Enabled bool    `yaml:"enabled"`
		RPS     float64 `yaml:"rps"`
		Burst   int     `yaml:"burst"`
	} `yaml:"rate_limit"`

	Workers struct {
		Enabled                   bool   `yaml:"enabled"`
		ExpirySchedule            string `yaml:"expiry_schedule"`
		CleanupSchedule           string `yaml:"cleanup_schedule"`
		NotificationRetentionDays int    `yaml:"notification_retention_days"`
	} `yaml:"workers"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`

	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

var AppConfig *Config

// Default возвращает конфиг со значениями по умолчанию.
func Default() *Config {
	var cfg Config

	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080
	cfg.Server.Env = "development"

	cfg.Database.Driver = "postgres"
	cfg.Database.AutoMigrate = true
	cfg.Database.MaxOpenConn = 20

	cfg.Email.SMTPPort = 587
	cfg.Email.FromEmail = "no-reply@bolsafeucn.cl"
	cfg.Email.FromName = "Bolsa FEUCN"

	cfg.JWT.TTL = 60 * 24

	cfg.Moderation.MaxAppeals = 3
	cfg.Moderation.PendingReviewThreshold = 3

	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RPS = 20
	cfg.RateLimit.Burst = 40

	cfg.Workers.Enabled = true
	cfg.Workers.ExpirySchedule = "@every 1h"
	cfg.Workers.CleanupSchedule = "@daily"
	cfg.Workers.NotificationRetentionDays = 90

	cfg.CORS.AllowedOrigins = []string{"http://localhost:5173"}

	return &cfg
}

// Load читает YAML по пути path (если файл есть) поверх значений по умолчанию,
// затем применяет переменные окружения.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file at %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			log.Printf("Config file %s not found, using defaults and environment", path)
		default:
			return nil, fmt.Errorf("failed to open config file at %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SERVER_ENV"); v != "" {
		cfg.Server.Env = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Email.SMTPHost = v
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		cfg.Email.SMTPUsername = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Email.SMTPPassword = v
	}
	if v := os.Getenv("FIRST_ADMIN_EMAIL"); v != "" {
		cfg.FirstAdminEmail = v
	}
	if v := os.Getenv("FIRST_ADMIN_PASSWORD"); v != "" {
		cfg.FirstAdminPassword = v
	}
	return nil
}

// Validate проверяет обязательные параметры.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("database url is required (database.url or DATABASE_URL)")
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required (jwt.secret or JWT_SECRET)")
	}
	if c.Moderation.MaxAppeals <= 0 || c.Moderation.PendingReviewThreshold <= 0 {
		return errors.New("moderation limits must be positive")
	}
	if c.Moderation.MaxAppeals > models.MaxAppeals {
		// Потолок закреплен CHECK-ограничением publications.appeal_count
		return fmt.Errorf("moderation.max_appeals must not exceed %d", models.MaxAppeals)
	}
	return nil
}

// AllowAllOrigins - пустой список или "*" среди origins означает любой origin.
// Одно правило для CORS и websocket.
func AllowAllOrigins(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// LoadConfig загружает .env (если есть) и конфиг, выставляет AppConfig.
// Ошибка конфигурации фатальна.
func LoadConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	AppConfig = cfg
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
