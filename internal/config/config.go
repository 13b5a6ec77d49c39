package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	// Booking policy.
	SlotMinutes int `mapstructure:"SLOT_MINUTES"`
	// MaxActiveAppointments caps occupying appointments per patient.
	// Zero disables the cap.
	MaxActiveAppointments int `mapstructure:"MAX_ACTIVE_APPOINTMENTS"`

	// AuthMode selects how the caller is identified: "header" trusts the
	// X-User-ID header (an upstream gateway terminates auth), "jwt" verifies
	// an HS256 bearer token and uses its subject claim.
	AuthMode  string `mapstructure:"AUTH_MODE"`
	JWTSecret string `mapstructure:"JWT_SECRET"`

	// ReminderCron is a cron expression for the daily appointment-reminder
	// job. Empty disables the job.
	ReminderCron string `mapstructure:"REMINDER_CRON"`

	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("SLOT_MINUTES", 30)
	v.SetDefault("MAX_ACTIVE_APPOINTMENTS", 2)
	v.SetDefault("AUTH_MODE", "header")
	v.SetDefault("MIGRATIONS_DIR", "migrations")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("SLOT_MINUTES")
	v.BindEnv("MAX_ACTIVE_APPOINTMENTS")
	v.BindEnv("AUTH_MODE")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("REMINDER_CRON")
	v.BindEnv("MIGRATIONS_DIR")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.SlotMinutes <= 0 {
		return fmt.Errorf("SLOT_MINUTES must be positive, got %d", c.SlotMinutes)
	}
	if c.MaxActiveAppointments < 0 {
		return fmt.Errorf("MAX_ACTIVE_APPOINTMENTS must not be negative, got %d", c.MaxActiveAppointments)
	}
	switch c.AuthMode {
	case "header":
		if !c.IsDev() {
			// Header identity outside development means the deployment relies
			// on a gateway stripping client-supplied X-User-ID. Permitted, but
			// JWT_SECRET must not be half-configured.
			if c.JWTSecret != "" {
				return fmt.Errorf("JWT_SECRET is set but AUTH_MODE is %q; set AUTH_MODE=jwt", c.AuthMode)
			}
		}
	case "jwt":
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is \"jwt\"")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be \"header\" or \"jwt\", got %q", c.AuthMode)
	}
	return nil
}
