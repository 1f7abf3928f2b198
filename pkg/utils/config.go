package utils

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Admin    AdminConfig
	CORS     CORSConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
	Migrate  bool
}

type JWTConfig struct {
	Secret        string
	ExpiryMinutes int
}

type AdminConfig struct {
	Username string
	Password string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// LoadConfig reads .env when present and lets the process environment
// override any key.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("APP_NAME", "cinema-reviews")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIGRATE", true)
	v.SetDefault("JWT_EXPIRY_MINUTES", 30)
	v.SetDefault("ADMIN_USERNAME", "Admin")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	if _, err := os.Stat(".env"); err == nil {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    v.GetString("APP_NAME"),
			Port:    v.GetString("PORT"),
			Debug:   v.GetBool("DEBUG"),
			LogPath: v.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
			Migrate:  v.GetBool("DB_MIGRATE"),
		},
		JWT: JWTConfig{
			Secret:        v.GetString("JWT_SECRET"),
			ExpiryMinutes: v.GetInt("JWT_EXPIRY_MINUTES"),
		},
		Admin: AdminConfig{
			Username: v.GetString("ADMIN_USERNAME"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ORIGINS")),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWT.ExpiryMinutes <= 0 {
		return errors.New("JWT_EXPIRY_MINUTES must be positive")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return errors.New("DB_DRIVER must be postgres or memory")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
