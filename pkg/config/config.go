// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Dashboard DashboardConfig
	Reports   ReportsConfig
}

// IsProduction reports whether the process runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DashboardConfig governs dashboard exposure and cache tuning.
type DashboardConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// ReportsConfig toggles attendance report export endpoints.
type ReportsConfig struct {
	Enabled bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return &Config{
		Env:       v.GetString("ENV"),
		Port:      v.GetInt("PORT"),
		APIPrefix: v.GetString("API_PREFIX"),
		Database:  databaseConfig(v),
		Redis:     redisConfig(v),
		CORS:      CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Dashboard: DashboardConfig{
			Enabled:  v.GetBool("ENABLE_DASHBOARD"),
			CacheTTL: durationOr(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
		},
		Reports: ReportsConfig{Enabled: v.GetBool("ENABLE_REPORTS")},
	}, nil
}

func databaseConfig(v *viper.Viper) DatabaseConfig {
	return DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}
}

func redisConfig(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}
}

func setDefaults(v *viper.Viper) {
	defaults := map[string]interface{}{
		"ENV":        EnvDevelopment,
		"PORT":       8080,
		"API_PREFIX": "/api/v1",

		"DB_HOST":           "localhost",
		"DB_PORT":           5432,
		"DB_USER":           "postgres",
		"DB_PASSWORD":       "postgres",
		"DB_NAME":           "student_attendance",
		"DB_SSL_MODE":       "disable",
		"DB_MAX_OPEN_CONNS": 10,
		"DB_MAX_IDLE_CONNS": 5,

		"REDIS_HOST":     "localhost",
		"REDIS_PORT":     6379,
		"REDIS_PASSWORD": "",
		"REDIS_DB":       0,

		"ALLOWED_ORIGINS": "",
		"LOG_LEVEL":       "info",
		"LOG_FORMAT":      "json",

		"ENABLE_DASHBOARD":    true,
		"DASHBOARD_CACHE_TTL": "5m",
		"ENABLE_REPORTS":      true,
	}
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
