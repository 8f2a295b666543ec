package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Config holds the application's configuration.
type Config struct {
	APIURL              string
	APITimeout          time.Duration
	Port                string
	AllowedOrigins      []string
	SignupRedirectDelay time.Duration
	SecureCookies       bool
	LogLevel            string
	Redis               RedisConfig
	Influx              InfluxConfig
}

// RedisConfig selects the backing store for per-browser local storage.
// With Enabled false an in-process store is used.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// InfluxConfig configures the optional datapoint mirror.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Enabled reports whether all connection settings for the mirror are present.
func (c InfluxConfig) Enabled() bool {
	return c.URL != "" && c.Token != "" && c.Org != ""
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (Config, error) {
	//load env variables
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, relying on system environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		APIURL:   strings.TrimRight(getenv("API_URL"), "/"),
		Port:     valueOr(getenv("PORT"), "8000"),
		LogLevel: valueOr(getenv("LOG_LEVEL"), "info"),
		AllowedOrigins: splitList(
			valueOr(getenv("ALLOWED_ORIGINS"), "http://localhost:3000"),
		),
		Redis: RedisConfig{
			Addr:     valueOr(getenv("REDIS_ADDR"), "localhost:6379"),
			Password: getenv("REDIS_PASSWORD"),
			Prefix:   valueOr(getenv("REDIS_PREFIX"), "capiot_portal"),
		},
		Influx: InfluxConfig{
			URL:    getenv("INFLUXDB_URL"),
			Token:  getenv("INFLUXDB_TOKEN"),
			Org:    getenv("INFLUXDB_ORG"),
			Bucket: valueOr(getenv("INFLUXDB_BUCKET"), "testing"),
		},
	}
	if cfg.APIURL == "" {
		return Config{}, fmt.Errorf("API configuration is incomplete. Please set the API_URL environment variable")
	}

	var err error
	if cfg.APITimeout, err = durationOr(getenv("API_TIMEOUT"), 10*time.Second); err != nil {
		return Config{}, fmt.Errorf("invalid API_TIMEOUT: %w", err)
	}
	if cfg.SignupRedirectDelay, err = durationOr(getenv("SIGNUP_REDIRECT_DELAY"), 2*time.Second); err != nil {
		return Config{}, fmt.Errorf("invalid SIGNUP_REDIRECT_DELAY: %w", err)
	}
	if cfg.Redis.TTL, err = durationOr(getenv("REDIS_TTL"), 0); err != nil {
		return Config{}, fmt.Errorf("invalid REDIS_TTL: %w", err)
	}
	if cfg.SecureCookies, err = boolOr(getenv("SECURE_COOKIES"), false); err != nil {
		return Config{}, fmt.Errorf("invalid SECURE_COOKIES: %w", err)
	}
	if cfg.Redis.Enabled, err = boolOr(getenv("REDIS_ENABLED"), false); err != nil {
		return Config{}, fmt.Errorf("invalid REDIS_ENABLED: %w", err)
	}
	if v := getenv("REDIS_DB"); v != "" {
		if cfg.Redis.DB, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
	}
	if _, err = log.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func durationOr(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	return time.ParseDuration(v)
}

func boolOr(v string, def bool) (bool, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
