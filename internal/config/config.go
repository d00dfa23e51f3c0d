package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string
	HTTPAddr string

	DBType        string
	DBDSN         string
	FilePatients  string
	FileMedicines string
	BoltPath      string

	Timezone           string
	EscalationInterval time.Duration
	CountryCode        string

	NotifyBackend string
	TwilioSID     string
	TwilioToken   string
	TwilioFrom    string
	PublicBaseURL string
	NotifyWorkers int
	NotifyQueue   int
}

// FromEnv builds a Config from the environment, seeding it from .env when
// one is present. Variables already set in the environment win.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	escalation, err := getDuration("ESCALATION_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	workers, err := getInt("NOTIFY_WORKERS", 8)
	if err != nil {
		return nil, err
	}
	queue, err := getInt("NOTIFY_QUEUE", 256)
	if err != nil {
		return nil, err
	}

	c := &Config{
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8000"),
		DBType:             getEnv("STORAGE_BACKEND", "file"),
		DBDSN:              getEnv("POSTGRES_DSN", ""),
		FilePatients:       getEnv("PATIENTS_FILE", "data/patients.json"),
		FileMedicines:      getEnv("MEDICINES_FILE", "data/medicines.json"),
		BoltPath:           getEnv("BOLT_PATH", "data/medicall.db"),
		Timezone:           getEnv("TZ", "Asia/Kolkata"),
		EscalationInterval: escalation,
		CountryCode:        getEnv("COUNTRY_CODE", "+91"),
		NotifyBackend:      getEnv("NOTIFY_BACKEND", "log"),
		TwilioSID:          getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioToken:        getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFrom:         getEnv("TWILIO_PHONE_NUMBER", ""),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", "http://localhost:8000"),
		NotifyWorkers:      workers,
		NotifyQueue:        queue,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.DBType {
	case "postgres":
		if c.DBDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	case "file":
		if c.FilePatients == "" || c.FileMedicines == "" {
			return errors.New("File storage requires PATIENTS_FILE and MEDICINES_FILE to be set")
		}
	case "bolt":
		if c.BoltPath == "" {
			return errors.New("BOLT_PATH is required when STORAGE_BACKEND=bolt")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: file, bolt, postgres (got %q)", c.DBType)
	}

	switch c.NotifyBackend {
	case "twilio":
		if c.TwilioSID == "" || c.TwilioToken == "" || c.TwilioFrom == "" {
			return errors.New("NOTIFY_BACKEND=twilio requires TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_PHONE_NUMBER")
		}
	case "log":
	default:
		return fmt.Errorf("NOTIFY_BACKEND must be one of: twilio, log (got %q)", c.NotifyBackend)
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TZ %q: %w", c.Timezone, err)
	}
	if c.EscalationInterval <= 0 {
		return errors.New("ESCALATION_INTERVAL must be positive")
	}
	if c.NotifyWorkers < 1 || c.NotifyQueue < 1 {
		return errors.New("NOTIFY_WORKERS and NOTIFY_QUEUE must be at least 1")
	}
	return nil
}

// Location returns the zone the scanner reads wall-clock time in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
