package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all tool settings, populated from environment variables.
// The one-shot commands load a .env file first so they behave like the
// cron-driven scripts they replace.
type Config struct {
	DatabaseURL string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Batch correction job.
	BatchSize      int
	PushgatewayURL string

	// Retention pruning.
	RetentionDays int

	// Collection health monitor.
	ProbeInterval   time.Duration
	FreshnessWindow time.Duration
	MinReadings     int

	// Kafka correction audit publishing.
	KafkaBrokers          []string
	KafkaCorrectionsTopic string
	KafkaEnabled          bool

	// SMTP notification configuration.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailTo       []string
	MailEnabled  bool

	// Deployed readings API (smoke checks).
	APIBaseURL string
	APITimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	probeInterval, err := parseDurationEnv("PROBE_INTERVAL", "1m")
	if err != nil {
		return nil, err
	}

	freshnessWindow, err := parseDurationEnv("FRESHNESS_WINDOW", "2h")
	if err != nil {
		return nil, err
	}

	apiTimeout, err := parseDurationEnv("API_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	batchSize, err := parseIntEnv("BATCH_SIZE", 500, 1, 10000)
	if err != nil {
		return nil, err
	}

	retentionDays, err := parseIntEnv("RETENTION_DAYS", 90, 1, 3650)
	if err != nil {
		return nil, err
	}

	minReadings, err := parseIntEnv("MIN_READINGS", 1, 1, 1_000_000)
	if err != nil {
		return nil, err
	}

	smtpPort, err := parseIntEnv("SMTP_PORT", 587, 1, 65535)
	if err != nil {
		return nil, err
	}

	brokers := splitAndTrim(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	smtpHost := os.Getenv("SMTP_HOST")
	mailTo := splitAndTrim(os.Getenv("MAIL_TO"))
	mailEnabled := smtpHost != ""
	if v := os.Getenv("MAIL_ENABLED"); v != "" {
		mailEnabled = v == "true"
	}

	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		BatchSize:      batchSize,
		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),

		RetentionDays: retentionDays,

		ProbeInterval:   probeInterval,
		FreshnessWindow: freshnessWindow,
		MinReadings:     minReadings,

		KafkaBrokers:          brokers,
		KafkaCorrectionsTopic: envOrDefault("KAFKA_CORRECTIONS_TOPIC", "aqi-corrections"),
		KafkaEnabled:          kafkaEnabled,

		SMTPHost:     smtpHost,
		SMTPPort:     smtpPort,
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     os.Getenv("MAIL_FROM"),
		MailTo:       mailTo,
		MailEnabled:  mailEnabled,

		APIBaseURL: envOrDefault("API_BASE_URL", "http://localhost:8000"),
		APITimeout: apiTimeout,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.MailEnabled {
		if cfg.SMTPHost == "" {
			return nil, errors.New("MAIL_ENABLED is true but SMTP_HOST is not set")
		}
		if cfg.MailFrom == "" {
			return nil, errors.New("MAIL_ENABLED is true but MAIL_FROM is not set")
		}
		if len(cfg.MailTo) == 0 {
			return nil, errors.New("MAIL_ENABLED is true but MAIL_TO is not set")
		}
	}

	return cfg, nil
}

// RequireDatabase returns an error unless DATABASE_URL is set. The Kafka-only
// and API-only tools don't need it, so Load itself doesn't enforce it.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	v := envOrDefault(key, fallback)
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func parseIntEnv(key string, fallback, minVal, maxVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < minVal || n > maxVal {
		return 0, fmt.Errorf("invalid %s: %q (must be %d-%d)", key, v, minVal, maxVal)
	}
	return n, nil
}

// splitAndTrim splits a comma-separated list, dropping empty entries.
func splitAndTrim(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
