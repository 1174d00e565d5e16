package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 500, cfg.BatchSize)
	assert.Equal(t, 90, cfg.RetentionDays)
	assert.Equal(t, time.Minute, cfg.ProbeInterval)
	assert.Equal(t, 2*time.Hour, cfg.FreshnessWindow)
	assert.Equal(t, 1, cfg.MinReadings)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, "aqi-corrections", cfg.KafkaCorrectionsTopic)
	assert.False(t, cfg.MailEnabled)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.Empty(t, cfg.PushgatewayURL)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://aqi:secret@db:5432/readings")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("RETENTION_DAYS", "30")
	t.Setenv("PROBE_INTERVAL", "15s")
	t.Setenv("FRESHNESS_WINDOW", "4h")
	t.Setenv("MIN_READINGS", "12")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_CORRECTIONS_TOPIC", "corrections")
	t.Setenv("SMTP_HOST", "mail.example.com")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("SMTP_USERNAME", "pipeline")
	t.Setenv("SMTP_PASSWORD", "hunter2")
	t.Setenv("MAIL_FROM", "pipeline@example.com")
	t.Setenv("MAIL_TO", "ops@example.com,oncall@example.com")
	t.Setenv("API_BASE_URL", "https://aqi.example.com")
	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("PUSHGATEWAY_URL", "http://pushgw:9091")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://aqi:secret@db:5432/readings", cfg.DatabaseURL)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.Equal(t, 15*time.Second, cfg.ProbeInterval)
	assert.Equal(t, 4*time.Hour, cfg.FreshnessWindow)
	assert.Equal(t, 12, cfg.MinReadings)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, "corrections", cfg.KafkaCorrectionsTopic)
	assert.True(t, cfg.MailEnabled)
	assert.Equal(t, "mail.example.com", cfg.SMTPHost)
	assert.Equal(t, 465, cfg.SMTPPort)
	assert.Equal(t, "pipeline", cfg.SMTPUsername)
	assert.Equal(t, []string{"ops@example.com", "oncall@example.com"}, cfg.MailTo)
	assert.Equal(t, "https://aqi.example.com", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.APITimeout)
	assert.Equal(t, "http://pushgw:9091", cfg.PushgatewayURL)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeProbeInterval(t *testing.T) {
	t.Setenv("PROBE_INTERVAL", "-1m")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROBE_INTERVAL")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_BatchSizeTooLarge(t *testing.T) {
	t.Setenv("BATCH_SIZE", "99999")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidRetentionDays(t *testing.T) {
	t.Setenv("RETENTION_DAYS", "-3")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RETENTION_DAYS")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_KafkaBrokersImplyEnabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled)
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_MailEnabledWithoutFrom(t *testing.T) {
	t.Setenv("SMTP_HOST", "mail.example.com")
	t.Setenv("MAIL_TO", "ops@example.com")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAIL_FROM")
}

func TestLoad_MailEnabledWithoutRecipients(t *testing.T) {
	t.Setenv("SMTP_HOST", "mail.example.com")
	t.Setenv("MAIL_FROM", "pipeline@example.com")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAIL_TO")
}

func TestLoad_MailExplicitlyDisabled(t *testing.T) {
	t.Setenv("SMTP_HOST", "mail.example.com")
	t.Setenv("MAIL_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MailEnabled)
}

func TestRequireDatabase(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.RequireDatabase())

	cfg.DatabaseURL = "postgres://localhost/aqi"
	require.NoError(t, cfg.RequireDatabase())
}
