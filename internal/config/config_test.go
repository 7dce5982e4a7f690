package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "opensight")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "opensight")
	t.Setenv("DB_SSLMODE", "disable")
	t.Setenv("RABBITMQ_HOST", "localhost")
	t.Setenv("RABBITMQ_PORT", "5672")
	t.Setenv("RABBITMQ_USER", "guest")
	t.Setenv("RABBITMQ_PASSWORD", "guest")
	t.Setenv("RABBITMQ_VHOST", "/")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, "etl.runs", cfg.RabbitMQ.ETLQueue)
	assert.Equal(t, "https://open.er-api.com/v6/latest/USD", cfg.Rates.APIURL)
	assert.Equal(t, "USD", cfg.Rates.BaseCurrency)
	assert.Equal(t, 90, cfg.Pipeline.FuzzyThreshold)
	assert.True(t, cfg.Pipeline.FuzzyDedupEnabled)
}

func TestLoadMissingVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_USER", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_HOST")
	assert.Contains(t, err.Error(), "DB_USER")
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FUZZY_THRESHOLD", "80")
	t.Setenv("FUZZY_DEDUP_ENABLED", "false")
	t.Setenv("ETL_QUEUE", "etl.custom")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 80, cfg.Pipeline.FuzzyThreshold)
	assert.False(t, cfg.Pipeline.FuzzyDedupEnabled)
	assert.Equal(t, "etl.custom", cfg.RabbitMQ.ETLQueue)
}

func TestConnectionHelpers(t *testing.T) {
	db := DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p",
		DBName: "sales", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db user=u password=p dbname=sales port=5432 sslmode=disable TimeZone=UTC",
		db.ConnectionString())
	assert.Equal(t,
		"postgres://u:p@db:5432/sales?sslmode=disable",
		db.MigrationURL())

	rmq := RabbitMQConfig{Host: "mq", Port: "5672", User: "u", Password: "p", VHost: "/"}
	assert.Equal(t, "amqp://u:p@mq:5672/", rmq.ConnectionURL())

	rmq.URL = "amqp://explicit"
	assert.Equal(t, "amqp://explicit", rmq.ConnectionURL())
}
