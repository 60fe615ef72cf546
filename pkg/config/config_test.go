package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, "environment: test\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := c.Forecast
	if f.TimeStep != 100 || f.Epochs != 50 || f.FutureSteps != 50 || f.BatchSize != 64 || f.HiddenSize != 50 {
		t.Fatalf("unexpected forecast defaults %+v", f)
	}
	if f.ScalerFit != "full" || f.Validation != "in_sample" || f.Calendar != "daily" || f.DateAlignment != "inclusive" {
		t.Fatalf("unexpected forecast modes %+v", f)
	}
	if c.Server.Port != 5000 || c.Server.CORS == nil || !*c.Server.CORS {
		t.Fatalf("unexpected server defaults %+v", c.Server)
	}
	if c.Cache.Type != "memory" || c.Recorder.Type != "none" || c.Kafka.RequiredAcks != -1 {
		t.Fatalf("unexpected infra defaults")
	}
	if c.TwelveData.OutputSize != 390 || c.TwelveData.Interval != "1min" {
		t.Fatalf("unexpected twelvedata defaults %+v", c.TwelveData)
	}
}

func TestLoadParsesDurationsAndLists(t *testing.T) {
	c, err := Load(writeConfig(t, `
forecast:
  timeout: 90s
  validation: holdout
  val_ratio: 0.15
warmup:
  enabled: true
  symbols: [AAPL, MSFT]
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Forecast.Timeout != 90*time.Second || c.Forecast.ValRatio != 0.15 {
		t.Fatalf("unexpected forecast %+v", c.Forecast)
	}
	if len(c.Warmup.Symbols) != 2 || c.Warmup.Symbols[1] != "MSFT" {
		t.Fatalf("unexpected warmup %+v", c.Warmup)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"scaler fit", "forecast:\n  scaler_fit: test\n", "forecast.scaler_fit"},
		{"train ratio", "forecast:\n  train_ratio: 1.5\n", "train_ratio"},
		{"holdout ratios", "forecast:\n  validation: holdout\n  train_ratio: 0.95\n  val_ratio: 0.1\n", "val_ratio"},
		{"cache type", "cache:\n  type: memcached\n", "cache.type"},
		{"clickhouse host", "recorder:\n  type: clickhouse\n", "clickhouse.host"},
		{"kafka brokers", "kafka:\n  enabled: true\n", "kafka.brokers"},
		{"max observations", "forecast:\n  max_observations: 50\n", "max_observations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TWELVE_DATA_API_KEY", "secret")
	t.Setenv("PORT", "8081")
	t.Setenv("REDIS_ADDR", "cache.internal:6380")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("LOG_LEVEL", "debug")

	c, err := LoadWithEnv(writeConfig(t, "kafka:\n  enabled: true\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.TwelveData.APIKey != "secret" || c.Server.Port != 8081 || c.Log.Level != "debug" {
		t.Fatalf("env not applied: %+v %+v %+v", c.TwelveData, c.Server, c.Log)
	}
	if c.Cache.Redis.Host != "cache.internal" || c.Cache.Redis.Port != 6380 {
		t.Fatalf("unexpected redis %+v", c.Cache.Redis)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", c.Kafka.Brokers)
	}
}

func TestShippedConfigLoads(t *testing.T) {
	if _, err := Load(filepath.Join("..", "..", "config", "config.yaml")); err != nil {
		t.Fatalf("shipped config: %v", err)
	}
}
