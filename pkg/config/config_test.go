package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
environment: test
server:
  port: 9090
  read_timeout: 5s
  write_timeout: 10s
  shutdown_timeout: 5s
data:
  source: csv
  csv_path: data/prices.csv
forecast:
  strategy: blend
  seed: 42
cache:
  ttl: 30m
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Environment != "test" || cfg.Server.Port != 9090 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Data.CSVPath != "data/prices.csv" {
		t.Fatalf("csv path %q", cfg.Data.CSVPath)
	}
	if cfg.Forecast.Strategy != "blend" || cfg.Forecast.Seed != 42 {
		t.Fatalf("forecast config %+v", cfg.Forecast)
	}
	if cfg.Cache.TTL != 30*time.Minute {
		t.Fatalf("cache ttl %v", cfg.Cache.TTL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateMissingCSVPath(t *testing.T) {
	body := `
environment: test
data:
  source: csv
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected validation error for missing csv_path")
	}
}

func TestValidateBadStrategy(t *testing.T) {
	body := `
environment: test
data:
  source: csv
  csv_path: data/prices.csv
forecast:
  strategy: oracle
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected validation error for unknown strategy")
	}
}

func TestValidateRemoteModelNeedsURL(t *testing.T) {
	body := `
environment: test
data:
  source: csv
  csv_path: data/prices.csv
model:
  type: remote
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected validation error for remote model without url")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("HOMECAST_DATA_CSV", "/srv/other.csv")
	t.Setenv("FORECAST_STRATEGY", "rollout")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Data.CSVPath != "/srv/other.csv" {
		t.Fatalf("csv path override ignored: %q", cfg.Data.CSVPath)
	}
	if cfg.Forecast.Strategy != "rollout" {
		t.Fatalf("strategy override ignored: %q", cfg.Forecast.Strategy)
	}
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("kafka override ignored: %+v", cfg.Kafka)
	}
}

func TestLoadWithEnvRemoteModel(t *testing.T) {
	t.Setenv("MODEL_SERVICE_URL", "http://model:8000")

	cfg, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Model.Type != "remote" || cfg.Model.ServiceURL != "http://model:8000" {
		t.Fatalf("model service override ignored: %+v", cfg.Model)
	}
}
