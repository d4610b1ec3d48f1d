package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Data struct {
		Source  string `yaml:"source"` // csv or clickhouse
		CSVPath string `yaml:"csv_path"`
		Archive struct {
			Enabled bool   `yaml:"enabled"`
			Table   string `yaml:"table"`
		} `yaml:"archive"`
	} `yaml:"data"`
	Model struct {
		Type       string        `yaml:"type"` // lstm or remote
		Path       string        `yaml:"path"`
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
		WindowSize int           `yaml:"window_size"`
	} `yaml:"model"`
	Forecast struct {
		Strategy string `yaml:"strategy"` // rollout or blend
		Seed     int64  `yaml:"seed"`     // 0 seeds from clock
	} `yaml:"forecast"`
	Cache struct {
		TTL     time.Duration `yaml:"ttl"`
		MaxSize int           `yaml:"max_size"`
		Redis   struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled     bool     `yaml:"enabled"`
		Brokers     []string `yaml:"brokers"`
		ReloadTopic string   `yaml:"reload_topic"`
		EventsTopic string   `yaml:"events_topic"`
		Consumer    struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Stream struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"stream"`
	RateLimit struct {
		Enabled      bool    `yaml:"enabled"`
		Capacity     float64 `yaml:"capacity"`
		RefillPerSec float64 `yaml:"refill_per_sec"`
	} `yaml:"ratelimit"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("HOMECAST_DATA_CSV"); v != "" {
		c.Data.CSVPath = v
	}
	if v := os.Getenv("HOMECAST_DATA_SOURCE"); v != "" {
		c.Data.Source = v
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv("MODEL_SERVICE_URL"); v != "" {
		c.Model.ServiceURL = v
		c.Model.Type = "remote"
	}
	if v := os.Getenv("FORECAST_STRATEGY"); v != "" {
		c.Forecast.Strategy = v
	}
	if v := os.Getenv("FORECAST_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Forecast.Seed = seed
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Cache.Redis.Enabled = true
		c.Cache.Redis.Host = host
		if ok {
			if p, err := strconv.Atoi(port); err == nil {
				c.Cache.Redis.Port = p
			}
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Data.Source {
	case "", "csv":
		if c.Data.CSVPath == "" {
			return fmt.Errorf("data.csv_path is required for csv source")
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for clickhouse source")
		}
	default:
		return fmt.Errorf("data.source must be 'csv' or 'clickhouse', got '%s'", c.Data.Source)
	}
	switch c.Forecast.Strategy {
	case "", "rollout", "blend":
	default:
		return fmt.Errorf("forecast.strategy must be 'rollout' or 'blend', got '%s'", c.Forecast.Strategy)
	}
	switch c.Model.Type {
	case "", "lstm":
	case "remote":
		if c.Model.ServiceURL == "" {
			return fmt.Errorf("model.service_url is required for remote model")
		}
	default:
		return fmt.Errorf("model.type must be 'lstm' or 'remote', got '%s'", c.Model.Type)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
