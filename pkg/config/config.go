package config

import (
	"fmt"
	"os"
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
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Extractor struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"extractor"`
	Index struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"index"`
	Events struct {
		Backend string `yaml:"backend"` // kafka or none
		Kafka   struct {
			Brokers      []string `yaml:"brokers"`
			Topic        string   `yaml:"topic"`
			RequiredAcks int      `yaml:"required_acks"`
			Compression  string   `yaml:"compression"`
			Producer     struct {
				MaxAttempts  int           `yaml:"max_attempts"`
				Linger       time.Duration `yaml:"linger"`
				BatchBytes   int           `yaml:"batch_bytes"`
				BatchSize    int           `yaml:"batch_size"`
				WriteTimeout time.Duration `yaml:"write_timeout"`
				ReadTimeout  time.Duration `yaml:"read_timeout"`
				Async        bool          `yaml:"async"`
			} `yaml:"producer"`
		} `yaml:"kafka"`
	} `yaml:"events"`
	Archive struct {
		Enabled    bool `yaml:"enabled"`
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
	} `yaml:"archive"`
	Dispatch struct {
		QueueBackend   string        `yaml:"queue_backend"` // redis or memory
		StreamBuffer   int           `yaml:"stream_buffer"`
		Heartbeat      time.Duration `yaml:"heartbeat"`
		PongWait       time.Duration `yaml:"pong_wait"`
		WriteWait      time.Duration `yaml:"write_wait"`
		Workers        int           `yaml:"workers"`
		Redis          struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"dispatch"`
	Channels struct {
		ChatWebhookURL string        `yaml:"chat_webhook_url"`
		ChatTimeout    time.Duration `yaml:"chat_timeout"`
		EmailEndpoint  string        `yaml:"email_endpoint"`
		EmailFrom      string        `yaml:"email_from"`
	} `yaml:"channels"`
	Consensus struct {
		CSVPath string `yaml:"csv_path"`
	} `yaml:"consensus"`
	Gate struct {
		MinConfidence  float64 `yaml:"min_confidence"`
		MaxReviewRatio float64 `yaml:"max_review_ratio"`
	} `yaml:"gate"`
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

	c.applyDefaults()

	// Validate required fields
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

	// Override with environment variables
	if v := os.Getenv("EXTRACTOR_URL"); v != "" {
		c.Extractor.URL = v
	}
	if v := os.Getenv("INDEX_URL"); v != "" {
		c.Index.URL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Dispatch.Redis.Addr = v
	}
	if v := os.Getenv("CHAT_WEBHOOK_URL"); v != "" {
		c.Channels.ChatWebhookURL = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Gate.MinConfidence == 0 {
		c.Gate.MinConfidence = 0.70
	}
	if c.Gate.MaxReviewRatio == 0 {
		c.Gate.MaxReviewRatio = 0.20
	}
	if c.Dispatch.StreamBuffer == 0 {
		c.Dispatch.StreamBuffer = 64
	}
	if c.Dispatch.Heartbeat == 0 {
		c.Dispatch.Heartbeat = 25 * time.Second
	}
	if c.Dispatch.PongWait == 0 {
		c.Dispatch.PongWait = 60 * time.Second
	}
	if c.Dispatch.WriteWait == 0 {
		c.Dispatch.WriteWait = 10 * time.Second
	}
	if c.Dispatch.Workers == 0 {
		c.Dispatch.Workers = 4
	}
	if c.Dispatch.QueueBackend == "" {
		c.Dispatch.QueueBackend = "memory"
	}
	if c.Events.Backend == "" {
		c.Events.Backend = "none"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Extractor.URL == "" {
		return fmt.Errorf("extractor.url is required")
	}
	if c.Events.Backend != "kafka" && c.Events.Backend != "none" {
		return fmt.Errorf("events.backend must be 'kafka' or 'none', got '%s'", c.Events.Backend)
	}
	if c.Events.Backend == "kafka" && len(c.Events.Kafka.Brokers) == 0 {
		return fmt.Errorf("events.kafka.brokers cannot be empty when backend is kafka")
	}
	if c.Dispatch.QueueBackend != "redis" && c.Dispatch.QueueBackend != "memory" {
		return fmt.Errorf("dispatch.queue_backend must be 'redis' or 'memory', got '%s'", c.Dispatch.QueueBackend)
	}
	if c.Dispatch.QueueBackend == "redis" && c.Dispatch.Redis.Addr == "" {
		return fmt.Errorf("dispatch.redis.addr is required when queue_backend is redis")
	}
	if c.Gate.MinConfidence < 0 || c.Gate.MinConfidence > 1 {
		return fmt.Errorf("gate.min_confidence must be in [0,1]")
	}
	return nil
}
