package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

type Config struct {
	Port            uint32
	IsDevelopment   bool
	ShutdownTimeout int64
	// ApiKey guards every non-public route when set. Empty means open,
	// the usual loopback-only setup.
	ApiKey      string
	Timezone    string
	Convention  string
	Runner      Runner
	Credentials Credentials
	Watch       Watch
}

type Runner struct {
	BaseUrl        string
	TimeoutSeconds int64
}

type Credentials struct {
	Backend   string
	Profile   string
	RedisAddr string
	RedisDb   int
}

type Watch struct {
	Sensors         []string
	IntervalSeconds int64
}

func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("config: missing path")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: cannot read %s: %w", path, err)
	}
	if err := json.NewDecoder(bytes.NewBuffer(raw)).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: cannot parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8765
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10
	}
	if c.Convention == "" {
		c.Convention = "local"
	}
	if c.Runner.TimeoutSeconds == 0 {
		c.Runner.TimeoutSeconds = 90
	}
	if c.Credentials.Backend == "" {
		c.Credentials.Backend = "memory"
	}
	if c.Credentials.Profile == "" {
		c.Credentials.Profile = "default"
	}
	if c.Watch.IntervalSeconds == 0 {
		c.Watch.IntervalSeconds = 5
	}
}

func (c Config) validate() error {
	if c.Runner.BaseUrl == "" {
		return fmt.Errorf("config: runner baseUrl is required")
	}
	switch c.Credentials.Backend {
	case "memory":
	case "redis":
		if c.Credentials.RedisAddr == "" {
			return fmt.Errorf("config: credentials redisAddr is required for the redis backend")
		}
	default:
		return fmt.Errorf("config: unknown credentials backend %q", c.Credentials.Backend)
	}
	switch c.Convention {
	case "local", "utc":
	default:
		return fmt.Errorf("config: convention must be %q or %q, got %q", "local", "utc", c.Convention)
	}
	return nil
}
