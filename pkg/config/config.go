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
	Logger struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logger"`
	Distribution struct {
		Interval         time.Duration `yaml:"interval"`
		Freshness        time.Duration `yaml:"freshness"`
		SubscriberBuffer int           `yaml:"subscriber_buffer"`
		SendTimeout      time.Duration `yaml:"send_timeout"`
	} `yaml:"distribution"`
	Finnhub struct {
		APIKey       string        `yaml:"api_key"`
		QuoteURL     string        `yaml:"quote_url"`
		Symbols      []string      `yaml:"symbols"`
		FetchTimeout time.Duration `yaml:"fetch_timeout"`
		MockOnly     bool          `yaml:"mock_only"`
		RatePerSec   float64       `yaml:"rate_per_sec"`
		Burst        float64       `yaml:"burst"`
	} `yaml:"finnhub"`
	Webex struct {
		APIURL   string        `yaml:"api_url"`
		BotToken string        `yaml:"bot_token"`
		RoomID   string        `yaml:"room_id"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"webex"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Alerts struct {
		Rules []SeedRule `yaml:"rules"`
	} `yaml:"alerts"`
}

// SeedRule is an alert rule definition loaded at startup.
type SeedRule struct {
	ID              int     `yaml:"id"`
	Symbol          string  `yaml:"symbol"`
	Operator        string  `yaml:"operator"`
	Threshold       float64 `yaml:"threshold"`
	Description     string  `yaml:"description"`
	Enabled         bool    `yaml:"enabled"`
	CooldownSeconds int     `yaml:"cooldown_seconds"`
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
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Finnhub.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("WEBEX_BOT_TOKEN"); v != "" {
		c.Webex.BotToken = v
	}
	if v := os.Getenv("WEBEX_ROOM_ID"); v != "" {
		c.Webex.RoomID = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port := splitHostPort(v)
		c.Redis.Host = host
		if port != 0 {
			c.Redis.Port = port
		}
		c.Redis.Enabled = true
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "console"
	}
	if c.Logger.Output == "" {
		c.Logger.Output = "stdout"
	}
	if c.Distribution.Interval == 0 {
		c.Distribution.Interval = 10 * time.Second
	}
	if c.Distribution.Freshness == 0 {
		c.Distribution.Freshness = 15 * time.Second
	}
	if c.Distribution.SubscriberBuffer == 0 {
		c.Distribution.SubscriberBuffer = 16
	}
	if c.Distribution.SendTimeout == 0 {
		c.Distribution.SendTimeout = time.Second
	}
	if c.Finnhub.QuoteURL == "" {
		c.Finnhub.QuoteURL = "https://finnhub.io/api/v1/quote"
	}
	if len(c.Finnhub.Symbols) == 0 {
		c.Finnhub.Symbols = []string{"AAPL", "TSLA", "NVDA", "MSFT"}
	}
	if c.Finnhub.FetchTimeout == 0 {
		c.Finnhub.FetchTimeout = 5 * time.Second
	}
	if c.Finnhub.RatePerSec == 0 {
		c.Finnhub.RatePerSec = 10
	}
	if c.Finnhub.Burst == 0 {
		c.Finnhub.Burst = 30
	}
	if c.Webex.APIURL == "" {
		c.Webex.APIURL = "https://webexapis.com/v1/messages"
	}
	if c.Webex.Timeout == 0 {
		c.Webex.Timeout = 5 * time.Second
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "stockpulse"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Distribution.Interval <= 0 {
		return fmt.Errorf("distribution.interval must be positive")
	}
	if c.Distribution.Freshness <= 0 {
		return fmt.Errorf("distribution.freshness must be positive")
	}
	if len(c.Finnhub.Symbols) == 0 {
		return fmt.Errorf("finnhub.symbols cannot be empty")
	}
	return nil
}

func splitHostPort(addr string) (string, int) {
	host := addr
	port := 0
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		host = addr[:i]
		fmt.Sscanf(addr[i+1:], "%d", &port)
	}
	return host, port
}
