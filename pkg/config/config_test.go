package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\n")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", c.Server.Port)
	}
	if c.Distribution.Interval != 10*time.Second {
		t.Errorf("interval = %v, want 10s", c.Distribution.Interval)
	}
	if c.Distribution.Freshness != 15*time.Second {
		t.Errorf("freshness = %v, want 15s", c.Distribution.Freshness)
	}
	if len(c.Finnhub.Symbols) != 4 {
		t.Errorf("symbols = %v, want 4 defaults", c.Finnhub.Symbols)
	}
	if c.Webex.APIURL != "https://webexapis.com/v1/messages" {
		t.Errorf("webex url = %q", c.Webex.APIURL)
	}
}

func TestLoadParsesRules(t *testing.T) {
	path := writeConfig(t, `
environment: test
alerts:
  rules:
    - id: 1
      symbol: AAPL
      operator: ">"
      threshold: 200
      enabled: true
      cooldown_seconds: 60
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Alerts.Rules) != 1 {
		t.Fatalf("rules = %d, want 1", len(c.Alerts.Rules))
	}
	r := c.Alerts.Rules[0]
	if r.Symbol != "AAPL" || r.Operator != ">" || r.Threshold != 200 {
		t.Errorf("unexpected rule: %+v", r)
	}
}

func TestLoadRejectsMissingEnvironment(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9999\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for missing environment")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "environment: test\n")

	t.Setenv("FINNHUB_API_KEY", "key-from-env")
	t.Setenv("SYMBOLS", "AAPL,MSFT")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if c.Finnhub.APIKey != "key-from-env" {
		t.Errorf("api key = %q", c.Finnhub.APIKey)
	}
	if len(c.Finnhub.Symbols) != 2 || c.Finnhub.Symbols[1] != "MSFT" {
		t.Errorf("symbols = %v", c.Finnhub.Symbols)
	}
	if !c.Redis.Enabled || c.Redis.Host != "redis.internal" || c.Redis.Port != 6380 {
		t.Errorf("redis = %+v", c.Redis)
	}
}
