// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
kafka:
  brokers: ["localhost:9092"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ServiceName != "cryptology-collector" {
		t.Errorf("ServiceName = %q", cfg.ServiceName)
	}
	if cfg.Feed.ReadTimeout != 20*time.Second {
		t.Errorf("Feed.ReadTimeout = %v; want 20s", cfg.Feed.ReadTimeout)
	}
	if cfg.Feed.HeartbeatInterval != 3*time.Second {
		t.Errorf("Feed.HeartbeatInterval = %v; want 3s", cfg.Feed.HeartbeatInterval)
	}
	if cfg.Kafka.OrderBookTopic != "marketdata.orderbook" {
		t.Errorf("OrderBookTopic = %q", cfg.Kafka.OrderBookTopic)
	}
	if cfg.Kafka.Acks != "all" {
		t.Errorf("Acks = %q; want all", cfg.Kafka.Acks)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q; want :8080", cfg.HTTP.Addr)
	}
}

func TestLoad_MissingBrokers(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error without kafka.brokers")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad acks", `
kafka:
  brokers: ["b"]
  acks: sometimes
`},
		{"bad compression", `
kafka:
  brokers: ["b"]
  compression: brotli
`},
		{"bad log level", `
kafka:
  brokers: ["b"]
logging:
  level: loud
`},
		{"heartbeat too long", `
kafka:
  brokers: ["b"]
feed:
  read_timeout: 1s
  heartbeat_interval: 5s
`},
		{"empty feed url", `
kafka:
  brokers: ["b"]
feed:
  url: ""
`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeConfig(t, c.content)
			if _, err := Load(path); err == nil {
				t.Errorf("expected error for %s", c.name)
			}
		})
	}
}
