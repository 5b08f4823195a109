// internal/config/config.go
package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/backoff"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/httpserver"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/logger"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/telemetry"
)

// Config holds all collector settings.
type Config struct {
	ServiceName    string            `mapstructure:"service_name"`
	ServiceVersion string            `mapstructure:"service_version"`
	Feed           FeedConfig        `mapstructure:"feed"`
	Kafka          KafkaConfig       `mapstructure:"kafka"`
	HTTP           httpserver.Config `mapstructure:"http"`
	Logging        logger.Config     `mapstructure:"logging"`
	Telemetry      telemetry.Config  `mapstructure:"telemetry"`
}

// FeedConfig holds settings for the broadcast WebSocket feed.
type FeedConfig struct {
	URL               string         `mapstructure:"url"`
	ReadTimeout       time.Duration  `mapstructure:"read_timeout"`
	HeartbeatInterval time.Duration  `mapstructure:"heartbeat_interval"`
	Backoff           backoff.Config `mapstructure:"backoff"`
}

// KafkaConfig holds Kafka destination settings.
type KafkaConfig struct {
	Brokers        []string       `mapstructure:"brokers"`
	OrderBookTopic string         `mapstructure:"orderbook_topic"`
	TradesTopic    string         `mapstructure:"trades_topic"`
	Acks           string         `mapstructure:"acks"`
	Compression    string         `mapstructure:"compression"`
	Timeout        time.Duration  `mapstructure:"timeout"`
	FlushFrequency time.Duration  `mapstructure:"flush_frequency"`
	FlushMessages  int            `mapstructure:"flush_messages"`
	Backoff        backoff.Config `mapstructure:"backoff"`
}

// Load reads and validates the config. An empty path means ENV and
// defaults only.
func Load(path string) (*Config, error) {
	v := viper.New()

	// ---------- 1) Defaults ----------
	v.SetDefault("service_name", "cryptology-collector")
	v.SetDefault("service_version", "v1.0.0")

	v.SetDefault("feed.url", "wss://marketdata.cryptology.com")
	v.SetDefault("feed.read_timeout", "20s")
	v.SetDefault("feed.heartbeat_interval", "3s")

	v.SetDefault("kafka.orderbook_topic", "marketdata.orderbook")
	v.SetDefault("kafka.trades_topic", "marketdata.trades")
	v.SetDefault("kafka.acks", "all")
	v.SetDefault("kafka.timeout", "15s")
	v.SetDefault("kafka.compression", "none")
	v.SetDefault("kafka.flush_frequency", "0s")
	v.SetDefault("kafka.flush_messages", 0)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.metrics_path", "/metrics")
	v.SetDefault("http.healthz_path", "/healthz")
	v.SetDefault("http.readyz_path", "/readyz")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.dev_mode", false)

	v.SetDefault("telemetry.otel_endpoint", "otel-collector:4317")
	v.SetDefault("telemetry.insecure", false)

	// ---------- 2) ENV ----------
	v.SetEnvPrefix("COLLECTOR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// ---------- 3) Optional file ----------
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", v.ConfigFileUsed(), err)
		}
	}

	// ---------- 4) Decode ----------
	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		stringToBoolHook,
	)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "mapstructure",
		Result:     &cfg,
		DecodeHook: decodeHook,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// ---------- 5) Validation ----------
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// stringToBoolHook parses true/false, otherwise passes data through.
func stringToBoolHook(f, t reflect.Kind, data interface{}) (interface{}, error) {
	if f == reflect.String && t == reflect.Bool {
		return strconv.ParseBool(data.(string))
	}
	return data, nil
}

func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.ServiceVersion == "" {
		return fmt.Errorf("service_version is required")
	}

	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url is required")
	}
	if c.Feed.ReadTimeout <= 0 {
		return fmt.Errorf("feed.read_timeout must be > 0")
	}
	if c.Feed.HeartbeatInterval <= 0 || c.Feed.HeartbeatInterval >= c.Feed.ReadTimeout {
		return fmt.Errorf("feed.heartbeat_interval must be > 0 and shorter than feed.read_timeout")
	}

	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required")
	}
	if c.Kafka.OrderBookTopic == "" || c.Kafka.TradesTopic == "" {
		return fmt.Errorf("kafka.orderbook_topic and kafka.trades_topic are required")
	}
	switch strings.ToLower(c.Kafka.Acks) {
	case "all", "leader", "none":
	default:
		return fmt.Errorf("kafka.acks must be one of [all, leader, none]")
	}
	switch strings.ToLower(c.Kafka.Compression) {
	case "none", "gzip", "snappy", "lz4", "zstd":
	default:
		return fmt.Errorf("kafka.compression must be one of [none, gzip, snappy, lz4, zstd]")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error]")
	}

	if c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.otel_endpoint is required")
	}

	for k, p := range map[string]string{
		"http.metrics_path": c.HTTP.MetricsPath,
		"http.healthz_path": c.HTTP.HealthzPath,
		"http.readyz_path":  c.HTTP.ReadyzPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s must start with '/'", k)
		}
	}
	return nil
}
