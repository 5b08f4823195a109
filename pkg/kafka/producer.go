// pkg/kafka/producer.go
package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/backoff"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/logger"
)

// Config holds settings for the synchronous Kafka producer.
type Config struct {
	Brokers        []string       `mapstructure:"brokers"`
	RequiredAcks   string         `mapstructure:"acks"`
	Compression    string         `mapstructure:"compression"`
	Timeout        time.Duration  `mapstructure:"timeout"`
	FlushFrequency time.Duration  `mapstructure:"flush_frequency"`
	FlushMessages  int            `mapstructure:"flush_messages"`
	Backoff        backoff.Config `mapstructure:"backoff"`
}

func (c *Config) applyDefaults() {
	if c.RequiredAcks == "" {
		c.RequiredAcks = "all"
	}
	if c.Compression == "" {
		c.Compression = "none"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
}

func (c Config) validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka: at least one broker is required")
	}
	return nil
}

func buildSaramaConfig(cfg Config) (*sarama.Config, error) {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.Timeout = cfg.Timeout
	sc.Producer.Flush.Frequency = cfg.FlushFrequency
	sc.Producer.Flush.Messages = cfg.FlushMessages

	switch strings.ToLower(cfg.RequiredAcks) {
	case "all":
		sc.Producer.RequiredAcks = sarama.WaitForAll
	case "leader":
		sc.Producer.RequiredAcks = sarama.WaitForLocal
	case "none":
		sc.Producer.RequiredAcks = sarama.NoResponse
	default:
		return nil, fmt.Errorf("kafka: invalid acks %q", cfg.RequiredAcks)
	}

	switch strings.ToLower(cfg.Compression) {
	case "none":
		sc.Producer.Compression = sarama.CompressionNone
	case "gzip":
		sc.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		sc.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		sc.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		sc.Producer.Compression = sarama.CompressionZSTD
	default:
		return nil, fmt.Errorf("kafka: invalid compression %q", cfg.Compression)
	}

	return sc, nil
}

type kafkaProducer struct {
	prod       sarama.SyncProducer
	client     sarama.Client
	logger     *logger.Logger
	backoffCfg backoff.Config
}

// NewProducer validates cfg and connects a synchronous producer.
func NewProducer(ctx context.Context, cfg Config, log *logger.Logger) (Producer, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	sc, err := buildSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}

	var client sarama.Client
	err = backoff.Execute(ctx, cfg.Backoff, log, func(ctx context.Context) error {
		var dialErr error
		client, dialErr = sarama.NewClient(cfg.Brokers, sc)
		return dialErr
	})
	if err != nil {
		return nil, fmt.Errorf("kafka: connect: %w", err)
	}

	prod, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("kafka: create producer: %w", err)
	}

	return &kafkaProducer{
		prod:       prod,
		client:     client,
		logger:     log.Named("kafka"),
		backoffCfg: cfg.Backoff,
	}, nil
}

// Publish sends one message, retrying transient failures with back-off.
func (p *kafkaProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(value),
	}
	if key != nil {
		msg.Key = sarama.ByteEncoder(key)
	}
	return backoff.Execute(ctx, p.backoffCfg, p.logger, func(ctx context.Context) error {
		_, _, err := p.prod.SendMessage(msg)
		return err
	})
}

func (p *kafkaProducer) Ping() error {
	if p.client == nil {
		return fmt.Errorf("kafka: client is not initialized")
	}
	return p.client.RefreshMetadata()
}

func (p *kafkaProducer) Close() error {
	if err := p.prod.Close(); err != nil {
		return err
	}
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
