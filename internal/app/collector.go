// internal/app/collector.go
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/CryptologyExchange/cryptology-ws-client-go/internal/config"
	"github.com/CryptologyExchange/cryptology-ws-client-go/internal/metrics"
	"github.com/CryptologyExchange/cryptology-ws-client-go/internal/processor"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/backoff"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/httpserver"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/kafka"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/logger"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/marketdata"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/telemetry"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/ws"
)

// Run wires the collector together and blocks until ctx is cancelled or a
// component fails fatally.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	metrics.Register()

	cfg.Telemetry.ServiceName = cfg.ServiceName
	cfg.Telemetry.ServiceVersion = cfg.ServiceVersion
	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownSafe(ctx, "telemetry", func() error { return shutdownTracer(ctx) }, log)

	kafkaProd, err := kafka.NewProducer(ctx, kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		RequiredAcks:   cfg.Kafka.Acks,
		Compression:    cfg.Kafka.Compression,
		Timeout:        cfg.Kafka.Timeout,
		FlushFrequency: cfg.Kafka.FlushFrequency,
		FlushMessages:  cfg.Kafka.FlushMessages,
		Backoff:        cfg.Kafka.Backoff,
	}, log)
	if err != nil {
		return fmt.Errorf("kafka producer init: %w", err)
	}
	defer shutdownSafe(ctx, "kafka-producer", kafkaProd.Close, log)

	forwarder := processor.NewForwarder(kafkaProd, processor.Topics{
		OrderBookTopic: cfg.Kafka.OrderBookTopic,
		TradesTopic:    cfg.Kafka.TradesTopic,
	}, log)

	httpSrv, err := httpserver.New(cfg.HTTP, kafkaProd.Ping, log)
	if err != nil {
		return fmt.Errorf("httpserver init: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpSrv.Run(ctx) })
	g.Go(func() error { return feedLoop(ctx, cfg, forwarder.Callbacks(), log) })

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			log.WithContext(ctx).Info("collector stopped by context")
			return nil
		}
		return err
	}
	return nil
}

// feedLoop keeps one broadcast session alive at a time. A closed stream is
// redialled with back-off; a decode failure is fatal, because the stream
// cannot be trusted past a gap in understanding.
func feedLoop(ctx context.Context, cfg *config.Config, cb marketdata.Callbacks, log *logger.Logger) error {
	wsCfg := ws.Config{
		URL:               cfg.Feed.URL,
		ReadTimeout:       cfg.Feed.ReadTimeout,
		HeartbeatInterval: cfg.Feed.HeartbeatInterval,
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var sess *ws.Session
		err := backoff.Execute(ctx, cfg.Feed.Backoff, log, func(ctx context.Context) error {
			s, dialErr := ws.Dial(ctx, wsCfg, log)
			if dialErr == nil {
				sess = s
			}
			return dialErr
		})
		if err != nil {
			return fmt.Errorf("feed connect failed: %w", err)
		}

		err = marketdata.ReadLoop(ctx, sess, cb, log)
		_ = sess.Close()

		var closed *marketdata.ConnectionClosedError
		switch {
		case errors.Is(err, context.Canceled):
			return err
		case errors.As(err, &closed):
			metrics.Reconnects.Inc()
			log.WithContext(ctx).Warn("feed closed, reconnecting",
				zap.Int("code", closed.Code),
				zap.String("reason", closed.Reason),
			)
		default:
			return err
		}
	}
}

// shutdownSafe wraps a Close/Shutdown call with logging.
func shutdownSafe(ctx context.Context, name string, fn func() error, log *logger.Logger) {
	log.WithContext(ctx).Info(fmt.Sprintf("%s: shutting down", name))
	if err := fn(); err != nil {
		log.WithContext(ctx).Error(fmt.Sprintf("%s shutdown error", name), zap.Error(err))
	} else {
		log.WithContext(ctx).Info(fmt.Sprintf("%s: shutdown complete", name))
	}
}
