// internal/processor/forwarder.go
package processor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/CryptologyExchange/cryptology-ws-client-go/internal/metrics"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/kafka"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/logger"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/marketdata"
)

var tracer = otel.Tracer("collector/processor")

// Topics holds the destination Kafka topic names.
type Topics struct {
	OrderBookTopic string
	TradesTopic    string
}

// Forwarder bridges decoded feed events into Kafka. It implements the
// feed callbacks; the order-book and trades handlers run on the router's
// fire-and-forget goroutines, so a slow broker never stalls the read loop.
type Forwarder struct {
	producer kafka.Producer
	topics   Topics
	log      *logger.Logger
}

func NewForwarder(p kafka.Producer, topics Topics, log *logger.Logger) *Forwarder {
	return &Forwarder{producer: p, topics: topics, log: log.Named("forwarder")}
}

// Callbacks exposes the forwarder as a feed callback set.
func (f *Forwarder) Callbacks() marketdata.Callbacks {
	return marketdata.Callbacks{
		MarketData: f.handleBroadcast,
		OrderBook:  f.handleOrderBook,
		Trades:     f.handleTrade,
	}
}

// handleBroadcast runs in-line with the read loop; it only counts.
func (f *Forwarder) handleBroadcast(_ context.Context, _ json.RawMessage) error {
	metrics.BroadcastsTotal.Inc()
	return nil
}

type orderBookMessage struct {
	CurrentOrderID int64                      `json:"current_order_id"`
	TradePair      string                     `json:"trade_pair"`
	BuyLevels      map[string]decimal.Decimal `json:"buy_levels"`
	SellLevels     map[string]decimal.Decimal `json:"sell_levels"`
}

func (f *Forwarder) handleOrderBook(ctx context.Context, u marketdata.OrderBookUpdate) {
	ctx, span := tracer.Start(ctx, "HandleOrderBook")
	defer span.End()
	span.SetAttributes(attribute.String("trade_pair", u.TradePair))
	metrics.EventsTotal.WithLabelValues("order_book").Inc()
	start := time.Now()

	payload, err := json.Marshal(orderBookMessage{
		CurrentOrderID: u.CurrentOrderID,
		TradePair:      u.TradePair,
		BuyLevels:      u.BuyLevels,
		SellLevels:     u.SellLevels,
	})
	if err != nil {
		metrics.SerializeErrors.Inc()
		f.log.WithContext(ctx).Error("marshal order book failed", zap.Error(err))
		span.RecordError(err)
		return
	}

	if err := f.producer.Publish(ctx, f.topics.OrderBookTopic, []byte(u.TradePair), payload); err != nil {
		metrics.PublishErrors.Inc()
		f.log.WithContext(ctx).Error("publish order book failed",
			zap.String("trade_pair", u.TradePair),
			zap.Error(err),
		)
		span.RecordError(err)
		return
	}
	metrics.PublishLatency.Observe(time.Since(start).Seconds())
}

type tradeMessage struct {
	Time           time.Time       `json:"time"`
	CurrentOrderID int64           `json:"current_order_id"`
	TradePair      string          `json:"trade_pair"`
	Amount         decimal.Decimal `json:"amount"`
	Price          decimal.Decimal `json:"price"`
}

func (f *Forwarder) handleTrade(ctx context.Context, t marketdata.AnonymousTrade) {
	ctx, span := tracer.Start(ctx, "HandleTrade")
	defer span.End()
	span.SetAttributes(attribute.String("trade_pair", t.TradePair))
	metrics.EventsTotal.WithLabelValues("trade").Inc()
	start := time.Now()

	payload, err := json.Marshal(tradeMessage{
		Time:           t.Time,
		CurrentOrderID: t.CurrentOrderID,
		TradePair:      t.TradePair,
		Amount:         t.Amount,
		Price:          t.Price,
	})
	if err != nil {
		metrics.SerializeErrors.Inc()
		f.log.WithContext(ctx).Error("marshal trade failed", zap.Error(err))
		span.RecordError(err)
		return
	}

	if err := f.producer.Publish(ctx, f.topics.TradesTopic, []byte(t.TradePair), payload); err != nil {
		metrics.PublishErrors.Inc()
		f.log.WithContext(ctx).Error("publish trade failed",
			zap.String("trade_pair", t.TradePair),
			zap.Error(err),
		)
		span.RecordError(err)
		return
	}
	metrics.PublishLatency.Observe(time.Since(start).Seconds())
}
