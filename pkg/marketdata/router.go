// pkg/marketdata/router.go
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/logger"
)

// MarketDataCallback receives the raw payload of every broadcast before any
// sub-typing. It runs in-line with the read loop: a slow callback throttles
// ingestion, which is the intended backpressure point. A non-nil error ends
// the session.
type MarketDataCallback func(ctx context.Context, payload json.RawMessage) error

// OrderBookCallback receives order-book snapshots. Fire-and-forget: invoked
// on its own goroutine, completion order relative to later frames is
// unspecified.
type OrderBookCallback func(ctx context.Context, update OrderBookUpdate)

// TradesCallback receives executed trade ticks under the same
// fire-and-forget policy as OrderBookCallback.
type TradesCallback func(ctx context.Context, trade AnonymousTrade)

// Callbacks bundles the optional subscriber callbacks. A nil callback means
// "skip that dispatch step".
type Callbacks struct {
	MarketData MarketDataCallback
	OrderBook  OrderBookCallback
	Trades     TradesCallback
}

// Router inspects decoded envelopes and invokes the matching callbacks.
// It keeps no state between messages.
type Router struct {
	cb  Callbacks
	log *logger.Logger
}

func NewRouter(cb Callbacks, log *logger.Logger) *Router {
	return &Router{cb: cb, log: log.Named("router")}
}

// Route dispatches one envelope. Any failure it returns is terminal for
// the session; heterogeneous extraction failures are folded into a single
// DecodeError, preserving the protocol's coarse error granularity.
func (r *Router) Route(ctx context.Context, env *Envelope) error {
	msgType, err := ParseServerMessageType(env.ResponseType)
	if err != nil {
		return &DecodeError{Err: err}
	}
	if msgType != Broadcast {
		return &DecodeError{Err: fmt.Errorf("%w: response_type %q", ErrUnsupportedMessageType, env.ResponseType)}
	}

	// The market-data callback fires first and for every broadcast,
	// regardless of payload sub-type.
	if r.cb.MarketData != nil {
		if err := r.cb.MarketData(ctx, env.Data); err != nil {
			return fmt.Errorf("market data callback: %w", err)
		}
	}

	payload, err := decodePayload(env.Data)
	if err != nil {
		return &DecodeError{Err: err}
	}

	switch p := payload.(type) {
	case OrderBookUpdate:
		if cb := r.cb.OrderBook; cb != nil {
			go r.dispatch(ctx, "order-book", func() { cb(ctx, p) })
		}
	case AnonymousTrade:
		if cb := r.cb.Trades; cb != nil {
			go r.dispatch(ctx, "trades", func() { cb(ctx, p) })
		}
	}
	return nil
}

// dispatch guards a fire-and-forget callback: a panicking subscriber must
// not take the read loop down with it.
func (r *Router) dispatch(_ context.Context, name string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("callback panic",
				zap.String("callback", name),
				zap.Any("panic", rec),
			)
		}
	}()
	fn()
}
