// pkg/marketdata/client.go
package marketdata

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/logger"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/ws"
)

// Receiver abstracts the connection session for the read loop. Satisfied by
// *ws.Session.
type Receiver interface {
	Receive(ctx context.Context) (ws.Frame, error)
}

// Run connects to the broadcast endpoint at addr and pumps messages into
// the callbacks until a terminal failure or ctx cancellation. It never
// retries or reconnects; callers needing resilience wrap Run with their own
// backoff loop.
func Run(ctx context.Context, addr string, cb Callbacks, log *logger.Logger) error {
	sess, err := ws.Dial(ctx, ws.Config{URL: addr}, log)
	if err != nil {
		return fmt.Errorf("marketdata: dial %s: %w", addr, err)
	}
	defer sess.Close()

	return ReadLoop(ctx, sess, cb, log)
}

// ReadLoop drives an already-established session: receive, decode, route,
// repeat. Exposed separately so callers owning the session (custom timeouts,
// shared dial policy) can reuse the loop.
//
// Every message is delivered at most once; one bad message ends the loop,
// because ordering of a market-data stream cannot be trusted once a gap in
// understanding occurs.
func ReadLoop(ctx context.Context, rcv Receiver, cb Callbacks, log *logger.Logger) error {
	log.Info("broadcast connection established")
	router := NewRouter(cb, log)

	for {
		frame, err := rcv.Receive(ctx)
		if err != nil {
			return err
		}

		env, err := DecodeFrame(frame)
		if err != nil {
			var closed *ConnectionClosedError
			if errors.As(err, &closed) {
				log.Info("close msg received",
					zap.Int("code", closed.Code),
					zap.String("reason", closed.Reason),
				)
			} else {
				log.Error("failed to decode frame", zap.Error(err))
			}
			return err
		}

		if err := router.Route(ctx, env); err != nil {
			log.Error("failed to decode data", zap.Error(err))
			return err
		}
	}
}
