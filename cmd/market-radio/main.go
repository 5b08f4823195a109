// cmd/market-radio/main.go
//
// Example consumer: subscribes to the broadcast feed and logs order-book
// and trade events, reconnecting with a policy that depends on why the
// previous session ended.
package main

import (
	"context"
	"encoding/json"
	"errors"
	stdlog "log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/logger"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/marketdata"
)

func main() {
	var (
		server   string
		pairs    []string
		logLevel string
		devMode  bool
	)

	root := &cobra.Command{
		Use:   "market-radio",
		Short: "Log the public Cryptology market-data broadcast",
		RunE: func(cmd *cobra.Command, args []string) error {
			logg, err := logger.New(logger.Config{Level: logLevel, DevMode: devMode})
			if err != nil {
				return err
			}
			defer logg.Sync()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return run(ctx, server, pairs, logg)
		},
	}

	root.Flags().StringVar(&server, "server", "ws://127.0.0.1:8080", "broadcast endpoint address")
	root.Flags().StringSliceVar(&pairs, "pairs", []string{"BTC_USD", "ETH_USD"}, "trade pairs to watch for empty books")
	root.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	root.Flags().BoolVar(&devMode, "dev", false, "human-readable log output")

	if err := root.Execute(); err != nil {
		stdlog.Fatal(err)
	}
}

func run(ctx context.Context, server string, pairs []string, log *logger.Logger) error {
	watched := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		watched[p] = true
	}

	cb := marketdata.Callbacks{
		MarketData: func(_ context.Context, payload json.RawMessage) error {
			log.Debug("broadcast", zap.Int("bytes", len(payload)))
			return nil
		},
		OrderBook: func(_ context.Context, u marketdata.OrderBookUpdate) {
			if watched[u.TradePair] {
				if len(u.BuyLevels) == 0 {
					log.Error("buy order book is empty",
						zap.String("pair", u.TradePair),
						zap.Int64("order_id", u.CurrentOrderID),
					)
				}
				if len(u.SellLevels) == 0 {
					log.Error("sell order book is empty",
						zap.String("pair", u.TradePair),
						zap.Int64("order_id", u.CurrentOrderID),
					)
				}
			}
			log.Info("order book",
				zap.String("pair", u.TradePair),
				zap.Int64("order_id", u.CurrentOrderID),
				zap.Int("buy_levels", len(u.BuyLevels)),
				zap.Int("sell_levels", len(u.SellLevels)),
			)
		},
		Trades: func(_ context.Context, t marketdata.AnonymousTrade) {
			currencies := strings.SplitN(t.TradePair, "_", 2)
			base, quote := t.TradePair, ""
			if len(currencies) == 2 {
				base, quote = currencies[0], currencies[1]
			}
			log.Info("trade",
				zap.Time("ts", t.Time),
				zap.Int64("order_id", t.CurrentOrderID),
				zap.String("bought", t.Amount.String()+" "+base),
				zap.String("for", t.Price.String()+" "+quote),
			)
		},
	}

	log.Info("connecting", zap.String("server", server))
	for {
		err := marketdata.Run(ctx, server, cb, log)

		var closed *marketdata.ConnectionClosedError
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, marketdata.ErrRateLimit):
			log.Error("rate limit reached")
			if !sleep(ctx, 30*time.Second) {
				return nil
			}
		case errors.Is(err, marketdata.ErrServerRestart):
			log.Warn("server restart")
			if !sleep(ctx, 80*time.Second) {
				return nil
			}
		case errors.As(err, &closed):
			log.Error("disconnected", zap.Error(err))
			if !sleep(ctx, 30*time.Second) {
				return nil
			}
		default:
			// decode failures and dial errors are not retried blindly
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
