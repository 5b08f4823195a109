package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/CryptologyExchange/cryptology-ws-client-go/internal/app"
	"github.com/CryptologyExchange/cryptology-ws-client-go/internal/config"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/logger"
)

func main() {
	var cfgFile string

	root := &cobra.Command{
		Use:   "collector",
		Short: "Cryptology market-data collector (WebSocket feed to Kafka)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			logg, err := logger.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer logg.Sync()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return app.Run(ctx, cfg, logg)
		},
	}

	root.Flags().StringVar(&cfgFile, "config", "", "path to config file (optional, ENV otherwise)")
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
