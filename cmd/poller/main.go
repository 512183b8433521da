// The poller is the standalone polling client: it watches one buyer's
// in-flight orders on a fixed cadence and logs status changes, including
// the one-shot shipped/delivered notices. It replaces the desktop UI timer.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Andrii485/computerstore-orders/internal/config"
	"github.com/Andrii485/computerstore-orders/internal/lifecycle"
	"github.com/Andrii485/computerstore-orders/internal/notify"
	"github.com/Andrii485/computerstore-orders/internal/orders"
	"github.com/Andrii485/computerstore-orders/internal/postgres"
	"github.com/Andrii485/computerstore-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.PollBuyerID <= 0 {
		log.Fatal("POLL_BUYER_ID is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, 2)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Read path only: no producers, the poller never mutates orders.
	svc := &lifecycle.Service{
		Store:       &orders.Repo{DB: db},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-poller",
		FeePercent:  cfg.FeePercent,
		Log:         logger,
	}

	p := &notify.Poller{
		Source:   svc,
		BuyerID:  cfg.PollBuyerID,
		Interval: cfg.PollInterval,
		Log:      logger,
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("stopping poller")
		cancel()
	}()

	logger.Info("poller started",
		zap.Int64("buyer_id", cfg.PollBuyerID),
		zap.Duration("interval", cfg.PollInterval))
	p.Run(ctx)
}
