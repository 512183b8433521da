package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Andrii485/computerstore-orders/internal/config"
	"github.com/Andrii485/computerstore-orders/internal/httpx"
	kafkax "github.com/Andrii485/computerstore-orders/internal/kafka"
	"github.com/Andrii485/computerstore-orders/internal/lifecycle"
	"github.com/Andrii485/computerstore-orders/internal/orders"
	"github.com/Andrii485/computerstore-orders/internal/postgres"
	"github.com/Andrii485/computerstore-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	placed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024, logger)
	placed.Start(ctx)
	status := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatus, 1024, logger)
	status.Start(ctx)

	// Lifecycle service & handler
	svc := &lifecycle.Service{
		Store:       &orders.Repo{DB: db},
		Redis:       rdb,
		Placed:      placed,
		Status:      status,
		ServiceName: cfg.ServiceName,
		FeePercent:  cfg.FeePercent,
		Log:         logger,
	}
	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{Service: svc, Log: logger}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	placed.Close()
	status.Close()
	cancel()
	placed.WaitClosed()
	status.WaitClosed()
}
