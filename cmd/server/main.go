package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-orders/internal/config"
	"github.com/iliyamo/restaurant-table-orders/internal/database"
	"github.com/iliyamo/restaurant-table-orders/internal/handler"
	"github.com/iliyamo/restaurant-table-orders/internal/queue"
	"github.com/iliyamo/restaurant-table-orders/internal/repository"
	"github.com/iliyamo/restaurant-table-orders/internal/router"
	"github.com/iliyamo/restaurant-table-orders/internal/service"
	"github.com/iliyamo/restaurant-table-orders/internal/worker"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.InitSchema(db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	rdb := config.NewRedisClient()

	orders := repository.NewOrderRepo(db)
	tables := repository.NewTableRepo(db)
	modifications := repository.NewModificationRepo(db)
	payments := repository.NewPaymentRepo(db)
	sequences := repository.NewSequenceRepo(db)

	publisher := queue.NewPublisher(cfg.AMQPURL)

	occupancy := service.NewOccupancyService(tables, orders, publisher, logger)
	seqSvc := service.NewSequenceService(db, sequences, cfg.TxTimeout, logger)
	modSvc := service.NewModificationService(db, orders, modifications, occupancy, cfg.TxTimeout, logger)
	settleSvc := service.NewSettlementService(db, orders, payments, sequences, occupancy, publisher, cfg.TxTimeout, logger)
	lifecycle := service.NewLifecycleService(db, orders, occupancy, cfg.TxTimeout, logger)

	h := router.Handlers{
		Orders:      handler.NewOrderHandler(orders, modSvc, lifecycle),
		Settlements: handler.NewSettlementHandler(settleSvc, seqSvc, payments),
		Tables:      handler.NewTableHandler(tables, orders, occupancy, publisher),
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, h, cfg.JWTSecret, rdb)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Receipt journal consumer and occupancy sweep run for the life of
	// the process.
	go func() {
		if err := queue.StartReceiptConsumer(cfg.AMQPURL); err != nil {
			log.Printf("receipt consumer: %v", err)
		}
	}()
	sweeper := worker.NewOccupancySweeper(occupancy, cfg.SweepInterval, logger)
	go sweeper.Start(ctx)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
