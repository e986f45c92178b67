package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/desims/tokobangunansaya/internal/config"
	"github.com/desims/tokobangunansaya/internal/db"
	"github.com/desims/tokobangunansaya/internal/events"
	posgrpc "github.com/desims/tokobangunansaya/internal/grpc"
	"github.com/desims/tokobangunansaya/internal/httpapi"
	"github.com/desims/tokobangunansaya/internal/metrics"
	"github.com/desims/tokobangunansaya/internal/pos"
	"github.com/desims/tokobangunansaya/internal/scheduler"
	"github.com/desims/tokobangunansaya/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg.ServiceName, cfg.LogLevel)
	defer log.Sync()

	log.Info("Starting point-of-sale service",
		zap.String("http_port", cfg.HTTPPort),
		zap.String("grpc_port", cfg.GRPCPort),
		zap.String("db_driver", cfg.DBDriver),
		zap.String("timezone", cfg.Timezone),
	)

	// Connect to database
	database, err := db.Connect(db.Options{Driver: cfg.DBDriver, DSN: cfg.DBDSN, LogLevel: cfg.LogLevel})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// Run migrations
	if err := db.RunMigrations(database); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize event publisher
	bus, err := events.Connect(cfg.RabbitMQURL, logger.Named(log, "events"))
	if err != nil {
		log.Warn("Failed to initialize event publisher", zap.Error(err))
		bus = events.Nop{}
	} else if cfg.RabbitMQURL != "" {
		log.Info("Event publisher initialized")
	}
	defer bus.Close()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	local := pos.NewLocal(database, pos.Settings{
		StoreName:     cfg.StoreName,
		ReceiptFooter: cfg.ReceiptFooter,
		Location:      cfg.Location(),
	}, bus, m, logger.Named(log, "pos"))
	defer local.Flush()

	// End-of-day summary
	sched := scheduler.NewScheduler(cfg.ReportCron, cfg.Location(), local.Reports(), bus, logger.Named(log, "scheduler"))
	if err := sched.Start(); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start gRPC health server
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatal("Failed to listen", zap.Error(err))
	}
	grpcServer := posgrpc.NewServer(posgrpc.NewHealthServer(database, bus, log), logger.Named(log, "grpc"))
	grpcDone := make(chan struct{})
	go func() {
		defer close(grpcDone)
		if err := posgrpc.Serve(ctx, grpcServer, lis, log); err != nil {
			log.Error("gRPC server error", zap.Error(err))
			stop()
		}
	}()

	// Start HTTP API
	router := httpapi.NewRouter(local, httpapi.Options{
		Logger:        logger.Named(log, "http"),
		Metrics:       m,
		DB:            database,
		ExposeMetrics: cfg.MetricsEnabled,
	})
	if err := httpapi.NewServer(fmt.Sprintf(":%s", cfg.HTTPPort), router, log).Run(ctx); err != nil {
		log.Error("HTTP server error", zap.Error(err))
		stop()
	}

	<-grpcDone

	log.Info("Server stopped")
}
