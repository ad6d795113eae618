package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	grpcapi "equiprent-backend/internal/api/grpc"
	httpapi "equiprent-backend/internal/api/http"
	"equiprent-backend/internal/cache"
	"equiprent-backend/internal/config"
	"equiprent-backend/internal/events"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/metrics"
	"equiprent-backend/internal/repository/postgres"
	"equiprent-backend/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting equipment rental backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http", cfg.HTTPAddress(), "grpc", cfg.GRPCAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	metrics.Register()
	store := postgres.NewStore(db)
	bus := events.NewBus()

	var reportCache service.ReportCache
	if client := cache.NewRedisClient(cfg.Redis); client != nil {
		defer client.Close()
		rc := cache.NewReportCache(client, cfg.Reports.CacheTTL)
		if err := rc.Ping(context.Background()); err != nil {
			logger.Warn("Redis unreachable, report cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			logger.Info("Report cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Reports.CacheTTL)
			reportCache = rc
		}
	}

	equipmentSvc := service.NewEquipmentService(store)
	equipmentSvc.Subscribe(bus)

	services := httpapi.Services{
		Rental:    service.NewRentalService(store, bus),
		Equipment: equipmentSvc,
		Repair:    service.NewRepairService(store, bus),
		Payment:   service.NewPaymentService(store),
		Damage:    service.NewDamageService(store),
		Report:    service.NewReportService(store, reportCache),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := httpapi.NewServer(cfg.HTTPAddress(), httpapi.NewRouter(services, store, cfg.API))
	errCh := make(chan error, 2)
	go func() { errCh <- httpServer.Start() }()

	var grpcServer *grpcapi.Server
	if cfg.Server.GRPCPort != 0 {
		lis, err := net.Listen("tcp", cfg.GRPCAddress())
		if err != nil {
			log.Fatalf("Failed to listen on %s: %v", cfg.GRPCAddress(), err)
		}
		grpcServer = grpcapi.NewServer(store, 0)
		go grpcServer.Watch(ctx)
		go func() { errCh <- grpcServer.Serve(lis) }()
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	logger.Info("Server stopped. Goodbye!")
}
