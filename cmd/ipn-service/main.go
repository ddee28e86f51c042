package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/shvark-monetico-service/internal/config"
	"github.com/LavaJover/shvark-monetico-service/internal/delivery/http/handlers"
	publisher "github.com/LavaJover/shvark-monetico-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-monetico-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-monetico-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-monetico-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-monetico-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-monetico-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-monetico-service/internal/usecase"
	"github.com/joho/godotenv"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()

	logg, err := logger.New(cfg.LogConfig)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	slog.SetDefault(logg)

	// Init database
	db := postgres.MustInitDB(cfg)
	if err := migrate.RunMigrations(db, cfg.IPNDB.MigrationsPath); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
	pub := publisher.NewDefaultKafkaPublisher(brokers)
	defer pub.Close()

	ipnMetrics := metrics.NewIPNMetrics(prometheus.DefaultRegisterer)

	gatewayLocation, err := time.LoadLocation(cfg.Monetico.Timezone)
	if err != nil {
		log.Fatalf("failed to load monetico timezone %q: %v", cfg.Monetico.Timezone, err)
	}

	// Init notification repo
	notificationRepo := repository.NewDefaultPaymentNotificationRepository(db)
	rejectionLogger := logger.NewDefaultRejectionLogger(notificationRepo, logg)

	// Init ipn usecase
	uc := usecase.NewDefaultIPNUsecase(
		notificationRepo,
		pub,
		rejectionLogger,
		ipnMetrics,
		logg,
		usecase.IPNUsecaseConfig{
			EPTCode:     cfg.Monetico.EPTCode,
			SecurityKey: cfg.Monetico.SecurityKey,
			Topic:       cfg.KafkaService.Topic,
			Location:    gatewayLocation,
		},
	)

	ipnHandler, err := handlers.NewIPNHandler(uc, logg)
	if err != nil {
		log.Fatalf("failed to init ipn handler: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(echoprometheus.NewMiddleware("ipn"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogMethod:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logg.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_us", v.Latency.Microseconds(),
				"remote_ip", v.RemoteIP,
			)
			return nil
		},
	}))
	e.GET("/metrics", echoprometheus.NewHandler())
	ipnHandler.Register(e)

	// gRPC health endpoint
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.GRPCServer.Host, cfg.GRPCServer.Port))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	go func() {
		slog.Info("gRPC server started", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("failed to serve: %v\n", err)
		}
	}()

	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port)
		slog.Info("HTTP server started", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to serve http: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err.Error())
	}
	grpcServer.GracefulStop()
	slog.Info("ipn service stopped")
}
