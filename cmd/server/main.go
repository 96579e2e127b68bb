package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	api "vehicle-rental-backend/internal/api/grpc"
	"vehicle-rental-backend/internal/api/grpc/interceptor"
	httpapi "vehicle-rental-backend/internal/api/http"
	"vehicle-rental-backend/internal/bootstrap"
	"vehicle-rental-backend/internal/config"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/security"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Vehicle Rental Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "http_address", cfg.GetHTTPAddress())
	logger.Info("Database configuration", "driver", cfg.Database.Driver, "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)

	ctx := context.Background()

	// Initialize Repositories
	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	// Initialize Notification channels
	notifier, closeNotifier, err := bootstrap.Notifier(ctx, cfg, store)
	if err != nil {
		logger.Error("Failed to initialize notifications", "error", err)
		log.Fatalf("Failed to initialize notifications: %v", err)
	}
	defer closeNotifier()

	// Initialize Services
	svcs := bootstrap.NewServices(cfg, store, notifier)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret)
	authInterceptor := interceptor.NewAuthInterceptor(tokenManager)

	// Set up gRPC server
	lis, err := net.Listen("tcp", cfg.GetServerAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetServerAddress())
		log.Fatalf("Failed to listen: %v", err)
	}

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptor.RequestLogging(),
			authInterceptor.Unary(),
		),
	)

	// Register services
	api.RegisterBookingServiceServer(s, api.NewBookingHandler(svcs.Bookings, svcs.Handover, svcs.Payments))
	api.RegisterAdminBookingServiceServer(s, api.NewAdminHandler(svcs.Bookings, svcs.Handover, svcs.Payments))
	api.RegisterNotificationServiceServer(s, api.NewNotificationHandler(svcs.Notifications))

	// Register reflection service for grpcurl
	reflection.Register(s)

	// Set up HTTP side server
	var httpServer *http.Server
	if addr := cfg.GetHTTPAddress(); addr != "" {
		router := mux.NewRouter()
		var pinger httpapi.Pinger
		if store.DB != nil {
			pinger = store.DB
		}
		httpapi.RegisterRoutes(router, httpapi.NewHandler(pinger, svcs.Bookings))

		httpServer = &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			logger.Info("HTTP server listening", "address", addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "error", err)
			}
		}()
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")
		if httpServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("HTTP server shutdown error", "error", err)
			}
		}
		s.GracefulStop()
	}()

	logger.Info("gRPC server listening", "address", cfg.GetServerAddress())
	if err := s.Serve(lis); err != nil {
		logger.Error("Failed to serve gRPC", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
