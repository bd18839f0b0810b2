package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/gathersync/internal/auth"
	"github.com/mmynk/gathersync/internal/config"
	"github.com/mmynk/gathersync/internal/middleware"
	"github.com/mmynk/gathersync/internal/notify"
	"github.com/mmynk/gathersync/internal/reminder"
	"github.com/mmynk/gathersync/internal/service"
	"github.com/mmynk/gathersync/internal/storage/sqlite"
	"github.com/mmynk/gathersync/pkg/api/apiconnect"
	"github.com/mmynk/gathersync/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Writer: os.Stdout})
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.ServerConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.Database.Path)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)
	notifier := notify.NewNotifier(store, notify.NewExpoDispatcher(cfg.Push.Endpoint, logger), logger)
	metrics := middleware.NewMetrics()

	protected := connect.WithInterceptors(
		middleware.LoggingInterceptor(logger),
		metrics.Interceptor(),
		middleware.RequireAuth(jwtManager),
	)
	optional := connect.WithInterceptors(
		middleware.LoggingInterceptor(logger),
		metrics.Interceptor(),
		middleware.OptionalAuth(jwtManager),
	)

	mux := http.NewServeMux()

	// Register Connect services
	mux.Handle(apiconnect.NewAuthServiceHandler(service.NewAuthService(authenticator, store, jwtManager, logger), optional))
	mux.Handle(apiconnect.NewPublicServiceHandler(service.NewPublicService(store, notifier), optional))
	mux.Handle(apiconnect.NewEventServiceHandler(service.NewEventService(store), protected))
	mux.Handle(apiconnect.NewParticipantServiceHandler(service.NewParticipantService(store, notifier), protected))
	mux.Handle(apiconnect.NewSnapshotServiceHandler(service.NewSnapshotService(store), protected))
	mux.Handle(apiconnect.NewTemplateServiceHandler(service.NewTemplateService(store), protected))
	mux.Handle(apiconnect.NewPushServiceHandler(service.NewPushService(store), protected))

	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if !cfg.Reminder.Disabled {
		scheduler := reminder.NewScheduler(store, notifier, cfg.Reminder.Schedule, logger)
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer scheduler.Stop(context.Background())
		logger.Info("Reminder scheduler started", "schedule", cfg.Reminder.Schedule)
	}

	// Add logging and CORS middleware
	handler := loggingMiddleware(logger, corsMiddleware(cfg.Server.CORSOrigin, mux))

	server := &http.Server{
		Addr: cfg.Addr(),
		// Wrap with h2c for HTTP/2 without TLS (required for Connect)
		Handler:      h2c.NewHandler(handler, &http2.Server{}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Connect server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		logger.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		logger.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser and app access
func corsMiddleware(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
