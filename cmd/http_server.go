package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/auth"
	"github.com/frahmantamala/pisda/internal/core/events"
	"github.com/frahmantamala/pisda/internal/printform"
	"github.com/frahmantamala/pisda/internal/tools"
	"github.com/frahmantamala/pisda/internal/transport/middleware"
	"github.com/frahmantamala/pisda/internal/transport/rest"
	"github.com/frahmantamala/pisda/internal/transport/swagger"
	"github.com/frahmantamala/pisda/internal/user"
	"github.com/frahmantamala/pisda/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server that serves the API and the web client`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer(appConfig)
	},
}

type Dependencies struct {
	Config  *internal.Config
	Storage *Storage
	Bus     *events.EventBus
	Router  *chi.Mux
	Logger  *slog.Logger
}

// Services are the domain services built on top of a Storage.
type Services struct {
	Users      *user.Service
	Tools      *tools.Service
	Auth       *auth.Service
	PrintForms *printform.Service
}

func startHTTPServer(cfg *internal.Config) error {
	ctx := context.Background()

	deps, err := initializeDependencies(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Storage.Close()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		deps.Logger.Info("Starting HTTP server",
			"address", addr,
			"environment", cfg.Environment,
			"storage", cfg.Storage.Driver)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		deps.Logger.Error("Server shutdown error", "error", err)
	}
	if err := deps.Bus.Drain(shutdownCtx); err != nil {
		deps.Logger.Warn("event handlers still running at shutdown", "error", err)
	}

	deps.Logger.Info("Server stopped")
	return nil
}

func initializeDependencies(ctx context.Context, cfg *internal.Config) (*Dependencies, error) {
	log := logger.LoggerWrapper()

	store, err := openStorage(cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	bus := events.NewEventBus(log)
	bus.Subscribe(events.AllEvents, events.AuditLogger(log))

	svc := buildServices(cfg, store, bus, log)

	if _, created, err := svc.Users.EnsureBootstrapAdmin(ctx, cfg.Security.BootstrapAdminPassword); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to ensure bootstrap admin: %w", err)
	} else if created {
		log.Warn("created bootstrap admin account", "username", user.BootstrapUsername)
	}

	docs, err := swagger.Load(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var metrics *middleware.Metrics
	if cfg.Observability.Metrics.Enabled {
		metrics = middleware.NewMetrics(prometheus.NewRegistry())
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Routes{
		Config:     cfg,
		Logger:     log,
		Identity:   svc.Auth,
		ToolGate:   svc.Tools,
		Metrics:    metrics,
		Docs:       docs,
		Health:     rest.NewHealthHandler(store.Health),
		Auth:       auth.NewHandler(svc.Auth),
		Users:      user.NewHandler(svc.Users),
		Tools:      tools.NewHandler(svc.Tools),
		PrintForms: printform.NewHandler(svc.PrintForms),
	})

	return &Dependencies{
		Config:  cfg,
		Storage: store,
		Bus:     bus,
		Router:  router,
		Logger:  log,
	}, nil
}

// toolRegistry lists the tools compiled into the server.
func toolRegistry() *tools.Registry {
	return tools.NewRegistry(
		auth.Manifest(),
		printform.Manifest(),
	)
}

func buildServices(cfg *internal.Config, store *Storage, publisher events.Publisher, log *slog.Logger) *Services {
	users := user.NewService(store.Users, cfg.Security.BCryptCost, publisher, log)
	toolsSvc := tools.NewService(store.Tools, toolRegistry(), publisher, log)
	tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.TokenDuration)

	return &Services{
		Users:      users,
		Tools:      toolsSvc,
		Auth:       auth.NewService(users, toolsSvc, tokens, log),
		PrintForms: printform.NewService(store.Forms, publisher, log),
	}
}
