package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/expense-portal/internal"
	"github.com/frahmantamala/expense-portal/internal/backend"
	"github.com/frahmantamala/expense-portal/internal/expense"
	expensepostgres "github.com/frahmantamala/expense-portal/internal/expense/postgres"
	profilepostgres "github.com/frahmantamala/expense-portal/internal/profile/postgres"
	"github.com/frahmantamala/expense-portal/internal/refdata"
	refdatapostgres "github.com/frahmantamala/expense-portal/internal/refdata/postgres"
	"github.com/frahmantamala/expense-portal/internal/session"
	"github.com/frahmantamala/expense-portal/internal/transport/rest"
	"github.com/frahmantamala/expense-portal/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config         *internal.Config
	Backend        *backend.Client
	Router         *chi.Mux
	SessionManager *session.Manager
	Logger         *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	refreshCtx, stopRefresher := context.WithCancel(context.Background())
	defer stopRefresher()
	go deps.Backend.Auth.RunRefresher(refreshCtx, time.Minute)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		deps.SessionManager.Close()
		if err := deps.Backend.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Logging.Level, config.Logging.Format)
	log := logger.LoggerWrapper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backendClient, err := backend.New(ctx, config, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize backend: %w", err)
	}

	profileRepo := profilepostgres.NewProfileRepository(backendClient.DB)

	sessionManager := session.NewManager(backendClient.Auth, profileRepo, log)
	if err := sessionManager.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start session manager: %w", err)
	}

	expenseService := expense.NewService(
		expensepostgres.NewExpenseRepository(backendClient.DB),
		backendClient.Storage,
		log,
	)
	refDataService := refdata.NewService(refdatapostgres.NewRefDataRepository(backendClient.DB), log)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Dependencies{
		APIKey:         config.Backend.APIKey,
		AllowedOrigins: config.Server.AllowedOrigins,
		TokenValidator: backendClient.Auth,
		Profiles:       profileRepo,
		SessionHandler: session.NewHandler(sessionManager),
		ExpenseHandler: expense.NewHandler(expenseService),
		RefDataHandler: refdata.NewHandler(refDataService),
		HealthHandler:  rest.NewHealthHandler(backendClient.SQL.DB),
		Logger:         log,
	})

	return &Dependencies{
		Config:         config,
		Backend:        backendClient,
		Router:         router,
		SessionManager: sessionManager,
		Logger:         log,
	}, nil
}
