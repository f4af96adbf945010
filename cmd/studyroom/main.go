package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/navikt/studyroom/internal/api"
	"github.com/navikt/studyroom/internal/backend"
	"github.com/navikt/studyroom/internal/cli"
	"github.com/navikt/studyroom/internal/config"
	"github.com/navikt/studyroom/internal/datasource"
	"github.com/navikt/studyroom/internal/repository"
	"github.com/navikt/studyroom/internal/service"
	"github.com/navikt/studyroom/internal/session"
	"github.com/navikt/studyroom/internal/utils"
	"github.com/navikt/studyroom/internal/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	openBrowser := flag.Bool("open", true, "Open meeting links in the system browser")
	dashboard := flag.Bool("dashboard", false, "Start the companion HTTP server")
	flag.Parse()

	cfg := config.Load()
	if *dashboard {
		cfg.Dashboard.Enabled = true
	}

	logger, err := utils.NewLogger(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ds := datasource.New(cfg.API, logger, datasource.NewMetrics(registry))
	client := backend.NewClient(ds, logger)

	repo, err := repository.NewRepository(cfg.Store, logger)
	if err != nil {
		logger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Warn("Error closing repository", zap.Error(err))
		}
	}()

	sess := session.New(repo)
	if user, err := sess.Load(ctx); err != nil {
		logger.Warn("Failed to restore signed-in user", zap.Error(err))
	} else if user != nil {
		logger.Debug("Restored signed-in user")
	}

	var launch cli.Launcher
	if *openBrowser {
		launch = cli.LaunchBrowser
	}
	shell := cli.NewShell(os.Stdin, os.Stdout, launch, logger)

	rooms := service.NewRoomManager(client, repo, sess, logger)
	controller := service.NewController(client, rooms, sess, shell, shell, cfg.Poll, logger)
	controller.RegisterUpdateCallback(shell.OnViewUpdate)
	catalog := service.NewCatalog(client, sess, logger)

	var server *http.Server
	var sseManager *web.SSEManager
	if cfg.Dashboard.Enabled {
		sseManager = web.NewSSEManager(logger)
		controller.RegisterUpdateCallback(sseManager.NotifyViewUpdate)

		server, err = newDashboardServer(cfg, controller, sseManager, registry, logger)
		if err != nil {
			logger.Fatal("Failed to initialize dashboard", zap.Error(err))
		}

		go func() {
			logger.Info("Starting dashboard server", zap.String("port", cfg.Dashboard.Port))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Dashboard server failed", zap.Error(err))
			}
		}()
	}

	if err := shell.Run(ctx, controller, catalog); err != nil {
		logger.Error("Shell stopped with error", zap.Error(err))
	}

	if server != nil {
		logger.Info("Shutting down dashboard server...")

		// Close SSE connections first so Shutdown does not wait on them
		sseManager.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			logger.Error("Error shutting down dashboard server", zap.Error(err))
		}
	}

	logger.Info("Stopped")
}

func newDashboardServer(cfg config.Config, controller *service.Controller, events http.Handler, registry *prometheus.Registry, logger *zap.Logger) (*http.Server, error) {
	routes := api.Routes{
		State:       controller,
		Events:      events,
		Gatherer:    registry,
		ProxyPrefix: cfg.Dashboard.ProxyPrefix,
		Ready: api.ReadyFunc(func() bool {
			phase := controller.Snapshot().Phase
			return phase == service.PhaseDashboard || phase == service.PhaseInRoom
		}),
	}

	if cfg.API.IsRemoteConfigured() {
		proxy, err := web.NewBackendProxy(cfg.API.BaseURL, cfg.Dashboard.ProxyPrefix, logger)
		if err != nil {
			return nil, err
		}
		routes.Proxy = proxy
	}

	handler := web.Chain(api.SetupRoutes(routes), web.RequestLogger(logger), web.HTTPProtocolMiddleware)

	return &http.Server{
		Addr:         ":" + cfg.Dashboard.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disable write timeout for SSE connections
		IdleTimeout:  60 * time.Second,
	}, nil
}
