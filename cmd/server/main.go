package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/watchnest/internal/api"
	"github.com/dom/watchnest/internal/config"
	"github.com/dom/watchnest/internal/logging"
	"github.com/dom/watchnest/internal/media"
	"github.com/dom/watchnest/internal/repository/postgres"
	"github.com/dom/watchnest/internal/service"
	"github.com/dom/watchnest/internal/websocket"
	"github.com/spf13/pflag"
	"gorm.io/gorm/logger"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a TOML config file")
	port := pflag.StringP("port", "p", "", "port to listen on (overrides config)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.New(os.Stderr, "info").Fatal("failed to load config", "err", err)
	}
	if *port != "" {
		cfg.Port = *port
	}

	log := logging.New(os.Stderr, cfg.LogLevel)

	// Initialize database
	dbLogLevel := logger.Info
	if cfg.IsProduction() {
		dbLogLevel = logger.Warn
	}
	db, err := postgres.NewConnection(cfg.DatabaseURL, dbLogLevel, log)
	if err != nil {
		log.Fatal("failed to connect to database", "err", err)
	}

	repos := postgres.NewRepositories(db)

	uploader, err := media.New(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("failed to initialize media storage", "err", err)
	}
	var staticDir string
	if disk, ok := uploader.(*media.DiskUploader); ok {
		staticDir = disk.Dir()
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub(log)
	go hub.Run()

	services := service.NewServices(repos, cfg, uploader, hub, log)
	router := api.NewRouter(services, hub, cfg, log, staticDir)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "environment", cfg.Environment, "media", cfg.Media.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", "err", err)
	}
	hub.Stop()

	log.Info("server stopped")
}
