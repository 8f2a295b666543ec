package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CapIot.portal/internal/client"
	"CapIot.portal/internal/config"
	"CapIot.portal/internal/controller"
	"CapIot.portal/internal/repository"
	"CapIot.portal/internal/routes"
	"CapIot.portal/internal/service"
	"CapIot.portal/internal/storage"
	"github.com/charmbracelet/log"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Error loading configuration", "err", err)
	}
	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)
	log.SetReportTimestamp(true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := newBackend(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Error initializing storage", "err", err)
	}
	defer backend.Close()

	mirror := newMirror(ctx, cfg.Influx)
	defer mirror.Close()

	// Initialize client, services and controllers
	api := client.NewFrontendAPI(cfg.APIURL, cfg.APITimeout)
	authService := service.NewAuthService(api)
	handler := routes.NewHandler(cfg, backend, routes.Controllers{
		Signup:     controller.NewSignupController(service.NewSignupService(api, cfg.SignupRedirectDelay)),
		Datapoints: controller.NewDatapointController(service.NewDatapointService(api, mirror), authService),
		Auth:       controller.NewAuthController(authService),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down server", "err", err)
		}
	}()

	log.Info("Listening", "addr", server.Addr, "api", cfg.APIURL)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Error starting server", "err", err)
	}
	log.Info("Server stopped")
}

func newBackend(ctx context.Context, cfg config.RedisConfig) (storage.Backend, error) {
	if !cfg.Enabled {
		log.Info("Redis disabled, keeping session storage in memory")
		return storage.NewMemoryBackend(), nil
	}
	return storage.NewRedisBackend(ctx, cfg)
}

func newMirror(ctx context.Context, cfg config.InfluxConfig) repository.Mirror {
	if !cfg.Enabled() {
		return repository.NoopMirror{}
	}
	repo := repository.NewInfluxDBRepository(cfg.URL, cfg.Token, cfg.Org, cfg.Bucket)
	if err := repo.EnsureBucket(ctx); err != nil {
		log.Warn("InfluxDB bucket check failed, mirroring may fail", "bucket", cfg.Bucket, "err", err)
	}
	log.Info("Mirroring datapoints to InfluxDB", "url", cfg.URL, "bucket", cfg.Bucket)
	return repo
}
