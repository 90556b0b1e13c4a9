package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dinaypatil-web/ReadFlow/internal/api"
	"github.com/dinaypatil-web/ReadFlow/internal/audio"
	"github.com/dinaypatil-web/ReadFlow/internal/config"
	"github.com/dinaypatil-web/ReadFlow/internal/health"
	"github.com/dinaypatil-web/ReadFlow/internal/ingest"
	"github.com/dinaypatil-web/ReadFlow/internal/library"
	"github.com/dinaypatil-web/ReadFlow/internal/playback"
	"github.com/dinaypatil-web/ReadFlow/internal/provider"
	"github.com/dinaypatil-web/ReadFlow/internal/state"
	"github.com/dinaypatil-web/ReadFlow/internal/storage"
)

func main() {
	configPath := flag.String("config", "config/readflow.yaml", "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("[Server] Fatal: %v", err)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adapter, err := storage.NewAdapter(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer adapter.Close()

	providers, err := provider.Initialize(cfg.Providers)
	if err != nil {
		return fmt.Errorf("failed to initialize providers: %w", err)
	}
	defer providers.Close()

	lib, err := library.NewStore(ctx, adapter)
	if err != nil {
		return fmt.Errorf("failed to initialize library: %w", err)
	}

	device, err := audio.NewDevice(cfg.Audio)
	if err != nil {
		return fmt.Errorf("failed to initialize audio: %w", err)
	}
	if err := device.Start(); err != nil {
		return fmt.Errorf("failed to start audio device: %w", err)
	}
	defer device.Close()

	st := state.NewStore()
	engine := playback.NewEngine(lib, st, providers.Synthesizer, device, cfg.Playback)
	defer engine.Shutdown()

	controller := ingest.NewController(lib, providers.Extractor, providers.Chapters, cfg.Ingest)
	controller.Start(ctx)
	defer controller.Stop()

	apiServer := api.NewServer(lib, controller, engine, st)
	mux := apiServer.Routes()
	mux.Handle("GET /healthz", health.NewHandler(adapter, providers))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigCh:
		log.Printf("[Server] Received %v, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	log.Printf("[Server] Stopped")
	return nil
}
