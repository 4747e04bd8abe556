package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	// Register cloud storage schemes for artifact URLs (s3://, gs://).
	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"

	"github.com/zaidmukaddam/miniperplx-sub000/agent"
	"github.com/zaidmukaddam/miniperplx-sub000/observability"
	"github.com/zaidmukaddam/miniperplx-sub000/sandbox"
	"github.com/zaidmukaddam/miniperplx-sub000/server"
	"github.com/zaidmukaddam/miniperplx-sub000/toolset"
	"github.com/zaidmukaddam/miniperplx-sub000/tools"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to server config JSON file (required)")
		addr       = flag.String("addr", "", "Listen address (overrides config)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: searchd -config <file>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := server.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	observer := observability.NewSlogObserver(logger)

	agents := agent.NewRegistry()
	for name, modelCfg := range cfg.Models {
		if err := agents.Register(name, modelCfg); err != nil {
			log.Fatalf("Failed to register model %q: %v", name, err)
		}
	}
	if cfg.DefaultModel == "" {
		log.Fatal("Config must name a default_model")
	}

	runtime := sandbox.NewHTTPRuntime(cfg.Sandbox.RuntimeURL, cfg.Sandbox.RuntimeAPIKey)
	store := sandbox.NewArtifactStore(cfg.Sandbox.StorageURL, cfg.Sandbox.PublicBaseURL)
	manager := sandbox.NewManager(runtime, store,
		sandbox.WithObserver(observer),
		sandbox.WithUploadTimeout(cfg.Sandbox.UploadTimeout()),
	)

	var regOpts []tools.Option
	if cfg.TurnDedup {
		regOpts = append(regOpts, tools.WithTurnDedup())
	}
	registry := tools.New(regOpts...)
	if err := toolset.RegisterAll(registry, cfg.Providers, manager); err != nil {
		log.Fatalf("Failed to register tools: %v", err)
	}

	mux := http.NewServeMux()
	srv := server.New(agents, registry, cfg, server.WithObserver(observer))
	srv.Register(mux)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", slog.String("addr", cfg.Addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
