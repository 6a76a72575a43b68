package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wonderfulgo/internal/config"
	"wonderfulgo/internal/gemini"
	"wonderfulgo/internal/logger"
	"wonderfulgo/internal/server"
	"wonderfulgo/internal/tracer"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	shutdownTracer, err := tracer.Init(ctx, tracer.ConfigFrom(cfg))
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}
	if cfg.GoogleAPIKey == "" {
		logger.Warn(ctx, "GOOGLE_API_KEY is not set; /chat will answer 500 until it is configured")
	}

	app := server.New(cfg, gemini.NewClient(cfg))
	// No WriteTimeout: a request may walk the whole model chain.
	httpServer := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(ctx, "wonderfulgo api listening", "addr", "http://localhost:"+cfg.AppPort, "models", cfg.GeminiModels)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "graceful shutdown failed", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error(ctx, "tracer shutdown failed", err)
	}
}
