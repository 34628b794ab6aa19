// Command main is the entry point for the kolboard API server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kolboard/internal/config"
	"kolboard/internal/observability"
	"kolboard/internal/scheduler"
	"kolboard/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	// A local .env is optional; real deployments inject the environment.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "kolboard-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	jobs := scheduler.New()
	if !cfg.PriceRefreshDisabled {
		warmer := scheduler.NewQuoteWarmer(srv.Stocks(), cfg.UpstreamFanoutLimit)
		if err := jobs.AddQuoteWarmer(cfg.PriceRefreshCron, warmer); err != nil {
			log.Fatalf("Invalid PRICE_REFRESH_CRON %q: %v", cfg.PriceRefreshCron, err)
		}
		jobs.Start()
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		jobs.Stop(ctx)
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatal(err)
	}
}
