// ============================================================================
// backend/cmd/reportd/main.go
// Entry point for the report service
// ============================================================================

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schoolstats/backend/internal/gateway"
	"schoolstats/backend/internal/shared"
)

func main() {
	log.Println("INFO: Starting Report Service...")

	// Load environment variables
	if err := shared.LoadEnv(".env"); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	config, err := shared.LoadServiceConfig("report-service")
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	if shared.IsDevelopment(config) {
		shared.PrintConfig(config)
	}

	// 1. Connect the record store and build the aggregator
	services, err := gateway.NewServices(config)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer services.Close()

	// 2. Setup Routes and Middleware
	router := gateway.SetupRoutes(services.Reports, config.CORS)

	// 3. Configure Server
	server := &http.Server{
		Addr:         ":" + config.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 4. Start Server in a Goroutine
	go func() {
		log.Printf("INFO: Report service listening on port %s", config.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("FATAL: HTTP server error: %v", err)
		}
	}()

	// 5. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("INFO: Shutting down Report Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("WARN: Graceful shutdown failed: %v", err)
	}

	log.Println("INFO: Report Service stopped.")
}
