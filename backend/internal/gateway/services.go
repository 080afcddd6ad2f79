package gateway

import (
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/mongo"

	"schoolstats/backend/internal/shared"
	"schoolstats/backend/internal/stats"
	"schoolstats/backend/internal/store"
)

// Services holds the backends the gateway serves reports from.
// It is created once in main.go and closed on shutdown.
type Services struct {
	Reports *stats.Aggregator

	client *mongo.Client
}

// ReportConfig converts the service configuration into aggregator settings.
func ReportConfig(cfg shared.ReportConfig) stats.Config {
	return stats.Config{
		Concurrency:          cfg.Concurrency,
		FetchTimeout:         cfg.FetchTimeout,
		DiscrepancyTolerance: cfg.DiscrepancyTolerance,
	}
}

// NewServices connects to MongoDB and builds the report aggregator over it.
func NewServices(cfg *shared.ServiceConfig) (*Services, error) {
	reportCfg := ReportConfig(cfg.Report)
	if err := reportCfg.Validate(); err != nil {
		return nil, err
	}

	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("report store: %w", err)
	}

	log.Printf("INFO: Report aggregator ready (concurrency %d, fetch timeout %v)",
		reportCfg.Concurrency, reportCfg.FetchTimeout)

	return &Services{
		Reports: stats.NewAggregator(store.NewStore(db), reportCfg, log.Default()),
		client:  client,
	}, nil
}

// Close releases the MongoDB connection.
// Should be called via defer in main().
func (s *Services) Close() {
	if err := shared.DisconnectMongoDB(s.client); err != nil {
		log.Printf("WARN: Error closing MongoDB connection: %v", err)
	}
}
