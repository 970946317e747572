package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aruiz/crossedpaths/backend/internal/config"
	"github.com/aruiz/crossedpaths/backend/internal/domain"
	"github.com/aruiz/crossedpaths/backend/internal/generator"
	"github.com/aruiz/crossedpaths/backend/internal/graph"
	"github.com/aruiz/crossedpaths/backend/internal/logging"
	"github.com/aruiz/crossedpaths/backend/internal/notify"
	"github.com/aruiz/crossedpaths/backend/internal/profile"
	"github.com/aruiz/crossedpaths/backend/internal/repository"
	"github.com/aruiz/crossedpaths/backend/internal/service"
)

func main() {
	var (
		datasetDir = flag.String("dataset-dir", "./seed-data", "Directory containing members.json and visits.json")
		workers    = flag.Int("workers", 0, "Number of concurrent workers for seeding and detection (default ENGINE_DETECTION_WORKERS)")
		skipDetect = flag.Bool("skip-detect", false, "Seed members and visits without running crossing detection")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "ingest")

	if *workers <= 0 {
		*workers = cfg.Engine.DetectionWorkers
	}

	dataset, err := generator.ReadDataset(*datasetDir)
	if err != nil {
		logger.Error("failed to load dataset", "error", err, "dir", *datasetDir)
		os.Exit(1)
	}
	if len(dataset.Members) == 0 || len(dataset.Visits) == 0 {
		logger.Error("dataset empty", "dir", *datasetDir,
			"members", len(dataset.Members), "visits", len(dataset.Visits))
		os.Exit(1)
	}

	visits := make([]domain.Visit, 0, len(dataset.Visits))
	for _, record := range dataset.Visits {
		visit, err := record.ToVisit()
		if err != nil {
			logger.Error("invalid visit record", "error", err)
			os.Exit(1)
		}
		visits = append(visits, visit)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	graphClient, err := buildGraphClient(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := graphClient.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	repo := repository.New(graphClient)
	directory := profile.NewGraphDirectory(graphClient)
	crossingService := service.NewCrossingService(
		repo,
		directory,
		notify.NopNotifier{},
		service.Settings{
			Lookback:          time.Duration(cfg.Engine.LookbackDays) * 24 * time.Hour,
			ProximityRadiusKm: cfg.Engine.ProximityRadiusKm,
			NearbyRadiusKm:    cfg.Engine.NearbyRadiusKm,
			SuggestionLimit:   cfg.Engine.DefaultSuggestionMax,
		},
		logger,
	)
	detector := service.NewBulkDetector(crossingService, *workers)

	start := time.Now()
	logger.Info("upserting members", "count", len(dataset.Members))
	now := time.Now().UTC()
	for _, member := range dataset.Members {
		if err := directory.UpsertMember(ctx, member.ToProfile(), now); err != nil {
			logger.Error("member upsert failed", "error", err, "userId", member.UserID)
			os.Exit(1)
		}
	}

	logger.Info("seeding visits", "count", len(visits), "workers", *workers)
	if err := detector.SeedVisits(ctx, visits); err != nil {
		logger.Error("visit seeding failed", "error", err)
		os.Exit(1)
	}

	if !*skipDetect {
		logger.Info("running crossing detection", "visits", len(visits))
		changed, err := detector.DetectAll(ctx, visits)
		if err != nil {
			logger.Error("crossing detection failed", "error", err)
			os.Exit(1)
		}
		logger.Info("crossing detection complete", "recordsChanged", changed)
	}

	logger.Info("ingestion complete",
		"duration", time.Since(start).String(),
		"members", len(dataset.Members),
		"visits", len(visits),
	)
}

func buildGraphClient(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, fmt.Errorf("GRAPH_URI is required for ingestion")
	}
	opts := graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	}
	client, err := graph.NewNeo4jClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	return client, nil
}
