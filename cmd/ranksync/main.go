// Path: cmd/ranksync/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rank-sync/internal/config"
	"rank-sync/internal/delivery/rest"
	"rank-sync/internal/domain"
	"rank-sync/internal/events"
	"rank-sync/internal/logging"
	"rank-sync/internal/scraper"
	"rank-sync/internal/service"
	"rank-sync/internal/storage"
	"rank-sync/internal/supervisor"
)

const ledgerFile = "history.ndjson"

func main() {
	os.Exit(run())
}

func run() int {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// 2. Setup Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Components
	broker := events.NewBroker()
	defer broker.Close()
	go logEvents(broker.Subscribe(events.TopicTaskFailed))
	go logEvents(broker.Subscribe(events.TopicRunCompleted))

	opts := []service.Option{service.WithBroker(broker)}
	if cfg.Database.URI != "" {
		client, err := connectMongo(ctx, cfg.Database.URI)
		if err != nil {
			logging.Error().Err(err).Msg("Failed to connect to MongoDB")
			return 1
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			client.Disconnect(disconnectCtx)
		}()
		db := client.Database(cfg.Database.Name)
		opts = append(opts, service.WithMirror(
			storage.NewMongoDatasetStorage(db, cfg.Database.Collection),
			storage.NewMongoStatusStorage(db, cfg.Database.StatusCollection),
		))
	}

	client := scraper.NewClient(cfg.Scraper, scraper.PolicyFromConfig(cfg.Sync), cfg.Sync.FallbackFile)
	fetcher := scraper.NewDatasetFetcher(client, scraper.NewURLBuilder(cfg.Scraper, cfg.Sync.Limit))
	writer := storage.NewShardWriter(cfg.Output.DataDir)
	ledger := storage.NewLedger(filepath.Join(cfg.Output.DataDir, ledgerFile))
	svc := service.NewService(cfg.Sync, fetcher, writer, ledger, opts...)

	// 4. One-shot mode
	interval := time.Duration(cfg.Watcher.IntervalMinutes) * time.Minute
	if interval <= 0 {
		code := runOnce(ctx, svc)
		if code != 0 || cfg.Server.Port == "" {
			return code
		}
	}

	// 5. Supervised mode
	sup := supervisor.New("rank-sync")
	if interval > 0 {
		sup.Add(supervisor.NewWatchService(svc, interval))
	}
	if cfg.Server.Port != "" {
		sup.Add(rest.NewServer(cfg.Server.Port, writer, svc))
	}

	if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor stopped with error")
		return 1
	}
	logging.Info().Msg("Shut down successfully")
	return 0
}

func runOnce(ctx context.Context, svc *service.Service) int {
	summary, err := svc.RunOnce(ctx)
	if err != nil {
		var nds *service.NoDatasetsSucceededError
		if errors.As(err, &nds) {
			logging.Error().Err(err).Int("failed", len(nds.Failures)).Msg("Every task failed, nothing written")
		} else {
			logging.Error().Err(err).Msg("Sync run failed")
		}
		return 1
	}
	logging.Info().
		Str("run_id", summary.RunID).
		Int("datasets", summary.Succeeded).
		Int("skipped", summary.Failed).
		Msg("Synced")
	return 0
}

func connectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	logging.Info().Msg("Connecting to MongoDB...")
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

func logEvents(ch <-chan events.Event) {
	for ev := range ch {
		switch data := ev.Data.(type) {
		case domain.Warning:
			logging.Debug().
				Str("region", data.Region).
				Str("category", data.Category).
				Str("feed", data.FeedType).
				Msg("Task failure event")
		case service.RunSummary:
			logging.Info().
				Str("run_id", data.RunID).
				Str("status", string(data.Status)).
				Dur("duration", data.FinishedAt.Sub(data.StartedAt)).
				Msg("Run completed event")
		}
	}
}
