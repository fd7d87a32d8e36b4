// Path: internal/service/service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rank-sync/internal/config"
	"rank-sync/internal/domain"
	"rank-sync/internal/events"
	"rank-sync/internal/feed"
	"rank-sync/internal/logging"
	"rank-sync/internal/metrics"
	"rank-sync/internal/scheduler"
)

// RunSummary describes the outcome of one sync run.
type RunSummary struct {
	RunID          string           `json:"runId"`
	Date           string           `json:"date"`
	Status         domain.RunStatus `json:"status"`
	Tasks          int              `json:"tasks"`
	Succeeded      int              `json:"succeeded"`
	Failed         int              `json:"failed"`
	FilesWritten   int              `json:"filesWritten"`
	LedgerAppended int              `json:"ledgerAppended"`
	Warnings       []domain.Warning `json:"warnings"`
	StartedAt      time.Time        `json:"startedAt"`
	FinishedAt     time.Time        `json:"finishedAt"`
}

// Service is the central orchestrator of a sync run.
type Service struct {
	cfg     config.SyncConfig
	fetcher DatasetFetcher
	writer  ShardWriter
	ledger  HistoryLedger
	mirror  DatasetMirror
	status  StatusStorage
	broker  *events.Broker
	now     func() time.Time

	mu      sync.RWMutex
	lastRun *RunSummary
}

// Option customizes a Service.
type Option func(*Service)

// WithMirror copies every run's datasets and status into a database.
// Either argument may be nil.
func WithMirror(mirror DatasetMirror, status StatusStorage) Option {
	return func(s *Service) {
		s.mirror = mirror
		s.status = status
	}
}

// WithBroker publishes task failures and run completions.
func WithBroker(b *events.Broker) Option {
	return func(s *Service) { s.broker = b }
}

// WithClock replaces time.Now. The run date is the clock's UTC day.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new sync service.
func NewService(cfg config.SyncConfig, fetcher DatasetFetcher, writer ShardWriter, ledger HistoryLedger, opts ...Option) *Service {
	s := &Service{
		cfg:     cfg,
		fetcher: fetcher,
		writer:  writer,
		ledger:  ledger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExpandTasks builds the region × category × feed task list. Dimension
// values are trimmed and lower-cased; values that are not valid path
// segments are skipped. Tasks that repeat after feed alias normalization
// are dropped, keeping the first.
func ExpandTasks(cfg config.SyncConfig) []domain.TaskKey {
	var tasks []domain.TaskKey
	seen := make(map[domain.TaskKey]struct{})
	for _, r := range cfg.Regions {
		region := strings.ToLower(strings.TrimSpace(r))
		if !validDimension("region", region) {
			continue
		}
		for _, c := range cfg.Categories {
			category := strings.ToLower(strings.TrimSpace(c))
			if !validDimension("category", category) {
				continue
			}
			for _, f := range cfg.Feeds {
				key := domain.TaskKey{Region: region, Category: category, Feed: feed.Normalize(f)}
				if !validDimension("feed", key.Feed) {
					continue
				}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				tasks = append(tasks, domain.TaskKey{Region: region, Category: category, Feed: strings.TrimSpace(f)})
			}
		}
	}
	return tasks
}

func validDimension(name, value string) bool {
	if value == "" {
		return false
	}
	if !domain.ValidSegment(value) {
		logging.Warn().Str(name, value).Msg("Skipping dimension value that is not a valid path segment")
		return false
	}
	return true
}

// RunOnce executes one full sync: fetch every task, then persist shards,
// the ledger and the optional mirror. It returns a *NoDatasetsSucceededError
// when every task failed, in which case nothing is written.
func (s *Service) RunOnce(ctx context.Context) (*RunSummary, error) {
	started := s.now()
	summary := &RunSummary{
		RunID:     uuid.NewString(),
		Date:      started.UTC().Format(domain.DateLayout),
		StartedAt: started,
	}
	log := logging.With().Str("run_id", summary.RunID).Str("date", summary.Date).Logger()

	tasks := ExpandTasks(s.cfg)
	summary.Tasks = len(tasks)
	log.Info().Int("tasks", len(tasks)).Int("concurrency", s.cfg.Concurrency).Msg("Sync run starting")

	results := scheduler.Run(ctx, tasks, s.cfg.Concurrency, s.fetchTask(summary.Date, log))
	datasets, warnings, errs := Partition(results)

	summary.Succeeded = len(datasets)
	summary.Failed = len(warnings)
	summary.Warnings = warnings
	for _, w := range warnings {
		s.publish(events.TopicTaskFailed, w)
	}

	if len(datasets) == 0 {
		summary.Status = domain.RunStatusFailed
		s.finish(ctx, log, summary)
		return summary, &NoDatasetsSucceededError{Failures: warnings, Errs: errs}
	}

	shards := BuildShards(summary.Date, s.cfg.Limit, datasets, warnings)
	written, err := s.writer.WriteAll(shards)
	summary.FilesWritten = written
	metrics.ShardsWritten.Add(float64(written))
	if err != nil {
		summary.Status = domain.RunStatusFailed
		s.finish(ctx, log, summary)
		return summary, fmt.Errorf("write shards: %w", err)
	}

	appended, err := s.ledger.Append(datasets)
	if err != nil {
		summary.Status = domain.RunStatusFailed
		s.finish(ctx, log, summary)
		return summary, fmt.Errorf("append history ledger: %w", err)
	}
	summary.LedgerAppended = appended
	metrics.LedgerAppended.Add(float64(appended))

	if s.mirror != nil {
		if err := s.mirror.BulkUpsert(ctx, datasets); err != nil {
			log.Error().Err(err).Int("datasets", len(datasets)).Msg("Mirror upsert failed")
		}
	}

	summary.Status = domain.RunStatusOK
	if len(warnings) > 0 {
		summary.Status = domain.RunStatusPartial
	}
	s.finish(ctx, log, summary)
	metrics.LastSuccess.Set(float64(summary.FinishedAt.Unix()))

	return summary, nil
}

func (s *Service) fetchTask(date string, log zerolog.Logger) scheduler.Func[domain.TaskKey, domain.Dataset] {
	return func(ctx context.Context, task domain.TaskKey) (domain.Dataset, error) {
		metrics.TasksInFlight.Inc()
		defer metrics.TasksInFlight.Dec()

		ds, err := s.fetcher.FetchDataset(ctx, date, task.Region, task.Category, task.Feed)
		if err != nil {
			metrics.Tasks.WithLabelValues("failed").Inc()
			log.Warn().Err(err).
				Str("region", task.Region).
				Str("category", task.Category).
				Str("feed", task.Feed).
				Msg("Task failed, skipping")
			return domain.Dataset{}, err
		}

		metrics.Tasks.WithLabelValues("succeeded").Inc()
		log.Debug().
			Str("region", ds.Region).
			Str("category", ds.Category).
			Str("feed", ds.FeedType).
			Int("items", ds.Total).
			Msg("Task succeeded")
		return ds, nil
	}
}

// finish stamps the summary, records it and announces it.
func (s *Service) finish(ctx context.Context, log zerolog.Logger, summary *RunSummary) {
	summary.FinishedAt = s.now()
	metrics.RunDuration.Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())

	if s.status != nil {
		doc := domain.StatusDocument{
			RunID:      summary.RunID,
			Date:       summary.Date,
			Status:     summary.Status,
			Succeeded:  summary.Succeeded,
			Failed:     summary.Failed,
			FinishedAt: summary.FinishedAt.UTC(),
		}
		if err := s.status.SetStatus(ctx, doc); err != nil {
			log.Error().Err(err).Msg("Failed to record run status")
		}
	}

	s.mu.Lock()
	s.lastRun = summary
	s.mu.Unlock()

	s.publish(events.TopicRunCompleted, *summary)

	log.Info().
		Str("status", string(summary.Status)).
		Int("succeeded", summary.Succeeded).
		Int("skipped", summary.Failed).
		Int("files", summary.FilesWritten).
		Int("ledger_appended", summary.LedgerAppended).
		Msg("Sync run finished")
}

func (s *Service) publish(topic string, data any) {
	if s.broker != nil {
		s.broker.Publish(topic, data)
	}
}

// LastRun returns the summary of the most recent run of this process, or
// nil before the first run.
func (s *Service) LastRun() *RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// Watch runs a sync immediately and then once per interval until ctx is
// done. Failed runs are logged and do not stop the loop.
func (s *Service) Watch(ctx context.Context, interval time.Duration) error {
	logging.Info().Dur("interval", interval).Msg("Starting watch mode")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runLogged(ctx)
	for {
		select {
		case <-ticker.C:
			s.runLogged(ctx)
		case <-ctx.Done():
			logging.Info().Msg("Watch mode stopped")
			return ctx.Err()
		}
	}
}

func (s *Service) runLogged(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		logging.Error().Err(err).Msg("Sync run failed")
	}
}
