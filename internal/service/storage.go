// Path: internal/service/storage.go
package service

import (
	"context"

	"rank-sync/internal/domain"
	"rank-sync/internal/storage"
)

// DatasetFetcher produces the dataset of one task.
type DatasetFetcher interface {
	FetchDataset(ctx context.Context, date, region, category, feed string) (domain.Dataset, error)
}

// ShardWriter persists the JSON shards of a run.
type ShardWriter interface {
	// WriteAll writes every shard and returns how many files were written.
	WriteAll(shards []storage.Shard) (int, error)
}

// HistoryLedger is the append-only journal of synced datasets.
type HistoryLedger interface {
	// Append adds datasets not yet recorded and returns how many were added.
	Append(datasets []domain.Dataset) (int, error)
}

// DatasetMirror receives a copy of every run's datasets.
type DatasetMirror interface {
	BulkUpsert(ctx context.Context, datasets []domain.Dataset) error
}

// StatusStorage defines the interface for persisting the outcome of the last run.
type StatusStorage interface {
	GetStatus(ctx context.Context) (*domain.StatusDocument, error)
	SetStatus(ctx context.Context, doc domain.StatusDocument) error
}
