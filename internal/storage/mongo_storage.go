// Path: internal/storage/mongo_storage.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rank-sync/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// datasetDocument is the mirrored form of a dataset. The structural key is
// the document _id, so re-running a day replaces rather than duplicates.
type datasetDocument struct {
	ID             domain.DatasetKey `bson:"_id"`
	domain.Dataset `bson:",inline"`
	SyncedAt       time.Time         `bson:"syncedAt"`
}

// MongoDatasetStorage mirrors run datasets into a MongoDB collection.
type MongoDatasetStorage struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoDatasetStorage creates a new storage adapter for datasets.
func NewMongoDatasetStorage(db *mongo.Database, collectionName string) *MongoDatasetStorage {
	return &MongoDatasetStorage{
		collection: db.Collection(collectionName),
		now:        time.Now,
	}
}

// BulkUpsert inserts or replaces every dataset in a single unordered bulk write.
func (s *MongoDatasetStorage) BulkUpsert(ctx context.Context, datasets []domain.Dataset) error {
	if len(datasets) == 0 {
		return nil
	}

	syncedAt := s.now().UTC()
	writeModels := make([]mongo.WriteModel, len(datasets))
	for i, d := range datasets {
		doc := datasetDocument{ID: d.Key(), Dataset: d, SyncedAt: syncedAt}
		writeModels[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetReplacement(doc).
			SetUpsert(true)
	}

	opts := options.BulkWrite().SetOrdered(false)
	if _, err := s.collection.BulkWrite(ctx, writeModels, opts); err != nil {
		return fmt.Errorf("bulk upsert %d datasets: %w", len(datasets), err)
	}
	return nil
}

// FindByKey retrieves one mirrored dataset. A missing document yields ErrNotFound.
func (s *MongoDatasetStorage) FindByKey(ctx context.Context, key domain.DatasetKey) (*domain.Dataset, error) {
	var doc datasetDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find dataset: %w", err)
	}
	return &doc.Dataset, nil
}
