// Path: internal/storage/status_storage.go
package storage

import (
	"context"
	"errors"
	"fmt"

	"rank-sync/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const lastRunDocumentID = "last_run"

// MongoStatusStorage keeps the outcome of the most recent run.
type MongoStatusStorage struct {
	collection *mongo.Collection
}

// NewMongoStatusStorage creates a new storage adapter for run status.
func NewMongoStatusStorage(db *mongo.Database, collectionName string) *MongoStatusStorage {
	return &MongoStatusStorage{
		collection: db.Collection(collectionName),
	}
}

// GetStatus returns the last recorded run, or nil if no run has been recorded.
func (s *MongoStatusStorage) GetStatus(ctx context.Context) (*domain.StatusDocument, error) {
	var doc domain.StatusDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": lastRunDocumentID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get status: %w", err)
	}
	return &doc, nil
}

// SetStatus replaces the last-run document.
func (s *MongoStatusStorage) SetStatus(ctx context.Context, doc domain.StatusDocument) error {
	doc.ID = lastRunDocumentID
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": lastRunDocumentID}, doc, opts); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}
