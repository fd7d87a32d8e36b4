package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"rank-sync/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoDatasetStorage(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("bulk upsert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}, bson.E{Key: "nModified", Value: 0}))

		s := NewMongoDatasetStorage(mt.DB, mt.Coll.Name())
		err := s.BulkUpsert(context.Background(), []domain.Dataset{
			dataset("d", "us", "apps", "top-free", 1),
			dataset("d", "us", "apps", "top-paid", 1),
		})
		if err != nil {
			mt.Errorf("bulk upsert: %v", err)
		}
	})

	mt.Run("bulk upsert empty is a no-op", func(mt *mtest.T) {
		s := NewMongoDatasetStorage(mt.DB, mt.Coll.Name())
		if err := s.BulkUpsert(context.Background(), nil); err != nil {
			mt.Errorf("bulk upsert: %v", err)
		}
	})

	mt.Run("bulk upsert surfaces server errors", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 0}, {Key: "errmsg", Value: "boom"}, {Key: "code", Value: 8}})

		s := NewMongoDatasetStorage(mt.DB, mt.Coll.Name())
		if err := s.BulkUpsert(context.Background(), []domain.Dataset{dataset("d", "us", "apps", "top-free", 1)}); err == nil {
			mt.Error("expected error")
		}
	})

	mt.Run("find by key", func(mt *mtest.T) {
		key := domain.DatasetKey{Date: "d", Region: "us", Category: "apps", FeedType: "top-free"}
		doc := bson.D{
			{Key: "_id", Value: bson.D{{Key: "date", Value: "d"}, {Key: "region", Value: "us"}, {Key: "category", Value: "apps"}, {Key: "feedType", Value: "top-free"}}},
			{Key: "date", Value: "d"},
			{Key: "region", Value: "us"},
			{Key: "category", Value: "apps"},
			{Key: "feedType", Value: "top-free"},
			{Key: "total", Value: 1},
			{Key: "items", Value: bson.A{bson.D{{Key: "rank", Value: 1}, {Key: "id", Value: "42"}}}},
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+mt.Coll.Name(), mtest.FirstBatch, doc))

		s := NewMongoDatasetStorage(mt.DB, mt.Coll.Name())
		got, err := s.FindByKey(context.Background(), key)
		if err != nil {
			mt.Fatalf("find: %v", err)
		}
		if got.Key() != key || got.Total != 1 || got.Items[0].ID != "42" {
			mt.Errorf("dataset = %+v", got)
		}
	})

	mt.Run("find by key missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+mt.Coll.Name(), mtest.FirstBatch))

		s := NewMongoDatasetStorage(mt.DB, mt.Coll.Name())
		if _, err := s.FindByKey(context.Background(), domain.DatasetKey{}); !errors.Is(err, ErrNotFound) {
			mt.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestMongoStatusStorage(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get status before any run", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+mt.Coll.Name(), mtest.FirstBatch))

		s := NewMongoStatusStorage(mt.DB, mt.Coll.Name())
		doc, err := s.GetStatus(context.Background())
		if err != nil || doc != nil {
			mt.Errorf("doc = %+v err = %v, want nil nil", doc, err)
		}
	})

	mt.Run("get status", func(mt *mtest.T) {
		finished := time.Date(2026, 10, 18, 6, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+mt.Coll.Name(), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: lastRunDocumentID},
			{Key: "runId", Value: "abc"},
			{Key: "status", Value: string(domain.RunStatusPartial)},
			{Key: "succeeded", Value: 3},
			{Key: "failed", Value: 1},
			{Key: "finishedAt", Value: finished},
		}))

		s := NewMongoStatusStorage(mt.DB, mt.Coll.Name())
		doc, err := s.GetStatus(context.Background())
		if err != nil {
			mt.Fatalf("get status: %v", err)
		}
		if doc.RunID != "abc" || doc.Status != domain.RunStatusPartial || doc.Failed != 1 || !doc.FinishedAt.Equal(finished) {
			mt.Errorf("doc = %+v", doc)
		}
	})

	mt.Run("set status", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		s := NewMongoStatusStorage(mt.DB, mt.Coll.Name())
		if err := s.SetStatus(context.Background(), domain.StatusDocument{RunID: "abc", Status: domain.RunStatusOK}); err != nil {
			mt.Errorf("set status: %v", err)
		}
	})
}
