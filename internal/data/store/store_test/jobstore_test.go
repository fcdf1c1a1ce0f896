package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/data/redisStore"
	"github.com/akolanti/DocQA/internal/data/store"
	"github.com/akolanti/DocQA/internal/domain/docModel"
	"github.com/akolanti/DocQA/internal/domain/jobModel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisJobStore_Lifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	jobStore := store.TestJobStore(redisStore.NewTestStore(client))

	ctx := context.Background()
	job := jobModel.Job{
		Id:          "job-1",
		DocumentId:  "doc-1",
		JobType:     jobModel.JobTypeProcess,
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.ProcessInit,
		CreatedTime: time.Now(),
	}

	if err := jobStore.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	t.Run("Roundtrip", func(t *testing.T) {
		got, found := jobStore.GetJob(ctx, "job-1")
		if !found {
			t.Fatal("Job was saved but not found")
		}
		if got.Status != jobModel.JobStatusQueued || got.DocumentId != "doc-1" {
			t.Errorf("Job record mismatch: %+v", got)
		}
	})

	t.Run("Records Expire", func(t *testing.T) {
		ttl := mr.TTL("job:job-1")
		if ttl <= 0 || ttl > config.JobRecordTTL {
			t.Errorf("Expected a TTL up to %v, got %v", config.JobRecordTTL, ttl)
		}
		mr.FastForward(config.JobRecordTTL + time.Second)
		if _, found := jobStore.GetJob(ctx, "job-1"); found {
			t.Error("Job record survived its TTL")
		}
	})

	t.Run("Delete Missing Job Is Quiet", func(t *testing.T) {
		jobStore.DeleteJob(ctx, "ghost")
	})
}

func TestRedisDocumentStore_ListDocuments(t *testing.T) {
	docStore, _ := newTestDocumentStore(t)
	ctx := context.Background()

	for _, doc := range []docModel.Document{
		{Id: "a", Title: "first", ProcessingStatus: docModel.StatusCompleted},
		{Id: "b", Title: "second", ProcessingStatus: docModel.StatusFailed},
	} {
		if err := docStore.SaveDocument(ctx, doc); err != nil {
			t.Fatalf("SaveDocument failed: %v", err)
		}
	}
	// chunk keys must not leak into the listing
	if err := docStore.SaveChunks(ctx, "a", []docModel.Chunk{{Id: "c1", DocumentId: "a"}}); err != nil {
		t.Fatalf("SaveChunks failed: %v", err)
	}

	docs, err := docStore.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d: %+v", len(docs), docs)
	}
	seen := map[string]docModel.ProcessingStatus{}
	for _, doc := range docs {
		seen[doc.Id] = doc.ProcessingStatus
	}
	if seen["a"] != docModel.StatusCompleted || seen["b"] != docModel.StatusFailed {
		t.Errorf("Listing lost statuses: %+v", seen)
	}
}
