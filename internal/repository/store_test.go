package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/essay-feedback/constants"
	"github.com/joseph-ayodele/essay-feedback/internal/common"
)

func newSQLiteStore(t *testing.T) UploadStore {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	drv, pool, err := Open(ctx, Config{DSN: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { Close(drv, pool, logger) })
	if err := Migrate(ctx, drv, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// migrations are idempotent
	if err := Migrate(ctx, drv, logger); err != nil {
		t.Fatalf("migrate twice: %v", err)
	}
	if err := HealthCheck(ctx, drv, time.Second, logger); err != nil {
		t.Fatalf("health: %v", err)
	}
	return NewSQLStore(drv, logger)
}

func stores(t *testing.T) map[string]UploadStore {
	return map[string]UploadStore{
		"memory": NewMemoryStore(),
		"sqlite": newSQLiteStore(t),
	}
}

func newUpload(name string) Upload {
	return Upload{
		ID:          uuid.New(),
		Filename:    name,
		SavedPath:   "/tmp/" + name,
		Format:      constants.TXT,
		ContentHash: "abc123",
		SizeBytes:   42,
		Status:      constants.UploadStatusReceived,
	}
}

func TestUploadStoreLifecycle(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := newUpload("essay.txt")
			if err := store.Put(ctx, u); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := store.Put(ctx, u); err == nil {
				t.Error("duplicate Put should fail")
			}

			got, err := store.Get(ctx, u.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.Filename != u.Filename || got.SizeBytes != 42 || got.Status != constants.UploadStatusReceived ||
				got.FeedbackCount != 0 || got.HasLatestFeedback() || got.CreatedAt.IsZero() {
				t.Errorf("unexpected upload %+v", got)
			}

			for want := 1; want <= 2; want++ {
				n, err := store.IncrementFeedback(ctx, u.ID)
				if err != nil || n != want {
					t.Fatalf("IncrementFeedback = %d, %v; want %d", n, err, want)
				}
			}

			if err := store.SetStatus(ctx, u.ID, constants.UploadStatusFailed, "boom"); err != nil {
				t.Fatalf("SetStatus: %v", err)
			}
			got, _ = store.Get(ctx, u.ID)
			if got.Status != constants.UploadStatusFailed || got.LastError != "boom" {
				t.Errorf("status not stored: %+v", got)
			}

			latest, err := store.SetLatest(ctx, u.ID, []byte(`{"summary":"s"}`), 1)
			if err != nil {
				t.Fatalf("SetLatest: %v", err)
			}
			if latest.FeedbackCount != 2 {
				t.Errorf("minCount must not lower the counter, got %d", latest.FeedbackCount)
			}
			if string(latest.LatestFeedback) != `{"summary":"s"}` || latest.Status != constants.UploadStatusEvaluated || latest.LastError != "" {
				t.Errorf("latest not stored: %+v", latest)
			}
		})
	}
}

func TestUploadStoreSetLatestRaisesCounter(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := newUpload("a.pdf")
			if err := store.Put(ctx, u); err != nil {
				t.Fatal(err)
			}
			got, err := store.SetLatest(ctx, u.ID, []byte(`{}`), 1)
			if err != nil {
				t.Fatal(err)
			}
			if got.FeedbackCount != 1 {
				t.Errorf("count = %d, want 1", got.FeedbackCount)
			}
		})
	}
}

func TestUploadStoreNotFound(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id := uuid.New()
			if _, err := store.Get(ctx, id); !errors.Is(err, common.ErrNotFound) {
				t.Errorf("Get: %v", err)
			}
			if _, err := store.IncrementFeedback(ctx, id); !errors.Is(err, common.ErrNotFound) {
				t.Errorf("IncrementFeedback: %v", err)
			}
			if err := store.SetStatus(ctx, id, constants.UploadStatusRunning, ""); !errors.Is(err, common.ErrNotFound) {
				t.Errorf("SetStatus: %v", err)
			}
			if _, err := store.SetLatest(ctx, id, []byte(`{}`), 1); !errors.Is(err, common.ErrNotFound) {
				t.Errorf("SetLatest: %v", err)
			}
		})
	}
}

func TestUploadStoreList(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
			for i := 0; i < 3; i++ {
				u := newUpload(fmt.Sprintf("e%d.txt", i))
				u.CreatedAt = base.Add(time.Duration(i) * time.Hour)
				if err := store.Put(ctx, u); err != nil {
					t.Fatal(err)
				}
			}
			all, err := store.List(ctx, 0)
			if err != nil || len(all) != 3 {
				t.Fatalf("List = %d, %v", len(all), err)
			}
			if all[0].Filename != "e2.txt" || all[2].Filename != "e0.txt" {
				t.Errorf("expected newest first, got %s..%s", all[0].Filename, all[2].Filename)
			}
			two, _ := store.List(ctx, 2)
			if len(two) != 2 {
				t.Errorf("limit ignored: %d", len(two))
			}
		})
	}
}

func TestUploadStoreConcurrentIncrements(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := newUpload("c.docx")
			if err := store.Put(ctx, u); err != nil {
				t.Fatal(err)
			}
			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := store.IncrementFeedback(ctx, u.ID); err != nil {
						t.Errorf("increment: %v", err)
					}
				}()
			}
			wg.Wait()
			got, _ := store.Get(ctx, u.ID)
			if got.FeedbackCount != 10 {
				t.Errorf("count = %d, want 10", got.FeedbackCount)
			}
		})
	}
}
