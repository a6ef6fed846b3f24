package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/essay-feedback/constants"
	"github.com/joseph-ayodele/essay-feedback/internal/common"
)

type memoryStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Upload
	now   func() time.Time
}

// NewMemoryStore returns a process-local UploadStore.
func NewMemoryStore() UploadStore {
	return &memoryStore{items: make(map[uuid.UUID]Upload), now: time.Now}
}

func (s *memoryStore) Put(_ context.Context, u Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[u.ID]; exists {
		return common.NewAppError("ALREADY_EXISTS", fmt.Sprintf("upload %s already registered", u.ID), common.ErrInvalidInput)
	}
	now := s.now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	s.items[u.ID] = clone(u)
	return nil
}

func (s *memoryStore) Get(_ context.Context, id uuid.UUID) (Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.items[id]
	if !ok {
		return Upload{}, notFound(id)
	}
	return clone(u), nil
}

func (s *memoryStore) List(_ context.Context, limit int) ([]Upload, error) {
	s.mu.RLock()
	out := make([]Upload, 0, len(s.items))
	for _, u := range s.items {
		out = append(out, clone(u))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) IncrementFeedback(_ context.Context, id uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.items[id]
	if !ok {
		return 0, notFound(id)
	}
	u.FeedbackCount++
	u.UpdatedAt = s.now().UTC()
	s.items[id] = u
	return u.FeedbackCount, nil
}

func (s *memoryStore) SetStatus(_ context.Context, id uuid.UUID, status constants.UploadStatus, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.items[id]
	if !ok {
		return notFound(id)
	}
	u.Status = status
	u.LastError = lastError
	u.UpdatedAt = s.now().UTC()
	s.items[id] = u
	return nil
}

func (s *memoryStore) SetLatest(_ context.Context, id uuid.UUID, feedback []byte, minCount int) (Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.items[id]
	if !ok {
		return Upload{}, notFound(id)
	}
	u.LatestFeedback = append([]byte(nil), feedback...)
	u.Status = constants.UploadStatusEvaluated
	u.LastError = ""
	if u.FeedbackCount < minCount {
		u.FeedbackCount = minCount
	}
	u.UpdatedAt = s.now().UTC()
	s.items[id] = u
	return clone(u), nil
}

func clone(u Upload) Upload {
	if u.LatestFeedback != nil {
		u.LatestFeedback = append([]byte(nil), u.LatestFeedback...)
	}
	return u
}

func notFound(id uuid.UUID) error {
	return fmt.Errorf("upload %s: %w", id, common.ErrNotFound)
}
