package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/essay-feedback/constants"
)

// Upload is one registered essay and its feedback rounds.
type Upload struct {
	ID             uuid.UUID
	Filename       string
	SavedPath      string
	Format         string
	ContentHash    string // hex sha-256
	SizeBytes      int64
	FeedbackCount  int
	Status         constants.UploadStatus
	LastError      string
	LatestFeedback []byte // normalized feedback JSON, nil until the first round lands
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u Upload) HasLatestFeedback() bool {
	return len(u.LatestFeedback) > 0
}

// UploadStore is the registry backing upload rounds. Implementations must be
// safe for concurrent use.
type UploadStore interface {
	Put(ctx context.Context, u Upload) error
	Get(ctx context.Context, id uuid.UUID) (Upload, error)
	List(ctx context.Context, limit int) ([]Upload, error)
	// IncrementFeedback bumps the round counter and returns the new value.
	IncrementFeedback(ctx context.Context, id uuid.UUID) (int, error)
	SetStatus(ctx context.Context, id uuid.UUID, status constants.UploadStatus, lastError string) error
	// SetLatest stores the latest feedback JSON, marks the upload EVALUATED and
	// raises the round counter to at least minCount.
	SetLatest(ctx context.Context, id uuid.UUID, feedback []byte, minCount int) (Upload, error)
}
