package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/essay-feedback/constants"
	"github.com/joseph-ayodele/essay-feedback/internal/common"
	"github.com/joseph-ayodele/essay-feedback/internal/ingest"
	"github.com/joseph-ayodele/essay-feedback/internal/llm"
	"github.com/joseph-ayodele/essay-feedback/internal/repository"
)

// Status is the public view of an upload.
type Status struct {
	UploadID          uuid.UUID
	Filename          string
	SavedPath         string
	Format            string
	FeedbackCount     int
	State             constants.UploadStatus
	LastError         string
	HasLatestFeedback bool
	Latest            *llm.Feedback
	Dimensions        []string
}

// Registry tracks uploaded essays and their feedback rounds.
type Registry struct {
	store    repository.UploadStore
	ingestor ingest.Ingestor
	proc     *Processor
	logger   *slog.Logger
}

func NewRegistry(store repository.UploadStore, ingestor ingest.Ingestor, proc *Processor, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, ingestor: ingestor, proc: proc, logger: logger}
}

// Register copies the document at path into the upload area and records it.
func (r *Registry) Register(ctx context.Context, path string) (repository.Upload, error) {
	saved, err := r.ingestor.SaveFile(ctx, path)
	if err != nil {
		return repository.Upload{}, err
	}
	return r.record(ctx, saved)
}

// RegisterContent is Register for content that arrives as a stream.
func (r *Registry) RegisterContent(ctx context.Context, name string, content io.Reader) (repository.Upload, error) {
	saved, err := r.ingestor.SaveUpload(ctx, name, content)
	if err != nil {
		return repository.Upload{}, err
	}
	return r.record(ctx, saved)
}

func (r *Registry) record(ctx context.Context, saved ingest.SavedFile) (repository.Upload, error) {
	u := repository.Upload{
		ID:          saved.ID,
		Filename:    saved.Filename,
		SavedPath:   saved.SavedPath,
		Format:      saved.Format,
		ContentHash: saved.HashHex,
		SizeBytes:   saved.SizeBytes,
		Status:      constants.UploadStatusReceived,
		CreatedAt:   saved.SavedAt,
	}
	if err := r.store.Put(ctx, u); err != nil {
		return repository.Upload{}, err
	}
	r.logger.Info("registry.registered", "upload_id", u.ID, "filename", u.Filename, "format", u.Format)
	return r.store.Get(ctx, u.ID)
}

// Evaluate runs a feedback round on the stored document. A successful round
// bumps the counter and replaces the latest feedback.
func (r *Registry) Evaluate(ctx context.Context, id uuid.UUID) (repository.Upload, Result, error) {
	ctx = common.WithUploadID(ctx, id.String())
	u, err := r.store.Get(ctx, id)
	if err != nil {
		return repository.Upload{}, Result{}, err
	}
	if err := r.store.SetStatus(ctx, id, constants.UploadStatusRunning, ""); err != nil {
		return u, Result{}, err
	}

	res, err := r.proc.EvaluateFile(ctx, u.SavedPath)
	if err != nil {
		if serr := r.store.SetStatus(ctx, id, constants.UploadStatusFailed, err.Error()); serr != nil {
			r.logger.Error("registry.status_update_failed", "upload_id", id, "error", serr)
		}
		return u, res, err
	}

	b, err := MarshalFeedback(res.Feedback)
	if err != nil {
		return u, res, err
	}
	n, err := r.store.IncrementFeedback(ctx, id)
	if err != nil {
		return u, res, err
	}
	u, err = r.store.SetLatest(ctx, id, b, n)
	if err != nil {
		return u, res, err
	}
	r.logger.Info("registry.evaluated", "upload_id", id, "round", u.FeedbackCount)
	return u, res, nil
}

// NextRound advances the round counter without running an evaluation.
func (r *Registry) NextRound(ctx context.Context, id uuid.UUID) (int, error) {
	n, err := r.store.IncrementFeedback(ctx, id)
	if err != nil {
		return 0, err
	}
	r.logger.Info("registry.next_round", "upload_id", id, "round", n)
	return n, nil
}

// IngestFeedback attaches externally produced feedback text to an upload. The
// text must contain a JSON object; the round counter becomes at least 1.
func (r *Registry) IngestFeedback(ctx context.Context, id uuid.UUID, text io.Reader) (repository.Upload, llm.Feedback, error) {
	if _, err := r.store.Get(ctx, id); err != nil {
		return repository.Upload{}, llm.Feedback{}, err
	}
	fb, err := r.proc.ReingestReader(ctx, text)
	if err != nil {
		return repository.Upload{}, llm.Feedback{}, err
	}
	b, err := MarshalFeedback(fb)
	if err != nil {
		return repository.Upload{}, llm.Feedback{}, err
	}
	u, err := r.store.SetLatest(ctx, id, b, 1)
	if err != nil {
		return repository.Upload{}, llm.Feedback{}, err
	}
	r.logger.Info("registry.feedback_ingested", "upload_id", id, "round", u.FeedbackCount)
	return u, fb, nil
}

// Status reports the upload with its decoded latest feedback, if any.
func (r *Registry) Status(ctx context.Context, id uuid.UUID) (Status, error) {
	u, err := r.store.Get(ctx, id)
	if err != nil {
		return Status{}, err
	}
	st := Status{
		UploadID:          u.ID,
		Filename:          u.Filename,
		SavedPath:         u.SavedPath,
		Format:            u.Format,
		FeedbackCount:     u.FeedbackCount,
		State:             u.Status,
		LastError:         u.LastError,
		HasLatestFeedback: u.HasLatestFeedback(),
		Dimensions:        constants.AsStringSlice(),
	}
	if u.HasLatestFeedback() {
		var fb llm.Feedback
		if err := decodeStored(u.LatestFeedback, &fb); err != nil {
			return st, fmt.Errorf("decode stored feedback for %s: %w", id, err)
		}
		st.Latest = &fb
	}
	return st, nil
}

// List returns the most recent uploads.
func (r *Registry) List(ctx context.Context, limit int) ([]repository.Upload, error) {
	return r.store.List(ctx, limit)
}

func decodeStored(b []byte, fb *llm.Feedback) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*fb = llm.Normalize(m)
	return nil
}
