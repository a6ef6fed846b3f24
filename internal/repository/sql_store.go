package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/essay-feedback/constants"
)

const uploadsTable = "uploads"

var uploadColumns = []string{
	"id", "filename", "saved_path", "format", "content_hash", "size_bytes",
	"feedback_count", "status", "last_error", "latest_feedback", "created_at", "updated_at",
}

type sqlStore struct {
	drv    *entsql.Driver
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLStore returns an UploadStore over an Ent SQL driver (sqlite or postgres).
// Timestamps are stored as unix milliseconds so both dialects share one schema.
func NewSQLStore(drv *entsql.Driver, logger *slog.Logger) UploadStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &sqlStore{drv: drv, logger: logger, now: time.Now}
}

func (s *sqlStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.drv.Dialect())
}

func (s *sqlStore) Put(ctx context.Context, u Upload) error {
	now := s.now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	query, args := s.builder().Insert(uploadsTable).
		Columns(uploadColumns...).
		Values(
			u.ID.String(), u.Filename, u.SavedPath, u.Format, u.ContentHash, u.SizeBytes,
			u.FeedbackCount, string(u.Status), u.LastError, nullableJSON(u.LatestFeedback),
			u.CreatedAt.UnixMilli(), u.UpdatedAt.UnixMilli(),
		).
		Query()
	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		s.logger.Error("failed to insert upload", "upload_id", u.ID, "filename", u.Filename, "error", err)
		return fmt.Errorf("insert upload %s: %w", u.ID, err)
	}
	return nil
}

func (s *sqlStore) Get(ctx context.Context, id uuid.UUID) (Upload, error) {
	return s.get(ctx, s.drv, id)
}

func (s *sqlStore) get(ctx context.Context, q dialect.ExecQuerier, id uuid.UUID) (Upload, error) {
	t := s.builder().Table(uploadsTable)
	query, args := s.builder().Select(uploadColumns...).
		From(t).
		Where(entsql.EQ(t.C("id"), id.String())).
		Query()

	var rows entsql.Rows
	if err := q.Query(ctx, query, args, &rows); err != nil {
		return Upload{}, fmt.Errorf("get upload %s: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Upload{}, fmt.Errorf("get upload %s: %w", id, err)
		}
		return Upload{}, notFound(id)
	}
	u, err := scanUpload(rows)
	if err != nil {
		return Upload{}, fmt.Errorf("get upload %s: %w", id, err)
	}
	return u, nil
}

func (s *sqlStore) List(ctx context.Context, limit int) ([]Upload, error) {
	t := s.builder().Table(uploadsTable)
	sel := s.builder().Select(uploadColumns...).
		From(t).
		OrderBy(entsql.Desc(t.C("created_at")), entsql.Asc(t.C("id")))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		s.logger.Error("failed to list uploads", "error", err)
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("list uploads: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *sqlStore) IncrementFeedback(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := s.withTx(ctx, func(tx dialect.Tx) error {
		query, args := s.builder().Update(uploadsTable).
			Add("feedback_count", 1).
			Set("updated_at", s.now().UTC().UnixMilli()).
			Where(entsql.EQ("id", id.String())).
			Query()
		if err := s.execOne(ctx, tx, id, query, args); err != nil {
			return err
		}
		u, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		count = u.FeedbackCount
		return nil
	})
	if err != nil {
		s.logger.Error("failed to increment feedback count", "upload_id", id, "error", err)
		return 0, err
	}
	return count, nil
}

func (s *sqlStore) SetStatus(ctx context.Context, id uuid.UUID, status constants.UploadStatus, lastError string) error {
	query, args := s.builder().Update(uploadsTable).
		Set("status", string(status)).
		Set("last_error", lastError).
		Set("updated_at", s.now().UTC().UnixMilli()).
		Where(entsql.EQ("id", id.String())).
		Query()
	if err := s.execOne(ctx, s.drv, id, query, args); err != nil {
		s.logger.Error("failed to set upload status", "upload_id", id, "status", status, "error", err)
		return err
	}
	return nil
}

func (s *sqlStore) SetLatest(ctx context.Context, id uuid.UUID, feedback []byte, minCount int) (Upload, error) {
	var out Upload
	err := s.withTx(ctx, func(tx dialect.Tx) error {
		cur, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		count := cur.FeedbackCount
		if count < minCount {
			count = minCount
		}
		query, args := s.builder().Update(uploadsTable).
			Set("latest_feedback", nullableJSON(feedback)).
			Set("status", string(constants.UploadStatusEvaluated)).
			Set("last_error", "").
			Set("feedback_count", count).
			Set("updated_at", s.now().UTC().UnixMilli()).
			Where(entsql.EQ("id", id.String())).
			Query()
		if err := s.execOne(ctx, tx, id, query, args); err != nil {
			return err
		}
		out, err = s.get(ctx, tx, id)
		return err
	})
	if err != nil {
		s.logger.Error("failed to store latest feedback", "upload_id", id, "error", err)
		return Upload{}, err
	}
	return out, nil
}

func (s *sqlStore) withTx(ctx context.Context, fn func(tx dialect.Tx) error) error {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// execOne runs an update and maps "no row touched" to ErrNotFound.
func (s *sqlStore) execOne(ctx context.Context, q dialect.ExecQuerier, id uuid.UUID, query string, args []any) error {
	var res sql.Result
	if err := q.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("update upload %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update upload %s: %w", id, err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

func scanUpload(rows entsql.Rows) (Upload, error) {
	var (
		u                    Upload
		id, status           string
		latest               sql.NullString
		createdAt, updatedAt int64
	)
	if err := rows.Scan(
		&id, &u.Filename, &u.SavedPath, &u.Format, &u.ContentHash, &u.SizeBytes,
		&u.FeedbackCount, &status, &u.LastError, &latest, &createdAt, &updatedAt,
	); err != nil {
		return Upload{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Upload{}, fmt.Errorf("parse id %q: %w", id, err)
	}
	u.ID = parsed
	u.Status = constants.UploadStatus(status)
	if latest.Valid {
		u.LatestFeedback = []byte(latest.String)
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	u.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return u, nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
