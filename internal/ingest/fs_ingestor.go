package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/essay-feedback/constants"
	"github.com/joseph-ayodele/essay-feedback/internal/common"
	"github.com/joseph-ayodele/essay-feedback/internal/extract"
)

// ErrTooLarge is returned when an upload exceeds the configured ceiling.
var ErrTooLarge = common.NewAppError("FILE_TOO_LARGE", "upload exceeds size limit", common.ErrInvalidInput)

// FSIngestor stores uploads on the local filesystem as <root>/<uuid>/<name>.
type FSIngestor struct {
	Root     string
	MaxBytes int64 // 0 = unlimited
	logger   *slog.Logger
}

func NewFSIngestor(root string, maxBytes int64, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{Root: root, MaxBytes: maxBytes, logger: logger}
}

func (i *FSIngestor) SaveFile(ctx context.Context, path string) (SavedFile, error) {
	if !AllowedExt(filepath.Ext(path)) {
		return SavedFile{}, &extract.UnsupportedFormatError{Ext: filepath.Ext(path)}
	}
	f, err := os.Open(path)
	if err != nil {
		i.logger.Error("ingest.open_failed", "path", path, "error", err)
		return SavedFile{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			i.logger.Warn("ingest.close_failed", "path", path, "error", err)
		}
	}(f)
	return i.SaveUpload(ctx, filepath.Base(path), f)
}

func (i *FSIngestor) SaveUpload(ctx context.Context, name string, r io.Reader) (SavedFile, error) {
	if err := ctx.Err(); err != nil {
		return SavedFile{}, err
	}
	ext := filepath.Ext(name)
	format := constants.MapExtToFormat(ext)
	if format == "" {
		i.logger.Warn("ingest.unsupported", "filename", name, "ext", ext)
		return SavedFile{}, &extract.UnsupportedFormatError{Ext: ext}
	}
	safe := SecureFilename(name)

	id := uuid.New()
	dir := filepath.Join(i.Root, id.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return SavedFile{}, fmt.Errorf("create upload dir: %w", err)
	}
	dst := filepath.Join(dir, safe)
	abs, err := filepath.Abs(dst)
	if err != nil {
		return SavedFile{}, err
	}

	n, sum, err := i.copyHashed(abs, r)
	if err != nil {
		_ = os.RemoveAll(dir)
		i.logger.Error("ingest.save_failed", "filename", safe, "error", err)
		return SavedFile{}, err
	}

	out := SavedFile{
		ID:        id,
		Filename:  safe,
		SavedPath: abs,
		Format:    format,
		HashHex:   hex.EncodeToString(sum),
		SizeBytes: n,
		SavedAt:   time.Now().UTC(),
	}
	i.logger.Info("ingest.saved",
		"upload_id", id,
		"filename", safe,
		"format", format,
		"bytes", n,
	)
	return out, nil
}

func (i *FSIngestor) copyHashed(dst string, r io.Reader) (int64, []byte, error) {
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, nil, fmt.Errorf("create %s: %w", dst, err)
	}
	h := sha256.New()
	src := r
	if i.MaxBytes > 0 {
		src = io.LimitReader(r, i.MaxBytes+1)
	}
	n, err := io.Copy(io.MultiWriter(f, h), src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, nil, fmt.Errorf("write %s: %w", dst, err)
	}
	if i.MaxBytes > 0 && n > i.MaxBytes {
		return 0, nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, i.MaxBytes)
	}
	return n, h.Sum(nil), nil
}

// IsTooLarge reports whether err came from the size ceiling.
func IsTooLarge(err error) bool {
	return errors.Is(err, ErrTooLarge)
}
