package ingest

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// SavedFile describes an essay copied into the upload area.
type SavedFile struct {
	ID        uuid.UUID
	Filename  string // sanitized base name
	SavedPath string // absolute
	Format    string
	HashHex   string
	SizeBytes int64
	SavedAt   time.Time
}

// FileResult is the per-file outcome of a directory scan.
type FileResult struct {
	Path   string
	Format string
	Err    string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
	Failed  uint32
}

// Ingestor is the behavior the registry depends on.
type Ingestor interface {
	// SaveUpload copies r into a fresh upload directory under name.
	SaveUpload(ctx context.Context, name string, r io.Reader) (SavedFile, error)
	// SaveFile copies the file at path into a fresh upload directory.
	SaveFile(ctx context.Context, path string) (SavedFile, error)
}
