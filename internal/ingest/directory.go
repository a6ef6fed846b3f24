package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/essay-feedback/constants"
)

// IngestDirectory walks root, skips hidden entries if requested, and returns
// every supported essay in lexical path order. Walk errors are reported per
// entry and do not stop the scan.
func IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			stats.Skipped++
			return nil
		}
		if d.IsDir() {
			return nil
		}
		format := constants.MapExtToFormat(filepath.Ext(path))
		if format == "" || strings.HasSuffix(path, constants.FeedbackFileSuffix) {
			stats.Skipped++
			return nil
		}
		stats.Matched++
		results = append(results, FileResult{Path: path, Format: format})
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, stats, nil
}
