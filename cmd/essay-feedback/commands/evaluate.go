package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/essay-feedback/internal/async"
	"github.com/joseph-ayodele/essay-feedback/internal/core"
	"github.com/joseph-ayodele/essay-feedback/internal/export"
	"github.com/joseph-ayodele/essay-feedback/internal/ingest"
)

func evaluateCmd(a *app) *cobra.Command {
	var (
		dir        string
		xlsxOut    string
		outDir     string
		workers    int
		skipHidden bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate [file]",
		Short: "Evaluate one essay, or every essay under --dir",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case dir == "" && len(args) == 1:
				return a.evaluateOne(cmd, args[0], outDir)
			case dir != "" && len(args) == 0:
				return a.evaluateDir(cmd, dir, outDir, xlsxOut, workers, skipHidden)
			default:
				return fmt.Errorf("give either a file or --dir")
			}
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to evaluate recursively")
	cmd.Flags().StringVar(&xlsxOut, "xlsx", "", "write an XLSX review workbook for the batch")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory for feedback files (default: next to each essay)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent evaluations (default WORKERS)")
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "skip dot files and directories")
	return cmd
}

func (a *app) evaluateOne(cmd *cobra.Command, path, outDir string) error {
	proc, err := a.processor(outDir, false)
	if err != nil {
		return err
	}
	res, err := proc.EvaluateFile(cmd.Context(), path)
	if err != nil {
		return err
	}
	b, err := core.MarshalFeedback(res.Feedback)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}

func (a *app) evaluateDir(cmd *cobra.Command, dir, outDir, xlsxOut string, workers int, skipHidden bool) error {
	ctx := cmd.Context()
	proc, err := a.processor(outDir, false)
	if err != nil {
		return err
	}
	files, stats, err := ingest.IngestDirectory(ctx, dir, skipHidden)
	if err != nil {
		return err
	}
	a.logger.Info("batch.scan", "dir", dir, "scanned", stats.Scanned, "matched", stats.Matched, "skipped", stats.Skipped, "failed", stats.Failed)

	if workers <= 0 {
		workers = a.cfg.Batch.Workers
	}
	var (
		mu     sync.Mutex
		docs   []export.Document
		failed []string
	)
	q := async.NewProcessorQueue(proc, a.logger,
		async.WithWorkers(workers),
		async.WithProcessTimeout(a.cfg.Batch.Timeout),
		async.WithResultHandler(func(job async.Job, res core.Result, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, fmt.Sprintf("%s: %v", job.Path, err))
				return
			}
			docs = append(docs, export.Document{Name: relName(dir, job.Path), Feedback: res.Feedback})
		}),
	)

	start := time.Now()
	for _, f := range files {
		if f.Err != "" {
			mu.Lock()
			failed = append(failed, fmt.Sprintf("%s: %s", f.Path, f.Err))
			mu.Unlock()
			continue
		}
		if err := q.Enqueue(ctx, async.Job{Path: f.Path, TraceID: uuid.NewString()}); err != nil {
			q.Shutdown(context.Background())
			return err
		}
	}
	q.Shutdown(context.Background())

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	sort.Strings(failed)
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "evaluated %d of %d documents in %s\n", len(docs), len(files), time.Since(start).Round(time.Millisecond))
	for _, f := range failed {
		_, _ = fmt.Fprintf(out, "FAILED %s\n", f)
	}

	if xlsxOut != "" {
		b, err := export.NewService(a.logger).FeedbackXLSX(ctx, docs)
		if err != nil {
			return err
		}
		if err := os.WriteFile(xlsxOut, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", xlsxOut, err)
		}
		_, _ = fmt.Fprintf(out, "wrote %s\n", xlsxOut)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d documents failed", len(failed))
	}
	return nil
}

func relName(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return filepath.Base(path)
}
