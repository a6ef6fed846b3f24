package core

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/joseph-ayodele/essay-feedback/internal/extract"
	"github.com/joseph-ayodele/essay-feedback/internal/llm"
)

const goodReply = `{"summary":"Solid draft.","feedback":{
 "Grammar":{"summary":"Mostly correct.","issues":["comma splices"],"revision_tips":["split long sentences"]},
 "Vocabulary":{"summary":"Varied.","issues":[],"revision_tips":[]},
 "Organization":{"summary":"Clear.","issues":[],"revision_tips":[]},
 "Reasoning":{"summary":"Convincing.","issues":["thin evidence"],"revision_tips":["add an example"]}}}`

type fakeEvaluator struct {
	mu    sync.Mutex
	reply string
	err   error
	reqs  []llm.EvaluateRequest
}

func (f *fakeEvaluator) Evaluate(_ context.Context, req llm.EvaluateRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.reply, f.err
}

func (f *fakeEvaluator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProcessor(ev llm.FeedbackEvaluator, cfg ProcessorConfig) *Processor {
	return NewProcessor(cfg, extract.NewExtractor(extract.Config{}, quietLogger()), ev, quietLogger())
}

func writeEssay(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}
