package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/essay-feedback/constants"
	"github.com/joseph-ayodele/essay-feedback/internal/common"
	"github.com/joseph-ayodele/essay-feedback/internal/extract"
)

func TestSecureFilename(t *testing.T) {
	cases := map[string]string{
		"My Essay.docx":         "My_Essay.docx",
		"../../etc/passwd.txt":  "passwd.txt",
		`C:\Users\me\draft.PDF`: "draft.pdf",
		"Café résumé.txt":       "Cafe_resume.txt",
		"作文.docx":               "upload.docx",
		"..hidden.txt":          "hidden.txt",
		"a<b>|c.txt":            "abc.txt",
	}
	for in, want := range cases {
		if got := SecureFilename(in); got != want {
			t.Errorf("SecureFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func newIngestor(t *testing.T, max int64) *FSIngestor {
	return NewFSIngestor(t.TempDir(), max, slog.New(slog.DiscardHandler))
}

func TestSaveUpload(t *testing.T) {
	ing := newIngestor(t, 1024)
	body := "An essay about rivers."
	saved, err := ing.SaveUpload(context.Background(), "My Essay.txt", strings.NewReader(body))
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if saved.Filename != "My_Essay.txt" || saved.Format != constants.TXT || saved.SizeBytes != int64(len(body)) {
		t.Errorf("unexpected %+v", saved)
	}
	sum := sha256.Sum256([]byte(body))
	if saved.HashHex != hex.EncodeToString(sum[:]) {
		t.Errorf("hash = %s", saved.HashHex)
	}
	if filepath.Dir(saved.SavedPath) != filepath.Join(mustAbs(t, ing.Root), saved.ID.String()) {
		t.Errorf("saved path %s not under upload id dir", saved.SavedPath)
	}
	got, err := os.ReadFile(saved.SavedPath)
	if err != nil || string(got) != body {
		t.Errorf("content = %q, %v", got, err)
	}
}

func TestSaveUploadRejectsUnsupported(t *testing.T) {
	ing := newIngestor(t, 0)
	_, err := ing.SaveUpload(context.Background(), "notes.rtf", strings.NewReader("x"))
	if !errors.Is(err, extract.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
	entries, _ := os.ReadDir(ing.Root)
	if len(entries) != 0 {
		t.Errorf("nothing should be written, found %d entries", len(entries))
	}
}

func TestSaveUploadTooLarge(t *testing.T) {
	ing := newIngestor(t, 4)
	_, err := ing.SaveUpload(context.Background(), "big.txt", strings.NewReader("12345"))
	if !IsTooLarge(err) || !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected too large, got %v", err)
	}
	entries, _ := os.ReadDir(ing.Root)
	if len(entries) != 0 {
		t.Errorf("partial upload left behind: %d entries", len(entries))
	}

	if _, err := ing.SaveUpload(context.Background(), "ok.txt", strings.NewReader("1234")); err != nil {
		t.Errorf("exact limit should pass: %v", err)
	}
}

func TestSaveFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "draft.docx")
	if err := os.WriteFile(src, []byte("PK"), 0o644); err != nil {
		t.Fatal(err)
	}
	saved, err := newIngestor(t, 0).SaveFile(context.Background(), src)
	if err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if saved.Format != constants.DOCX || saved.Filename != "draft.docx" {
		t.Errorf("unexpected %+v", saved)
	}
	if _, err := newIngestor(t, 0).SaveFile(context.Background(), filepath.Join(t.TempDir(), "gone.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	files := []string{
		"b.txt", "a.docx", "notes.md", "a_feedback.txt",
		filepath.Join("sub", "c.pdf"),
		filepath.Join(".git", "d.txt"),
		".hidden.txt",
	}
	for _, f := range files {
		p := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	results, stats, err := IngestDirectory(context.Background(), root, true)
	if err != nil {
		t.Fatalf("IngestDirectory: %v", err)
	}
	var got []string
	for _, r := range results {
		rel, _ := filepath.Rel(root, r.Path)
		got = append(got, rel)
	}
	want := []string{"a.docx", "b.txt", filepath.Join("sub", "c.pdf")}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}
	if stats.Matched != 3 {
		t.Errorf("matched = %d", stats.Matched)
	}

	if _, _, err := IngestDirectory(context.Background(), "", true); err == nil {
		t.Error("empty root should fail")
	}
	if _, _, err := IngestDirectory(context.Background(), filepath.Join(root, "missing"), true); err == nil {
		t.Error("missing root should fail")
	}
}

func mustAbs(t *testing.T, p string) string {
	t.Helper()
	abs, err := filepath.Abs(p)
	if err != nil {
		t.Fatal(err)
	}
	return abs
}
