package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"OPENAI_MODEL", "PROMPT_MAX_CHARS", "OPENAI_MAX_OUTPUT_TOKENS", "WORKERS", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	if cfg.LLM.Model != "gpt-5" {
		t.Errorf("model = %q", cfg.LLM.Model)
	}
	if cfg.Prompt.MaxChars != 180000 {
		t.Errorf("max chars = %d", cfg.Prompt.MaxChars)
	}
	if cfg.LLM.MaxOutputTokens != 2048 {
		t.Errorf("max output = %d", cfg.LLM.MaxOutputTokens)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate defaults: %v", err)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PROMPT_MAX_CHARS", "500")
	t.Setenv("OPENAI_TIMEOUT", "5s")
	t.Setenv("WORKERS", "not-a-number")
	cfg := LoadConfig()
	if cfg.Prompt.MaxChars != 500 {
		t.Errorf("max chars = %d", cfg.Prompt.MaxChars)
	}
	if cfg.LLM.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.LLM.Timeout)
	}
	if cfg.Batch.Workers != 4 {
		t.Errorf("workers should fall back to default, got %d", cfg.Batch.Workers)
	}
}

func TestLoadConfigFileOverlay(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "llm:\n  model: gpt-test\n  timeout: 7s\nprompt:\n  max_chars: 42\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.LLM.Model != "gpt-test" || cfg.Prompt.MaxChars != 42 || cfg.LLM.Timeout != 7*time.Second {
		t.Errorf("overlay not applied: %+v", cfg.LLM)
	}
	if cfg.LLM.MaxOutputTokens != 2048 {
		t.Errorf("unset key lost its default: %d", cfg.LLM.MaxOutputTokens)
	}
}

func TestValidate(t *testing.T) {
	cfg := LoadConfig()
	cfg.Prompt.MaxChars = 0
	cfg.Log.Format = "xml"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	cfg = LoadConfig()
	cfg.LLM.APIKey = ""
	if err := cfg.ValidateForModel(); err == nil {
		t.Error("expected missing key error")
	}
	cfg.LLM.APIKey = "k"
	if err := cfg.ValidateForModel(); err != nil {
		t.Errorf("unexpected: %v", err)
	}
}
