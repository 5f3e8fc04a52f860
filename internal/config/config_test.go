package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: ollama
  local_model: "llama3:8b"
  max_retries: 5
  retry_delay: 10s
  timeout: 90s
  calls_log: out/calls.json
suitability:
  min_score: 7
resume_path: resume.yaml
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.LLM.MaxRetries)
	}
	if cfg.LLM.RetryDelay != 10*time.Second {
		t.Errorf("RetryDelay = %v, want 10s", cfg.LLM.RetryDelay)
	}
	if cfg.LLM.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v, want 90s", cfg.LLM.Timeout)
	}
	if cfg.LLM.LocalModel != "llama3:8b" {
		t.Errorf("LocalModel = %q", cfg.LLM.LocalModel)
	}
	if cfg.LLM.CallsLog != "out/calls.json" {
		t.Errorf("CallsLog = %q", cfg.LLM.CallsLog)
	}
	if cfg.Suitability.MinScore != 7 {
		t.Errorf("MinScore = %d, want 7", cfg.Suitability.MinScore)
	}
	if cfg.ResumePath != "resume.yaml" {
		t.Errorf("ResumePath = %q", cfg.ResumePath)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `llm: {}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.LLM.LocalOnly {
		t.Error("LocalOnly should default to true")
	}
	if cfg.LLM.LocalModel != "phi3:latest" {
		t.Errorf("LocalModel = %q, want phi3:latest", cfg.LLM.LocalModel)
	}
	if cfg.LLM.MaxRetries != 10 {
		t.Errorf("MaxRetries = %d, want 10", cfg.LLM.MaxRetries)
	}
	if cfg.LLM.RetryDelay != 30*time.Second {
		t.Errorf("RetryDelay = %v, want 30s", cfg.LLM.RetryDelay)
	}
	if cfg.Suitability.MinScore != 6 {
		t.Errorf("MinScore = %d, want 6", cfg.Suitability.MinScore)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-secret")
	cfg, err := Load(writeConfig(t, `
llm:
  provider: openai
  model: gpt-4o-mini
  api_key: ${TEST_OPENAI_KEY}
  local_only: false
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "sk-secret" {
		t.Errorf("APIKey = %q, want expanded env value", cfg.LLM.APIKey)
	}
	if cfg.LLM.LocalOnly {
		t.Error("explicit local_only: false should be respected")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "llm: [broken")); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_BadRetryDelay(t *testing.T) {
	if _, err := Load(writeConfig(t, "llm:\n  retry_delay: soon\n")); err == nil {
		t.Fatal("expected error for unparseable retry_delay")
	}
}

func TestLoad_HostedProviderRequiresKey(t *testing.T) {
	_, err := Load(writeConfig(t, `
llm:
  provider: openai
  model: gpt-4o-mini
  local_only: false
`))
	if err == nil {
		t.Fatal("expected validation error: openai without api_key")
	}
}

func TestLoad_MinScoreOutOfRange(t *testing.T) {
	_, err := Load(writeConfig(t, `
llm: {}
suitability:
  min_score: 11
`))
	if err == nil {
		t.Fatal("expected validation error for min_score > 10")
	}
}
