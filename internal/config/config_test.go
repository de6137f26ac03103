package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_NoFile(t *testing.T) {
	t.Parallel()

	log := slog.Default()
	path, err := Load("/nonexistent/path/config.yaml", log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path, got %q", path)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := []byte(`
model:
  provider: openai
  max_tokens: 2048
  temperature: 0.4
  openai:
    model: gpt-4o-mini
embedding:
  provider: ollama
  model: nomic-embed-text
index:
  backend: memory
  path: /var/lib/bookmind/index.json
catalog:
  db_path: /var/lib/bookmind/catalog.db
orchestrator:
  max_attempts: 4
  retry_base_ms: 250
logging:
  level: debug
  format: text
`)

	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	// Clear env vars that the YAML should set.
	envKeys := []string{
		"MODEL_PROVIDER", "MODEL_MAX_TOKENS", "MODEL_TEMPERATURE",
		"OPENAI_MODEL", "EMBEDDING_PROVIDER", "EMBEDDING_MODEL",
		"INDEX_BACKEND", "INDEX_PATH", "CATALOG_DB",
		"ORCH_MAX_ATTEMPTS", "ORCH_RETRY_BASE_MS",
		"BOOKMIND_LOG_LEVEL", "BOOKMIND_LOG_FORMAT",
	}
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	log := slog.Default()
	loaded, err := Load(cfgPath, log)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != cfgPath {
		t.Errorf("loaded path: got %q, want %q", loaded, cfgPath)
	}

	checks := map[string]string{
		"MODEL_PROVIDER":      "openai",
		"MODEL_MAX_TOKENS":    "2048",
		"MODEL_TEMPERATURE":   "0.4",
		"OPENAI_MODEL":        "gpt-4o-mini",
		"EMBEDDING_PROVIDER":  "ollama",
		"EMBEDDING_MODEL":     "nomic-embed-text",
		"INDEX_BACKEND":       "memory",
		"INDEX_PATH":          "/var/lib/bookmind/index.json",
		"CATALOG_DB":          "/var/lib/bookmind/catalog.db",
		"ORCH_MAX_ATTEMPTS":   "4",
		"ORCH_RETRY_BASE_MS":  "250",
		"BOOKMIND_LOG_LEVEL":  "debug",
		"BOOKMIND_LOG_FORMAT": "text",
	}
	for k, want := range checks {
		got := os.Getenv(k)
		if got != want {
			t.Errorf("env %s: got %q, want %q", k, got, want)
		}
	}
}

func TestLoad_EnvWins(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := []byte(`
model:
  provider: openai
index:
  backend: qdrant
`)
	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MODEL_PROVIDER", "ollama")
	t.Setenv("INDEX_BACKEND", "")
	os.Unsetenv("INDEX_BACKEND")

	if _, err := Load(cfgPath, slog.Default()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Pre-set env var is never overwritten; unset one is populated.
	if got := os.Getenv("MODEL_PROVIDER"); got != "ollama" {
		t.Errorf("MODEL_PROVIDER: got %q, want env value %q", got, "ollama")
	}
	if got := os.Getenv("INDEX_BACKEND"); got != "qdrant" {
		t.Errorf("INDEX_BACKEND: got %q, want yaml value %q", got, "qdrant")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("model: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(cfgPath, slog.Default()); err == nil {
		t.Fatal("expected parse error for malformed YAML")
	}
}
