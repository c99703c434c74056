package jsonp

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("JSONP_TIMEOUT_MS", "")
	t.Setenv("JSONP_MAX_SCRIPT_BYTES", "")
	t.Setenv("JSONP_SECRET", "")

	want := Config{Port: "8080", MaxScriptBytes: DefaultMaxScriptBytes}
	if diff := cmp.Diff(want, LoadConfig()); diff != "" {
		t.Errorf("LoadConfig mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("JSONP_TIMEOUT_MS", "250")
	t.Setenv("JSONP_MAX_SCRIPT_BYTES", "1024")
	t.Setenv("JSONP_SECRET", testSecret)

	want := Config{Port: "9000", Timeout: 250 * time.Millisecond, MaxScriptBytes: 1024, Secret: testSecret}
	if diff := cmp.Diff(want, LoadConfig()); diff != "" {
		t.Errorf("LoadConfig mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("JSONP_TIMEOUT_MS", "soon")
	t.Setenv("JSONP_MAX_SCRIPT_BYTES", "-1")

	cfg := LoadConfig()
	if cfg.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0", cfg.Timeout)
	}
	if cfg.MaxScriptBytes != DefaultMaxScriptBytes {
		t.Errorf("MaxScriptBytes = %d, want %d", cfg.MaxScriptBytes, DefaultMaxScriptBytes)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("JSONP_TIMEOUT_MS", "250")
	t.Setenv("JSONP_MAX_SCRIPT_BYTES", "")
	t.Setenv("JSONP_SECRET", "")

	path := filepath.Join(t.TempDir(), "jsonp.yaml")
	data := "timeout_ms: 0\nmax_script_bytes: 2048\nsecret: " + testSecret + "\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}
	want := Config{Port: "9000", Timeout: 0, MaxScriptBytes: 2048, Secret: testSecret}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadConfigFile mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigFile_Errors(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("timeout_ms: [1"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestConfig_ClientOptions(t *testing.T) {
	cfg := Config{Timeout: 75 * time.Millisecond, MaxScriptBytes: 16}
	client := NewClient(cfg.ClientOptions()...)

	if client.Timeout() != 75*time.Millisecond {
		t.Errorf("Timeout = %v, want 75ms", client.Timeout())
	}
	loader, ok := client.loader.(*HTTPLoader)
	if !ok || loader.MaxBytes != 16 {
		t.Errorf("Expected HTTPLoader with MaxBytes 16, got %#v", client.loader)
	}
}
