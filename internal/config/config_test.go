package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.PollInterval() != time.Second {
		t.Errorf("poll interval = %v, want 1s", cfg.PollInterval())
	}
	if len(cfg.SourceConfigs()) != len(DefaultConfig().Sources) {
		t.Errorf("expected default sources")
	}
	if cfg.FrameInterval() != time.Second/30 {
		t.Errorf("frame interval = %v", cfg.FrameInterval())
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"poll":{"source_timeout_ms":1500},"sources":[{"name":"Mirror","url":"http://mirror/api/cycle","kind":"status"}]}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.SourceTimeout() != 1500*time.Millisecond {
		t.Errorf("source timeout = %v", cfg.SourceTimeout())
	}
	if cfg.PollInterval() != time.Second {
		t.Errorf("interval should keep its default, got %v", cfg.PollInterval())
	}
	srcs := cfg.SourceConfigs()
	if len(srcs) != 1 || srcs[0].Name != "Mirror" {
		t.Errorf("sources = %+v", srcs)
	}
}

func TestLoadBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte("{"), 0644)
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CYCLEGLOBE_POLL_INTERVAL_MS", "2000")
	t.Setenv("CYCLEGLOBE_SOURCE_URL", "http://localhost:8844/api/cycle")
	t.Setenv("CYCLEGLOBE_ADDR", "127.0.0.1:9000")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Errorf("interval = %v", cfg.PollInterval())
	}
	if cfg.Serve.MaxClients != 64 {
		t.Errorf("max clients = %d, want default 64", cfg.Serve.MaxClients)
	}
	if cfg.Serve.Addr != "127.0.0.1:9000" {
		t.Errorf("addr = %q", cfg.Serve.Addr)
	}
	srcs := cfg.SourceConfigs()
	if srcs[0].Name != "Custom Source" || srcs[0].URL != "http://localhost:8844/api/cycle" {
		t.Errorf("custom source should lead, got %+v", srcs[0])
	}
	if len(srcs) != len(DefaultConfig().Sources)+1 {
		t.Errorf("expected defaults after custom source, got %d", len(srcs))
	}
}

func TestOfflineHasNoSources(t *testing.T) {
	t.Setenv("CYCLEGLOBE_OFFLINE", "true")
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if len(cfg.SourceConfigs()) != 0 {
		t.Error("offline config should have no sources")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.Scene.FPS = 12
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Scene.FPS != 12 {
		t.Errorf("fps = %d, want 12", loaded.Scene.FPS)
	}
}

func TestDataDirEnv(t *testing.T) {
	t.Setenv("CYCLEGLOBE_HOME", "/tmp/cg-test")
	if DataDir() != "/tmp/cg-test" {
		t.Errorf("DataDir = %q", DataDir())
	}
	if ConfigPath() != "/tmp/cg-test/config.json" {
		t.Errorf("ConfigPath = %q", ConfigPath())
	}
}
