package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Execution.MaxSteps != 1000000 {
		t.Errorf("Execution.MaxSteps = %d, want 1000000", cfg.Execution.MaxSteps)
	}
	if cfg.Execution.EnableTrace {
		t.Error("Execution.EnableTrace = true, want false")
	}

	if cfg.Debugger.HistorySize != 1000 {
		t.Errorf("Debugger.HistorySize = %d, want 1000", cfg.Debugger.HistorySize)
	}
	if !cfg.Debugger.ShowSource {
		t.Error("Debugger.ShowSource = false, want true")
	}

	if !cfg.Display.ColorOutput {
		t.Error("Display.ColorOutput = false, want true")
	}
	if cfg.Display.SourceContext != 5 {
		t.Errorf("Display.SourceContext = %d, want 5", cfg.Display.SourceContext)
	}

	if cfg.API.Port != 4099 {
		t.Errorf("API.Port = %d, want 4099", cfg.API.Port)
	}
	if !cfg.API.EnableWebsocket {
		t.Error("API.EnableWebsocket = false, want true")
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()
	if path == "" {
		t.Fatal("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("path = %q, want basename config.toml", path)
	}

	switch runtime.GOOS {
	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "holly" && path != "config.toml" {
			t.Errorf("path = %q, want a holly directory or the bare fallback", path)
		}
	}
}

func TestGetLogPath(t *testing.T) {
	path := GetLogPath()
	if path == "" {
		t.Fatal("GetLogPath returned empty string")
	}
	if filepath.Base(path) != "logs" {
		t.Errorf("path = %q, want basename logs", path)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Execution.MaxSteps = 5000000
	cfg.Execution.EnableTrace = true
	cfg.Debugger.HistorySize = 500
	cfg.Display.ColorOutput = false

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file was not created: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Execution.MaxSteps != 5000000 {
		t.Errorf("MaxSteps = %d, want 5000000", loaded.Execution.MaxSteps)
	}
	if !loaded.Execution.EnableTrace {
		t.Error("EnableTrace = false, want true")
	}
	if loaded.Debugger.HistorySize != 500 {
		t.Errorf("HistorySize = %d, want 500", loaded.Debugger.HistorySize)
	}
	if loaded.Display.ColorOutput {
		t.Error("ColorOutput = true, want false")
	}
}

func TestLoadNonExistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.toml")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom should not error on a missing file: %v", err)
	}
	if cfg.Execution.MaxSteps != 1000000 {
		t.Error("expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invalid.toml")

	invalid := "[execution]\nmax_steps = \"not a number\"\n"
	if err := os.WriteFile(path, []byte(invalid), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("expected an error loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file was not created: %v", err)
	}
}
