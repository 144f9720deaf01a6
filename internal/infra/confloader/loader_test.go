package confloader

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Store struct {
		Workspace string `koanf:"workspace"`
		PageLimit int    `koanf:"page_limit"`
	} `koanf:"store"`
	Provider struct {
		Badger struct {
			Dir        string `koanf:"dir"`
			SyncWrites bool   `koanf:"sync_writes"`
		} `koanf:"badger"`
	} `koanf:"provider"`
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader(
		WithEnvPrefix("TEST_"),
		WithConfigFile("/path/to/config.yaml"),
	)

	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.filePath != "/path/to/config.yaml" {
		t.Errorf("filePath = %q, want %q", l.filePath, "/path/to/config.yaml")
	}
}

func TestLoader_LoadFile(t *testing.T) {
	// Create temp config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
store:
  workspace: "guild-1"
  page_limit: 50
provider:
  badger:
    dir: "/var/lib/chanstore"
    sync_writes: true
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	l := NewLoader()
	if err := l.LoadFile(configPath); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	// Verify values were loaded
	if ws := l.GetString("store.workspace"); ws != "guild-1" {
		t.Errorf("store.workspace = %q, want %q", ws, "guild-1")
	}

	if !l.GetBool("provider.badger.sync_writes") {
		t.Error("provider.badger.sync_writes should be true")
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	l := NewLoader()
	err := l.LoadFile("/nonexistent/config.yaml")
	if err == nil {
		t.Error("LoadFile() should return error for nonexistent file")
	}
}

func TestLoader_LoadFile_Empty(t *testing.T) {
	l := NewLoader()
	// Empty path should not error
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") should not error, got: %v", err)
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	// Set environment variables
	t.Setenv("CHANSTORE_LOG_LEVEL", "debug")
	t.Setenv("CHANSTORE_STORE_PAGE_LIMIT", "25")

	l := NewLoader()
	if err := l.LoadMap(map[string]any{"store.page_limit": 100}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if lvl := l.GetString("log.level"); lvl != "debug" {
		t.Errorf("log.level = %q, want %q", lvl, "debug")
	}
	// Known keys keep their underscores.
	if n := l.GetInt("store.page_limit"); n != 25 {
		t.Errorf("store.page_limit = %d, want 25", n)
	}
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_PROVIDER_KIND", "memory")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if kind := l.GetString("provider.kind"); kind != "memory" {
		t.Errorf("provider.kind = %q, want %q", kind, "memory")
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()

	data := map[string]any{
		"store.workspace": "guild-2",
		"debug":           true,
	}

	if err := l.LoadMap(data); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	if ws := l.GetString("store.workspace"); ws != "guild-2" {
		t.Errorf("store.workspace = %q, want %q", ws, "guild-2")
	}

	if !l.GetBool("debug") {
		t.Error("debug should be true")
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	// Create temp config file with low priority value
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
store:
  workspace: "from-file"
  page_limit: 10
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	// Set environment variable with high priority value
	t.Setenv("CHANSTORE_STORE_WORKSPACE", "from-env")

	l := NewLoader(
		WithConfigFile(configPath),
		WithDefaults(map[string]any{
			"store.page_limit":    100,
			"provider.badger.dir": "data",
		}),
		WithOverrides(map[string]any{"provider.badger.dir": "from-flag"}),
	)

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Store.Workspace != "from-env" {
		t.Errorf("Workspace = %q, want %q (env should override file)",
			cfg.Store.Workspace, "from-env")
	}
	if cfg.Store.PageLimit != 10 {
		t.Errorf("PageLimit = %d, want 10 (file should override defaults)", cfg.Store.PageLimit)
	}
	if cfg.Provider.Badger.Dir != "from-flag" {
		t.Errorf("Dir = %q, want %q (overrides win)", cfg.Provider.Badger.Dir, "from-flag")
	}
}

func TestLoader_Unmarshal(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
store:
  workspace: "guild-1"
  page_limit: 50
provider:
  badger:
    dir: "/var/lib/chanstore"
    sync_writes: true
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	l := NewLoader(WithConfigFile(configPath))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Store.Workspace != "guild-1" {
		t.Errorf("Workspace = %q, want %q", cfg.Store.Workspace, "guild-1")
	}
	if cfg.Store.PageLimit != 50 {
		t.Errorf("PageLimit = %d, want 50", cfg.Store.PageLimit)
	}
	if !cfg.Provider.Badger.SyncWrites {
		t.Error("SyncWrites should be true")
	}
}

func TestLoader_IsLoaded(t *testing.T) {
	l := NewLoader()

	if l.IsLoaded() {
		t.Error("IsLoaded() should be false before Load()")
	}

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !l.IsLoaded() {
		t.Error("IsLoaded() should be true after Load()")
	}
}

func TestLoader_All(t *testing.T) {
	l := NewLoader()
	l.LoadMap(map[string]any{
		"key1": "value1",
		"key2": "value2",
	})

	all := l.All()
	if len(all) < 2 {
		t.Errorf("All() returned %d keys, want at least 2", len(all))
	}
}

func TestLoader_Keys(t *testing.T) {
	l := NewLoader()
	l.LoadMap(map[string]any{
		"key1": "value1",
		"key2": "value2",
	})

	keys := l.Keys()
	if len(keys) < 2 {
		t.Errorf("Keys() returned %d keys, want at least 2", len(keys))
	}
}

func TestLoader_GetInt(t *testing.T) {
	l := NewLoader()
	l.LoadMap(map[string]any{
		"port": 8080,
	})

	if port := l.GetInt("port"); port != 8080 {
		t.Errorf("GetInt(port) = %d, want %d", port, 8080)
	}
}
