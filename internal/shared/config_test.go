package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		t.Setenv("TMDB_API_KEY", "")
		config := DefaultConfig()

		if config.Database.Path != "./mvx.db" {
			t.Errorf("expected database path ./mvx.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.TMDB.BaseURL != "https://api.themoviedb.org/3" {
			t.Errorf("expected tmdb base URL, got %s", config.TMDB.BaseURL)
		}

		if config.Explorer.MaxPages != 500 {
			t.Errorf("expected max pages 500, got %d", config.Explorer.MaxPages)
		}

		if config.Favorites.LegacyWriteThrough {
			t.Error("expected legacy write-through to be disabled by default")
		}

		if config.TMDB.HasCredentials() {
			t.Error("default config should not carry credentials")
		}
	})

	t.Run("Environment Override", func(t *testing.T) {
		t.Setenv("TMDB_API_KEY", "from-env")
		config := DefaultConfig()

		if config.TMDB.APIKey != "from-env" {
			t.Errorf("expected api key from environment, got %q", config.TMDB.APIKey)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Setenv("TMDB_API_KEY", "")
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[tmdb]
api_key = "test_api_key"

[auth]
timeout_seconds = 5
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if config.TMDB.APIKey != "test_api_key" {
			t.Errorf("expected api key test_api_key, got %s", config.TMDB.APIKey)
		}

		if config.Auth.Timeout() != 5*time.Second {
			t.Errorf("expected 5s timeout, got %v", config.Auth.Timeout())
		}

		if config.TMDB.BaseURL != "https://api.themoviedb.org/3" {
			t.Errorf("missing keys should keep defaults, got base URL %q", config.TMDB.BaseURL)
		}

		if config.Explorer.LandingPerPage != 5 {
			t.Errorf("missing keys should keep defaults, got per page %d", config.Explorer.LandingPerPage)
		}
	})

	t.Run("LoadConfig Invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[tmdb\napi_key ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("SaveConfig Round Trip", func(t *testing.T) {
		t.Setenv("TMDB_API_KEY", "")
		configPath := filepath.Join(t.TempDir(), "config.toml")

		config := DefaultConfig()
		config.TMDB.APIKey = "saved-key"
		config.Favorites.LegacyWriteThrough = true

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}

		if loaded.TMDB.APIKey != "saved-key" {
			t.Errorf("expected saved-key, got %s", loaded.TMDB.APIKey)
		}
		if !loaded.Favorites.LegacyWriteThrough {
			t.Error("expected legacy write-through to round trip")
		}
	})

	t.Run("LoadOrDefault Missing File", func(t *testing.T) {
		config, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if config.Server.Port != 3000 {
			t.Errorf("expected default config, got port %d", config.Server.Port)
		}
	})

	t.Run("Auth Timeout Default", func(t *testing.T) {
		if got := (AuthConfig{}).Timeout(); got != 2*time.Minute {
			t.Errorf("expected 2m default, got %v", got)
		}
	})
}
