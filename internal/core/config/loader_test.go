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
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "snapshots:\n  - page.html\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Profile.SellerLinkPrefix != "/sellers/" {
		t.Errorf("Expected default seller link prefix, got %s", cfg.Profile.SellerLinkPrefix)
	}
	if cfg.Profile.MaxAncestorDepth != 10 {
		t.Errorf("Expected default ancestor depth 10, got %d", cfg.Profile.MaxAncestorDepth)
	}
	if cfg.Engine.DebounceDelay != 150*time.Millisecond {
		t.Errorf("Expected default debounce delay, got %v", cfg.Engine.DebounceDelay)
	}
	if len(cfg.Snapshots) != 1 || cfg.Snapshots[0] != "page.html" {
		t.Errorf("Unexpected snapshots: %v", cfg.Snapshots)
	}
}

func TestLoad_EnvSubstitution(t *testing.T) {
	os.Setenv("TEST_SETTINGS_PATH", "/tmp/fab-settings.yaml")
	defer os.Unsetenv("TEST_SETTINGS_PATH")

	cfg, err := Load(writeConfig(t, "settings: ${TEST_SETTINGS_PATH}\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Settings != "/tmp/fab-settings.yaml" {
		t.Errorf("Expected env-substituted settings path, got %s", cfg.Settings)
	}
}

func TestLoad_PartialProfileOverride(t *testing.T) {
	content := `
profile:
  seller_link_prefix: /shops/
  card_classes: [shop-card]
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Profile.SellerLinkPrefix != "/shops/" {
		t.Errorf("Override lost: %s", cfg.Profile.SellerLinkPrefix)
	}
	if len(cfg.Profile.CardClasses) != 1 || cfg.Profile.CardClasses[0] != "shop-card" {
		t.Errorf("Override lost: %v", cfg.Profile.CardClasses)
	}
	// Untouched fields keep the built-in profile.
	if cfg.Profile.ListingLinkPrefix != "/listings/" {
		t.Errorf("Default lost: %s", cfg.Profile.ListingLinkPrefix)
	}
}

func TestLoad_EngineDurations(t *testing.T) {
	content := `
engine:
  debounce_delay: 75ms
  rescan_poll: 1s
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Engine.DebounceDelay != 75*time.Millisecond {
		t.Errorf("Expected 75ms debounce delay, got %v", cfg.Engine.DebounceDelay)
	}
	if cfg.Engine.RescanPoll != time.Second {
		t.Errorf("Expected 1s rescan poll, got %v", cfg.Engine.RescanPoll)
	}
	// Colors not set in the file fall back to defaults.
	if cfg.Engine.BlockedColor != "#C0392B" {
		t.Errorf("Default color lost: %s", cfg.Engine.BlockedColor)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	if _, err := Load(writeConfig(t, "engine:\n  debounce_delay: soon\n")); err == nil {
		t.Fatal("Expected error for unparseable duration")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Expected error for missing config file")
	}
}
