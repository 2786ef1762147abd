package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults fills in anything the file left unset. Profile fields
// default individually so a partial override keeps the rest of the
// built-in Fab profile.
func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Settings == "" {
		cfg.Settings = "settings.yaml"
	}

	def := DefaultProfile()
	if cfg.Profile.SellerLinkPrefix == "" {
		cfg.Profile.SellerLinkPrefix = def.SellerLinkPrefix
	}
	if cfg.Profile.ListingLinkPrefix == "" {
		cfg.Profile.ListingLinkPrefix = def.ListingLinkPrefix
	}
	if cfg.Profile.SellerNameClass == "" {
		cfg.Profile.SellerNameClass = def.SellerNameClass
	}
	if len(cfg.Profile.CardClasses) == 0 {
		cfg.Profile.CardClasses = def.CardClasses
	}
	if len(cfg.Profile.SurfaceClasses) == 0 {
		cfg.Profile.SurfaceClasses = def.SurfaceClasses
	}
	if len(cfg.Profile.StackClasses) == 0 {
		cfg.Profile.StackClasses = def.StackClasses
	}
	if cfg.Profile.MaxAncestorDepth == 0 {
		cfg.Profile.MaxAncestorDepth = def.MaxAncestorDepth
	}

	defEngine := DefaultEngine()
	if cfg.Engine.DebounceDelay == 0 {
		cfg.Engine.DebounceDelay = defEngine.DebounceDelay
	}
	if cfg.Engine.RescanPoll == 0 {
		cfg.Engine.RescanPoll = defEngine.RescanPoll
	}
	if cfg.Engine.BlockedColor == "" {
		cfg.Engine.BlockedColor = defEngine.BlockedColor
	}
	if cfg.Engine.NeutralColor == "" {
		cfg.Engine.NeutralColor = defEngine.NeutralColor
	}
}
