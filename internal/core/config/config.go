package config

import (
	"fmt"
	"time"
)

// AppConfig represents the top-level harness configuration.
type AppConfig struct {
	Server    ServerConfig  `yaml:"server"`
	Snapshots []string      `yaml:"snapshots"` // HTML snapshot files to filter
	Settings  string        `yaml:"settings"`  // path to the local settings file
	Logging   LoggingConfig `yaml:"logging"`
	Profile   SiteProfile   `yaml:"profile"`
	Engine    EngineConfig  `yaml:"engine"`
}

// ServerConfig holds HTTP server settings for serve mode.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// SiteProfile describes the markup conventions of the target marketplace.
// The container heuristic is driven entirely by this profile so a markup
// change is a config update, not a code change.
type SiteProfile struct {
	SellerLinkPrefix  string   `yaml:"seller_link_prefix"`
	ListingLinkPrefix string   `yaml:"listing_link_prefix"`
	SellerNameClass   string   `yaml:"seller_name_class"`
	CardClasses       []string `yaml:"card_classes"`
	SurfaceClasses    []string `yaml:"surface_classes"`
	StackClasses      []string `yaml:"stack_classes"`
	MaxAncestorDepth  int      `yaml:"max_ancestor_depth"`
}

// EngineConfig holds filter engine tuning.
type EngineConfig struct {
	DebounceDelay time.Duration `yaml:"debounce_delay"`
	RescanPoll    time.Duration `yaml:"rescan_poll"` // serve mode snapshot poll interval
	BlockedColor  string        `yaml:"blocked_color"`
	NeutralColor  string        `yaml:"neutral_color"`
}

// engineConfigYAML mirrors EngineConfig with durations as strings.
type engineConfigYAML struct {
	DebounceDelay string `yaml:"debounce_delay"`
	RescanPoll    string `yaml:"rescan_poll"`
	BlockedColor  string `yaml:"blocked_color"`
	NeutralColor  string `yaml:"neutral_color"`
}

// UnmarshalYAML accepts durations in time.ParseDuration form ("150ms").
func (c *EngineConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw engineConfigYAML
	if err := unmarshal(&raw); err != nil {
		return err
	}
	if raw.DebounceDelay != "" {
		d, err := time.ParseDuration(raw.DebounceDelay)
		if err != nil {
			return fmt.Errorf("invalid debounce_delay: %w", err)
		}
		c.DebounceDelay = d
	}
	if raw.RescanPoll != "" {
		d, err := time.ParseDuration(raw.RescanPoll)
		if err != nil {
			return fmt.Errorf("invalid rescan_poll: %w", err)
		}
		c.RescanPoll = d
	}
	c.BlockedColor = raw.BlockedColor
	c.NeutralColor = raw.NeutralColor
	return nil
}

// DefaultProfile returns the site profile matching Fab's current markup.
// The browser entrypoints use this directly; the harness can override any
// field from YAML.
func DefaultProfile() SiteProfile {
	return SiteProfile{
		SellerLinkPrefix:  "/sellers/",
		ListingLinkPrefix: "/listings/",
		SellerNameClass:   "fabkit-Typography-ellipsisWrapper",
		CardClasses:       []string{"fabkit-Thumbnail-root"},
		SurfaceClasses:    []string{"fabkit-Surface-root"},
		StackClasses:      []string{"fabkit-Stack-root"},
		MaxAncestorDepth:  10,
	}
}

// DefaultEngine returns the default engine tuning.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		DebounceDelay: 150 * time.Millisecond,
		RescanPoll:    2 * time.Second,
		BlockedColor:  "#C0392B",
		NeutralColor:  "#666666",
	}
}
