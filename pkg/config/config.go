// Package config loads, validates and generates the JSON configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/strategoai/ron-livesync/pkg/gamewatch"
	"github.com/strategoai/ron-livesync/pkg/iniarchive"
	"github.com/strategoai/ron-livesync/pkg/inimerge"
	"github.com/strategoai/ron-livesync/pkg/plog"
	"github.com/strategoai/ron-livesync/pkg/util"
)

// DefaultFileName is the config file looked up next to the binary or passed
// explicitly with -config.
const DefaultFileName = "ron-livesync.config.json"

// Config is the persisted configuration. All durations are stored as
// seconds so the file stays hand-editable.
type Config struct {
	Enabled     bool `json:"enabled"`
	PreGameSync bool `json:"preGameSync"`

	ActiveIntervalSeconds  float64 `json:"activeIntervalSeconds"`
	IdleIntervalSeconds    float64 `json:"idleIntervalSeconds"`
	PreGameIntervalSeconds float64 `json:"preGameIntervalSeconds"`
	GameStartDelaySeconds  float64 `json:"gameStartDelaySeconds"`

	ProcessName string `json:"processName"`
	BaseDir     string `json:"baseDir"` // empty selects the platform default
	Marker      string `json:"marker"`
	ArchiveKeep int    `json:"archiveKeep"`
	LogLevel    string `json:"logLevel"`
}

// NewDefault returns the configuration used when no file is present.
func NewDefault() *Config {
	return &Config{
		Enabled:                true,
		PreGameSync:            true,
		ActiveIntervalSeconds:  1,
		IdleIntervalSeconds:    3,
		PreGameIntervalSeconds: 10,
		GameStartDelaySeconds:  gamewatch.DefaultStartDelay.Seconds(),
		ProcessName:            gamewatch.ProcessName,
		Marker:                 inimerge.Marker,
		ArchiveKeep:            iniarchive.DefaultKeep,
		LogLevel:               "info",
	}
}

// Load reads and validates a config file. A missing file is not an error:
// the defaults are returned so the tool works out of the box.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			plog.Debug("no config file found, using defaults", "path", path)
			return NewDefault(), nil
		}
		return nil, fmt.Errorf("could not read config file %s: %w", path, err)
	}

	cfg := NewDefault()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Generate writes the default configuration to path. Refuses to overwrite
// an existing file.
func Generate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	data, err := json.MarshalIndent(NewDefault(), "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal default config: %w", err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), util.UserWritableDirPerms); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, util.UserWritableFilePerms); err != nil {
		return fmt.Errorf("could not write config file %s: %w", path, err)
	}
	return nil
}

// MergeConfigWithFlags overlays explicitly set command line flags onto the
// loaded configuration. Flags always win over the file.
func (c *Config) MergeConfigWithFlags(flags map[string]any) {
	for name, value := range flags {
		switch name {
		case "enabled":
			c.Enabled = value.(bool)
		case "pregame":
			c.PreGameSync = value.(bool)
		case "base-dir":
			c.BaseDir = value.(string)
		case "process":
			c.ProcessName = value.(string)
		case "keep":
			c.ArchiveKeep = value.(int)
		case "log-level":
			c.LogLevel = value.(string)
		}
	}
}

// Validate checks the configuration for values the scheduler cannot run
// with.
func (c *Config) Validate() error {
	if c.ActiveIntervalSeconds <= 0 || c.IdleIntervalSeconds <= 0 || c.PreGameIntervalSeconds <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	if c.GameStartDelaySeconds < 0 {
		return fmt.Errorf("gameStartDelaySeconds must not be negative")
	}
	if strings.TrimSpace(c.ProcessName) == "" {
		return fmt.Errorf("processName must not be empty")
	}
	if !strings.HasPrefix(c.Marker, "[") || !strings.HasSuffix(c.Marker, "]") {
		return fmt.Errorf("marker %q must be a bracketed section header", c.Marker)
	}
	if c.ArchiveKeep <= 0 {
		return fmt.Errorf("archiveKeep must be positive")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "notice", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logLevel %q", c.LogLevel)
	}
	return nil
}

// ActiveInterval returns the active poll cadence as a duration.
func (c *Config) ActiveInterval() time.Duration {
	return secondsToDuration(c.ActiveIntervalSeconds)
}

// IdleInterval returns the idle poll cadence as a duration.
func (c *Config) IdleInterval() time.Duration {
	return secondsToDuration(c.IdleIntervalSeconds)
}

// PreGameInterval returns the pre-game poll cadence as a duration.
func (c *Config) PreGameInterval() time.Duration {
	return secondsToDuration(c.PreGameIntervalSeconds)
}

// GameStartDelay returns the grace window applied after a game launch.
func (c *Config) GameStartDelay() time.Duration {
	return secondsToDuration(c.GameStartDelaySeconds)
}

// LogSummary logs the effective configuration at debug level.
func (c *Config) LogSummary() {
	plog.Debug("effective configuration",
		"enabled", c.Enabled,
		"preGameSync", c.PreGameSync,
		"activeInterval", c.ActiveInterval(),
		"idleInterval", c.IdleInterval(),
		"preGameInterval", c.PreGameInterval(),
		"gameStartDelay", c.GameStartDelay(),
		"processName", c.ProcessName,
		"baseDir", c.BaseDir,
		"marker", c.Marker,
		"archiveKeep", c.ArchiveKeep,
		"logLevel", c.LogLevel)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
