// Package cmd implements the command handlers behind the CLI.
package cmd

import (
	"path/filepath"

	"github.com/strategoai/ron-livesync/pkg/config"
	"github.com/strategoai/ron-livesync/pkg/gamedirs"
	"github.com/strategoai/ron-livesync/pkg/plog"
	"github.com/strategoai/ron-livesync/pkg/util"
)

// configPath resolves the configuration file location. An explicit -config
// flag wins; otherwise the file is looked up in the working directory.
func configPath(flagMap map[string]any) string {
	if v, ok := flagMap["config"].(string); ok && v != "" {
		if expanded, err := util.ExpandPath(v); err == nil {
			return expanded
		}
		return v
	}
	return config.DefaultFileName
}

// loadRunConfig loads the configuration, overlays explicitly set flags and
// applies the resulting log level. Returns the effective config together
// with the directory layout it selects.
func loadRunConfig(flagMap map[string]any) (*config.Config, gamedirs.Layout, error) {
	cfg, err := config.Load(configPath(flagMap))
	if err != nil {
		return nil, gamedirs.Layout{}, err
	}
	cfg.MergeConfigWithFlags(flagMap)
	if err := cfg.Validate(); err != nil {
		return nil, gamedirs.Layout{}, err
	}

	plog.SetLevel(plog.LevelFromString(cfg.LogLevel))
	cfg.LogSummary()

	layout := gamedirs.Default()
	if cfg.BaseDir != "" {
		base, err := util.ExpandPath(cfg.BaseDir)
		if err != nil {
			return nil, gamedirs.Layout{}, err
		}
		layout = gamedirs.Layout{BaseDir: filepath.Clean(base)}
	}
	return cfg, layout, nil
}
