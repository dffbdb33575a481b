package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/strategoai/ron-livesync/pkg/config"
)

// RunInit handles the 'init' command: it writes the default configuration
// file so users have something to edit.
func RunInit(ctx context.Context, flagMap map[string]any) error {
	path := configPath(flagMap)

	if force, ok := flagMap["force"].(bool); ok && force {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("could not remove existing config file %s: %w", path, err)
		}
	}

	if err := config.Generate(path); err != nil {
		return err
	}
	fmt.Printf("Wrote default configuration to %s.\n", path)
	return nil
}
