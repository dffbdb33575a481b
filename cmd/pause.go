package cmd

import (
	"context"
	"fmt"

	"github.com/strategoai/ron-livesync/pkg/pauseflag"
	"github.com/strategoai/ron-livesync/pkg/plog"
)

// RunPause handles the 'pause' command: it drops the pause flag into the
// difficulties directory so a running loop stops syncing.
func RunPause(ctx context.Context, flagMap map[string]any) error {
	_, layout, err := loadRunConfig(flagMap)
	if err != nil {
		return err
	}

	if !layout.IsActive() {
		plog.Notice("difficulties directory not active, nothing to pause", "path", layout.DifficultiesDir())
		return nil
	}

	coordinator := pauseflag.New(layout.DifficultiesDir(), layout.WorkFile())
	coordinator.Pause()
	if !coordinator.IsPaused() {
		return fmt.Errorf("could not create the pause flag at %s", coordinator.FlagPath())
	}
	fmt.Printf("Live sync paused. Remove with 'resume' or delete %s.\n", coordinator.FlagPath())
	return nil
}
