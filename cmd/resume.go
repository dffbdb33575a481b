package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/strategoai/ron-livesync/pkg/pauseflag"
	"github.com/strategoai/ron-livesync/pkg/plog"
)

// RunResume handles the 'resume' command. With -delay the pause flag stays
// in place for the given number of seconds, giving bulk file operations a
// buffer window before syncing becomes possible again.
func RunResume(ctx context.Context, flagMap map[string]any) error {
	_, layout, err := loadRunConfig(flagMap)
	if err != nil {
		return err
	}

	if !layout.IsActive() {
		plog.Notice("difficulties directory not active, nothing to resume", "path", layout.DifficultiesDir())
		return nil
	}

	trigger := true
	if v, ok := flagMap["trigger"].(bool); ok {
		trigger = v
	}

	coordinator := pauseflag.New(layout.DifficultiesDir(), layout.WorkFile())

	if v, ok := flagMap["delay"].(int); ok && v > 0 {
		delay := time.Duration(v) * time.Second
		plog.Info("resuming after delay", "delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	coordinator.Resume(trigger)
	fmt.Printf("Live sync resumed (trigger sync: %t).\n", trigger)
	return nil
}
