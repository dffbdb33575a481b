package cmd

import (
	"context"
	"time"

	"github.com/strategoai/ron-livesync/pkg/buildinfo"
	"github.com/strategoai/ron-livesync/pkg/plog"
)

// RunSync handles the 'sync' command: one forced merge of the work file into
// every target document, ignoring game gating and the pause flag.
func RunSync(ctx context.Context, flagMap map[string]any) error {
	cfg, layout, err := loadRunConfig(flagMap)
	if err != nil {
		return err
	}

	mgr, err := buildManager(cfg, layout, nil)
	if err != nil {
		return err
	}

	startTime := time.Now()
	if err := mgr.ForceSyncNow(); err != nil {
		return err
	}
	plog.Info(buildinfo.Name+" sync finished.", "duration", time.Since(startTime).Round(time.Millisecond))
	return nil
}
