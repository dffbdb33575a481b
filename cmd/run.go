package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/strategoai/ron-livesync/pkg/config"
	"github.com/strategoai/ron-livesync/pkg/gamedirs"
	"github.com/strategoai/ron-livesync/pkg/gamewatch"
	"github.com/strategoai/ron-livesync/pkg/health"
	"github.com/strategoai/ron-livesync/pkg/iniarchive"
	"github.com/strategoai/ron-livesync/pkg/livesync"
	"github.com/strategoai/ron-livesync/pkg/pauseflag"
	"github.com/strategoai/ron-livesync/pkg/plog"
)

// RunRun handles the 'run' command: the foreground poll loop. It blocks
// until ctx is cancelled.
func RunRun(ctx context.Context, flagMap map[string]any) error {
	cfg, layout, err := loadRunConfig(flagMap)
	if err != nil {
		return err
	}

	writer := health.NewWriter(filepath.Join(filepath.Dir(layout.WorkFile()), health.FileName), 0)
	defer writer.Close()

	mgr, err := buildManager(cfg, layout, writer)
	if err != nil {
		return err
	}

	// Push the current work file out once before polling starts, so a sync
	// missed while the tool was down is not lost. Only when the mod is
	// active: a force sync would otherwise create the mod's directories.
	if layout.IsActive() {
		if err := mgr.ForceSyncNow(); err != nil {
			plog.Warn("startup sync failed, continuing with polling", "error", err)
		}
	} else {
		plog.Notice("difficulties directory not active, skipping startup sync", "path", layout.DifficultiesDir())
	}

	mgr.Start()
	defer mgr.Stop()

	if v, ok := flagMap["watch"].(bool); ok && v {
		closeWatcher, err := watchWorkFile(ctx, layout.WorkFile(), mgr)
		if err != nil {
			plog.Warn("could not watch the work file, relying on polling only", "error", err)
		} else {
			defer closeWatcher()
		}
	}

	<-ctx.Done()
	plog.Notice("shutdown requested")
	return nil
}

// buildManager wires the scheduler from the effective configuration.
func buildManager(cfg *config.Config, layout gamedirs.Layout, writer *health.Writer) (*livesync.Manager, error) {
	detector := gamewatch.NewProcessDetector(cfg.ProcessName)
	gate := gamewatch.NewGate(detector, nil, cfg.GameStartDelay())

	mgr, err := livesync.NewManager(livesync.Options{
		Enabled:         cfg.Enabled,
		PreGameSync:     cfg.PreGameSync,
		ActiveInterval:  cfg.ActiveInterval(),
		IdleInterval:    cfg.IdleInterval(),
		PreGameInterval: cfg.PreGameInterval(),
		WorkFile:        layout.WorkFile(),
		Targets:         layout.TargetFiles(),
		Marker:          cfg.Marker,
		Gate:            gate,
		Pause:           pauseflag.New(layout.DifficultiesDir(), layout.WorkFile()),
		Archiver:        iniarchive.New(layout.DifficultiesDir(), cfg.ArchiveKeep),
		Health:          writer,
	})
	if err != nil {
		return nil, fmt.Errorf("could not build the sync manager: %w", err)
	}
	return mgr, nil
}

// watchWorkFile triggers an immediate poll whenever the work file changes.
// The parent directory is watched, not the file itself: editors and the
// companion app replace the file, which would break a direct watch.
func watchWorkFile(ctx context.Context, workFile string, mgr *livesync.Manager) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(workFile)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("could not watch %s: %w", filepath.Dir(workFile), err)
	}
	plog.Notice("watching work file for changes", "path", workFile)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != workFile {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				plog.Debug("work file changed, polling now", "op", event.Op.String())
				mgr.RefreshNow()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				plog.Warn("file watcher error", "error", err)
			}
		}
	}()
	return watcher.Close, nil
}
