package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/strategoai/ron-livesync/pkg/iniarchive"
	"github.com/strategoai/ron-livesync/pkg/plog"
)

// RunRestore handles the 'restore' command: it writes a safety snapshot back
// over its target document. By default the newest snapshot of -target is
// used; -snapshot selects a specific file.
func RunRestore(ctx context.Context, flagMap map[string]any) error {
	cfg, layout, err := loadRunConfig(flagMap)
	if err != nil {
		return err
	}
	archiver := iniarchive.New(layout.DifficultiesDir(), cfg.ArchiveKeep)

	var snapshotPath, targetName string

	if v, ok := flagMap["snapshot"].(string); ok && v != "" {
		snapshotPath = v
		// The target document is derived from the snapshot's file name.
		base := filepath.Base(v)
		idx := strings.IndexByte(base, '.')
		if idx <= 0 {
			return fmt.Errorf("cannot derive a target document from snapshot name %q", base)
		}
		targetName = base[:idx]
	} else {
		v, ok := flagMap["target"].(string)
		if !ok || v == "" {
			return fmt.Errorf("the -target flag is required unless -snapshot is given")
		}
		targetName = strings.TrimSuffix(v, ".ini")

		entry, found := archiver.LatestFor(targetName)
		if !found {
			return fmt.Errorf("no snapshots found for target %q in %s", targetName, archiver.ArchiveDir())
		}
		snapshotPath = entry.Path
	}

	targetPath := filepath.Join(layout.DifficultiesDir(), targetName+".ini")
	if err := archiver.Restore(snapshotPath, targetPath); err != nil {
		return err
	}

	plog.Info("restored target document from snapshot", "target", targetPath, "snapshot", snapshotPath)
	fmt.Printf("Restored %s from %s.\n", targetPath, snapshotPath)
	return nil
}
