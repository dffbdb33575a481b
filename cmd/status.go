package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/strategoai/ron-livesync/pkg/health"
	"github.com/strategoai/ron-livesync/pkg/iniarchive"
	"github.com/strategoai/ron-livesync/pkg/inimerge"
	"github.com/strategoai/ron-livesync/pkg/pauseflag"
)

// RunStatus handles the 'status' command: a human-readable dump of the
// installation and scheduler state.
func RunStatus(ctx context.Context, flagMap map[string]any) error {
	cfg, layout, err := loadRunConfig(flagMap)
	if err != nil {
		return err
	}

	fmt.Printf("Base directory:   %s\n", layout.BaseDir)

	switch {
	case layout.IsActive():
		fmt.Printf("Mod install:      active (%s)\n", layout.DifficultiesDir())
	case layout.IsDisabled():
		fmt.Printf("Mod install:      disabled (%s)\n", layout.DisabledDir())
	default:
		fmt.Println("Mod install:      not found")
	}

	if info, err := os.Stat(layout.WorkFile()); err == nil {
		fmt.Printf("Work file:        %s (modified %s)\n", layout.WorkFile(), info.ModTime().Format("2006-01-02 15:04:05"))
	} else {
		fmt.Printf("Work file:        missing (%s)\n", layout.WorkFile())
	}

	coordinator := pauseflag.New(layout.DifficultiesDir(), layout.WorkFile())
	fmt.Printf("Paused:           %t\n", coordinator.IsPaused())

	printHealth(layout.WorkFile())
	printExcluded(layout.WorkFile())

	archiver := iniarchive.New(layout.DifficultiesDir(), cfg.ArchiveKeep)
	snapshots, err := archiver.List()
	if err != nil {
		fmt.Printf("Snapshots:        unavailable (%v)\n", err)
		return nil
	}
	fmt.Printf("Snapshots:        %d in %s\n", len(snapshots), archiver.ArchiveDir())
	return nil
}

// printHealth shows the scheduler's last published state, if a run loop has
// ever written one.
func printHealth(workFile string) {
	status, err := health.Read(filepath.Join(filepath.Dir(workFile), health.FileName))
	if err != nil {
		fmt.Println("Scheduler:        no status published")
		return
	}

	fmt.Printf("Scheduler:        updated %s\n", status.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("  game running:   %t\n", status.GameRunning)
	fmt.Printf("  sync armed:     %t\n", status.SyncArmed)
	fmt.Printf("  idle:           %t\n", status.Idle)
	if !status.LastSync.IsZero() {
		fmt.Printf("  last sync:      %s\n", status.LastSync.Local().Format("2006-01-02 15:04:05"))
	}
	if status.LastError != "" {
		fmt.Printf("  last error:     %s\n", status.LastError)
	}
}

// printExcluded lists the protected fields present in the work file. They
// never reach the targets through the merge, which regularly surprises
// people editing the work file by hand.
func printExcluded(workFile string) {
	data, err := os.ReadFile(workFile)
	if err != nil {
		return
	}
	excluded := inimerge.ExcludedFieldsIn(string(data))
	if len(excluded) == 0 {
		return
	}
	fmt.Printf("Protected fields: %s\n", strings.Join(excluded, ", "))
}
