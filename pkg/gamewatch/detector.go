// Package gamewatch detects the running game process and decides when
// synchronization against its config files is safe. Detection is a pure
// read-only probe of the OS process table; the Gate state machine layers the
// startup grace period on top of it.
package gamewatch

import (
	"golang.org/x/sync/singleflight"

	"github.com/strategoai/ron-livesync/pkg/plog"
)

// ProcessName is the game's executable name. Matching is an exact,
// case-sensitive comparison against the OS process list.
const ProcessName = "ReadyOrNotSteam-Win64-Shipping.exe"

// Detector reports whether the game process is currently running.
type Detector interface {
	IsRunning() bool
}

// ProcessDetector scans the OS process table for a fixed executable name.
//
// Failure policy: if the process table cannot be read for any reason, the
// detector reports true. Failing open keeps the legacy best-effort sync
// behavior instead of silently disabling the feature; callers must not treat
// the answer as authoritative.
type ProcessDetector struct {
	name string
	sf   singleflight.Group
}

// NewProcessDetector creates a detector for the given executable name.
// An empty name selects the game's default ProcessName.
func NewProcessDetector(processName string) *ProcessDetector {
	if processName == "" {
		processName = ProcessName
	}
	return &ProcessDetector{name: processName}
}

// IsRunning reports whether a process with the configured name exists.
// Concurrent callers (the poll tick and e.g. a status query) share a single
// process-table scan.
func (d *ProcessDetector) IsRunning() bool {
	v, _, _ := d.sf.Do(d.name, func() (any, error) {
		running, err := processRunning(d.name)
		if err != nil {
			plog.Debug("process enumeration failed, assuming game running", "error", err)
			return true, nil
		}
		return running, nil
	})
	return v.(bool)
}
