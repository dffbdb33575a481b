// Package pauseflag coordinates temporary suppression of live sync around
// bulk file operations. The protocol is a single marker file in the target
// directory: present means paused, absent means syncing is permitted. The
// scheduler only ever reads the flag; UI-style actions create and remove it
// through this coordinator.
package pauseflag

import (
	"os"
	"path/filepath"
	"time"

	"github.com/strategoai/ron-livesync/pkg/plog"
	"github.com/strategoai/ron-livesync/pkg/util"
)

// FlagName is the pause marker file, created next to the target documents.
// Only its existence carries meaning.
const FlagName = "LiveSync.PAUSE"

// flagContent is written for compatibility with the GUI companion app,
// which writes the same literal. Readers must not depend on it.
const flagContent = "paused"

// Coordinator manages the pause flag for one target directory. All
// operations are best-effort: I/O failures are swallowed (logged at debug)
// because callers are interactive action handlers that must stay responsive.
type Coordinator struct {
	dir      string // the Difficulties directory
	workFile string // touched on resume to trigger the next poll
}

// New creates a coordinator for the given target directory and work file.
func New(dir, workFile string) *Coordinator {
	return &Coordinator{dir: dir, workFile: workFile}
}

// FlagPath returns the full path of the pause marker file.
func (c *Coordinator) FlagPath() string {
	return filepath.Join(c.dir, FlagName)
}

// IsPaused reports whether the pause flag currently exists.
func (c *Coordinator) IsPaused() bool {
	_, err := os.Stat(c.FlagPath())
	return err == nil
}

// Pause creates the pause flag. If the target directory does not exist this
// is a no-op: creating it would incorrectly signal an active mod install.
func (c *Coordinator) Pause() {
	if _, err := os.Stat(c.dir); err != nil {
		return
	}
	if err := os.WriteFile(c.FlagPath(), []byte(flagContent), util.UserWritableFilePerms); err != nil {
		plog.Debug("could not create pause flag", "path", c.FlagPath(), "error", err)
		return
	}
	plog.Notice("live sync paused")
}

// Resume removes the pause flag. When triggerSync is true it also touches
// the work file's modification time so the scheduler treats it as changed on
// the next poll; this is the only mechanism by which resuming causes a sync.
// No-ops entirely if the target directory does not exist.
func (c *Coordinator) Resume(triggerSync bool) {
	if _, err := os.Stat(c.dir); err != nil {
		return
	}
	if err := os.Remove(c.FlagPath()); err != nil && !os.IsNotExist(err) {
		plog.Debug("could not remove pause flag", "path", c.FlagPath(), "error", err)
	} else {
		plog.Notice("live sync resumed", "triggerSync", triggerSync)
	}
	if !triggerSync {
		return
	}
	if _, err := os.Stat(c.workFile); err != nil {
		return
	}
	now := time.Now()
	if err := os.Chtimes(c.workFile, now, now); err != nil {
		plog.Debug("could not touch work file", "path", c.workFile, "error", err)
	}
}

// ResumeAfter schedules Resume to run after the given delay without blocking
// the caller. The flag stays set for the whole delay, giving bulk file
// operations a buffer window during which sync attempts are suppressed.
// The returned timer can stop a still-pending resume.
func (c *Coordinator) ResumeAfter(delay time.Duration, triggerSync bool) *time.Timer {
	if delay < 0 {
		delay = 0
	}
	return time.AfterFunc(delay, func() {
		c.Resume(triggerSync)
	})
}
