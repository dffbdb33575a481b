// Package livesync runs the polling scheduler that keeps the game's
// difficulty documents in step with the work file. Each poll checks the
// work file's modification time and, when gating allows it, merges the work
// file's tunables section into every target document.
package livesync

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/strategoai/ron-livesync/pkg/gamewatch"
	"github.com/strategoai/ron-livesync/pkg/health"
	"github.com/strategoai/ron-livesync/pkg/iniarchive"
	"github.com/strategoai/ron-livesync/pkg/inimerge"
	"github.com/strategoai/ron-livesync/pkg/pauseflag"
	"github.com/strategoai/ron-livesync/pkg/plog"
	"github.com/strategoai/ron-livesync/pkg/util"
)

// Default poll cadences. The loop runs fast while syncing is possible, slows
// down when nothing is changing, and slower still while waiting for the game
// to launch.
const (
	DefaultActiveInterval  = 1 * time.Second
	DefaultIdleInterval    = 3 * time.Second
	DefaultPreGameInterval = 10 * time.Second
)

// Options configures a Manager. Zero intervals select the defaults.
type Options struct {
	Enabled     bool
	PreGameSync bool // allow syncing before the game process is up

	ActiveInterval  time.Duration
	IdleInterval    time.Duration
	PreGameInterval time.Duration

	WorkFile string   // the source document
	Targets  []string // full paths of the difficulty documents
	Marker   string   // section marker, empty selects inimerge.Marker

	Gate      *gamewatch.Gate
	Pause     *pauseflag.Coordinator
	Archiver  *iniarchive.Archiver // optional, snapshots targets before overwrite
	Health    *health.Writer       // optional
	Scheduler TickScheduler        // nil selects SystemScheduler
}

// Manager owns the poll loop state. All mutable state is guarded by one
// mutex; polls, refreshes and stop requests may arrive from timer, watcher
// and signal goroutines concurrently.
type Manager struct {
	opts Options

	mu         sync.Mutex
	running    bool
	cancelTick func() bool

	// lastMtime is the work file modification time seen by the previous
	// poll. haveMtime false means no baseline: the next poll syncs
	// unconditionally.
	lastMtime time.Time
	haveMtime bool
	idle      bool

	lastSync time.Time
	lastErr  error
}

// NewManager validates and applies defaults to opts.
func NewManager(opts Options) (*Manager, error) {
	if opts.WorkFile == "" {
		return nil, errors.New("work file path must not be empty")
	}
	if len(opts.Targets) == 0 {
		return nil, errors.New("at least one target document is required")
	}
	if opts.Gate == nil {
		return nil, errors.New("a game gate is required")
	}
	if opts.Pause == nil {
		return nil, errors.New("a pause coordinator is required")
	}
	if opts.ActiveInterval <= 0 {
		opts.ActiveInterval = DefaultActiveInterval
	}
	if opts.IdleInterval <= 0 {
		opts.IdleInterval = DefaultIdleInterval
	}
	if opts.PreGameInterval <= 0 {
		opts.PreGameInterval = DefaultPreGameInterval
	}
	if opts.Marker == "" {
		opts.Marker = inimerge.Marker
	}
	if opts.Scheduler == nil {
		opts.Scheduler = SystemScheduler()
	}
	return &Manager{opts: opts}, nil
}

// Start begins polling. A disabled manager logs and stays stopped; calling
// Start on a running manager is a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	if !m.opts.Enabled {
		plog.Notice("live sync is disabled, not starting the poll loop")
		return
	}
	m.running = true
	plog.Notice("live sync started",
		"workFile", m.opts.WorkFile,
		"targets", len(m.opts.Targets),
		"preGameSync", m.opts.PreGameSync)
	m.scheduleLocked(m.opts.ActiveInterval)
}

// Stop cancels the pending tick and halts polling.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	if m.cancelTick != nil {
		m.cancelTick()
		m.cancelTick = nil
	}
	plog.Notice("live sync stopped")
}

// Running reports whether the poll loop is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// RefreshNow cancels the pending tick and polls immediately. Used by the
// file watcher so an edit does not have to wait out the current interval.
func (m *Manager) RefreshNow() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	if m.cancelTick != nil {
		m.cancelTick()
		m.cancelTick = nil
	}
	m.pollLocked()
	m.scheduleLocked(m.nextIntervalLocked())
}

// ForceSyncNow merges the work file into every target right away, bypassing
// game gating and the pause flag. Missing target directories are created.
// A missing work file is a no-op: there is nothing to push.
func (m *Manager) ForceSyncNow() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, err := os.Stat(m.opts.WorkFile)
	if err != nil {
		if os.IsNotExist(err) {
			plog.Notice("no work file present, nothing to sync", "path", m.opts.WorkFile)
			return nil
		}
		return fmt.Errorf("could not stat work file: %w", err)
	}

	if err := m.syncAllLocked(true, true); err != nil {
		return err
	}
	m.lastMtime = info.ModTime()
	m.haveMtime = true
	return nil
}

// tick is the scheduled poll entry point.
func (m *Manager) tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.pollLocked()
	m.scheduleLocked(m.nextIntervalLocked())
}

func (m *Manager) scheduleLocked(d time.Duration) {
	m.cancelTick = m.opts.Scheduler.ScheduleOnce(d, m.tick)
}

// nextIntervalLocked picks the poll cadence from the state the last poll
// left behind.
func (m *Manager) nextIntervalLocked() time.Duration {
	if m.opts.PreGameSync && !m.opts.Gate.Running() {
		return m.opts.PreGameInterval
	}
	if m.idle {
		return m.opts.IdleInterval
	}
	return m.opts.ActiveInterval
}

// pollLocked runs one poll cycle. The ordering mirrors the decision chain
// the sync has always used: missing work file, gating, pause flag, then the
// modification time comparison.
func (m *Manager) pollLocked() {
	defer m.publishLocked()

	info, err := os.Stat(m.opts.WorkFile)
	if err != nil {
		m.idle = true
		m.haveMtime = false
		return
	}

	gameSyncAllowed := m.opts.Gate.Check()
	preGameSync := m.opts.PreGameSync && !gameSyncAllowed
	if !gameSyncAllowed && !preGameSync {
		m.idle = true
		return
	}

	if m.opts.Pause.IsPaused() {
		// Remember the current mtime so edits made during the pause do not
		// sync on resume. An explicit resume trigger touches the work file
		// afterwards, moving its mtime past this baseline.
		m.lastMtime = info.ModTime()
		m.haveMtime = true
		m.idle = false
		return
	}

	if !m.haveMtime || info.ModTime().After(m.lastMtime) {
		m.lastMtime = info.ModTime()
		m.haveMtime = true
		if err := m.syncAllLocked(gameSyncAllowed, false); err != nil {
			plog.Warn("sync pass finished with errors", "error", err)
		}
	}
	m.idle = false
}

// syncAllLocked merges the work file into every target concurrently. Target
// failures are isolated: one bad document never blocks the others. The
// joined error carries every per-target failure.
func (m *Manager) syncAllLocked(preserveExcluded, createDirs bool) error {
	source, err := os.ReadFile(m.opts.WorkFile)
	if err != nil {
		err = fmt.Errorf("could not read work file: %w", err)
		m.lastErr = err
		return err
	}

	opts := inimerge.Options{Marker: m.opts.Marker, PreserveExcluded: preserveExcluded}
	errs := make([]error, len(m.opts.Targets))

	var g errgroup.Group
	for i, target := range m.opts.Targets {
		i, target := i, target
		g.Go(func() error {
			errs[i] = m.syncTarget(target, string(source), opts, createDirs)
			return nil
		})
	}
	g.Wait()

	joined := errors.Join(errs...)
	m.lastErr = joined
	if joined == nil {
		m.lastSync = time.Now()
		plog.Info("synced work file into targets", "targets", len(m.opts.Targets))
	}
	return joined
}

func (m *Manager) syncTarget(target, sourceText string, opts inimerge.Options, createDirs bool) error {
	if createDirs {
		if err := os.MkdirAll(filepath.Dir(target), util.UserWritableDirPerms); err != nil {
			return fmt.Errorf("could not create directory for %s: %w", target, err)
		}
	}

	// Any read failure is treated as an absent target and the document is
	// rebuilt from the source body. A target that is momentarily read-locked
	// but writable must not stay stale until someone deletes it.
	targetText := ""
	data, err := os.ReadFile(target)
	if err == nil {
		targetText = string(data)
	} else if !os.IsNotExist(err) {
		plog.Debug("could not read target, rebuilding it from the work file", "target", target, "error", err)
	}

	if m.opts.Archiver != nil && targetText != "" {
		if _, err := m.opts.Archiver.Snapshot(target); err != nil {
			plog.Warn("could not snapshot target before overwrite", "target", target, "error", err)
		}
	}

	merged := inimerge.Merge(sourceText, targetText, opts)
	if merged == targetText {
		return nil
	}
	if err := os.WriteFile(target, []byte(merged), util.UserWritableFilePerms); err != nil {
		return fmt.Errorf("could not write target %s: %w", target, err)
	}
	plog.Debug("updated target document", "target", target)
	return nil
}

func (m *Manager) publishLocked() {
	if m.opts.Health == nil {
		return
	}
	s := health.Status{
		GameRunning: m.opts.Gate.Running(),
		SyncArmed:   m.opts.Gate.Armed(),
		Idle:        m.idle,
		Paused:      m.opts.Pause.IsPaused(),
		LastSync:    m.lastSync,
	}
	if m.lastErr != nil {
		s.LastError = m.lastErr.Error()
	}
	m.opts.Health.Publish(s)
}
