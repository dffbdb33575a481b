package livesync

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/strategoai/ron-livesync/pkg/gamewatch"
	"github.com/strategoai/ron-livesync/pkg/pauseflag"
)

type stubDetector struct {
	running bool
}

func (s *stubDetector) IsRunning() bool { return s.running }

// manualScheduler records scheduled ticks so tests fire them by hand.
type manualScheduler struct {
	mu     sync.Mutex
	delays []time.Duration
	fn     func()
}

func (s *manualScheduler) ScheduleOnce(d time.Duration, fn func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	s.fn = fn
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		stopped := s.fn != nil
		s.fn = nil
		return stopped
	}
}

func (s *manualScheduler) Fire(t *testing.T) {
	t.Helper()
	s.mu.Lock()
	fn := s.fn
	s.fn = nil
	s.mu.Unlock()
	if fn == nil {
		t.Fatal("no tick scheduled")
	}
	fn()
}

func (s *manualScheduler) LastDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.delays) == 0 {
		return 0
	}
	return s.delays[len(s.delays)-1]
}

type fixture struct {
	mgr       *Manager
	sched     *manualScheduler
	det       *stubDetector
	pause     *pauseflag.Coordinator
	workFile  string
	targetDir string
	targets   []string
}

func newFixture(t *testing.T, gameRunning, preGame bool) *fixture {
	t.Helper()
	base := t.TempDir()

	targetDir := filepath.Join(base, "Difficulties")
	if err := os.Mkdir(targetDir, 0755); err != nil {
		t.Fatal(err)
	}
	targets := []string{
		filepath.Join(targetDir, "StandardDifficulty.ini"),
		filepath.Join(targetDir, "HardDifficulty.ini"),
	}
	for _, target := range targets {
		content := "[header]\nNote=preserved\n\n[Global]\nSpawnCount=1\n"
		if err := os.WriteFile(target, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	workFile := filepath.Join(base, "Work", "work.ini")
	if err := os.MkdirAll(filepath.Dir(workFile), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(workFile, []byte("[Global]\nSpawnCount=42\n"), 0644); err != nil {
		t.Fatal(err)
	}

	det := &stubDetector{running: gameRunning}
	sched := &manualScheduler{}
	pause := pauseflag.New(targetDir, workFile)

	mgr, err := NewManager(Options{
		Enabled:     true,
		PreGameSync: preGame,
		WorkFile:    workFile,
		Targets:     targets,
		Gate:        gamewatch.NewGate(det, nil, time.Second),
		Pause:       pause,
		Scheduler:   sched,
	})
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{
		mgr:       mgr,
		sched:     sched,
		det:       det,
		pause:     pause,
		workFile:  workFile,
		targetDir: targetDir,
		targets:   targets,
	}
}

func (f *fixture) targetContent(t *testing.T, i int) string {
	t.Helper()
	data, err := os.ReadFile(f.targets[i])
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func (f *fixture) touchWork(t *testing.T, ts time.Time) {
	t.Helper()
	if err := os.Chtimes(f.workFile, ts, ts); err != nil {
		t.Fatal(err)
	}
}

func TestPollSyncsOnChange(t *testing.T) {
	f := newFixture(t, true, false)
	f.mgr.Start()
	defer f.mgr.Stop()

	// First poll has no mtime baseline: it syncs unconditionally.
	f.sched.Fire(t)
	for i := range f.targets {
		got := f.targetContent(t, i)
		if !strings.Contains(got, "SpawnCount=42") {
			t.Errorf("target %d not synced: %q", i, got)
		}
		if !strings.HasPrefix(got, "[header]\nNote=preserved") {
			t.Errorf("target %d lost its header: %q", i, got)
		}
	}
	if f.sched.LastDelay() != DefaultActiveInterval {
		t.Errorf("cadence = %v, want %v while active", f.sched.LastDelay(), DefaultActiveInterval)
	}

	// Unchanged work file: the next poll must not rewrite targets.
	sentinel := "[Global]\nSpawnCount=locally-edited\n"
	if err := os.WriteFile(f.targets[0], []byte(sentinel), 0644); err != nil {
		t.Fatal(err)
	}
	f.sched.Fire(t)
	if got := f.targetContent(t, 0); got != sentinel {
		t.Errorf("poll without a work file change rewrote the target: %q", got)
	}

	// Newer mtime triggers a sync again.
	f.touchWork(t, time.Now().Add(time.Hour))
	f.sched.Fire(t)
	if got := f.targetContent(t, 0); !strings.Contains(got, "SpawnCount=42") {
		t.Errorf("changed work file was not synced: %q", got)
	}
}

func TestIdleWhenGameNotRunning(t *testing.T) {
	f := newFixture(t, false, false)
	f.mgr.Start()
	defer f.mgr.Stop()

	before := f.targetContent(t, 0)
	f.sched.Fire(t)
	if got := f.targetContent(t, 0); got != before {
		t.Error("poll synced while the game is down and pre-game sync is off")
	}
	if f.sched.LastDelay() != DefaultIdleInterval {
		t.Errorf("cadence = %v, want %v while idle", f.sched.LastDelay(), DefaultIdleInterval)
	}
}

func TestPreGameSyncAndCadence(t *testing.T) {
	f := newFixture(t, false, true)
	f.mgr.Start()
	defer f.mgr.Stop()

	f.sched.Fire(t)
	if got := f.targetContent(t, 0); !strings.Contains(got, "SpawnCount=42") {
		t.Errorf("pre-game sync did not run: %q", got)
	}
	if f.sched.LastDelay() != DefaultPreGameInterval {
		t.Errorf("cadence = %v, want %v while waiting for the game", f.sched.LastDelay(), DefaultPreGameInterval)
	}
}

func TestPauseSuppressesSyncUntilTriggered(t *testing.T) {
	f := newFixture(t, true, false)
	f.mgr.Start()
	defer f.mgr.Stop()

	before := f.targetContent(t, 0)
	f.pause.Pause()

	// Edits during the pause advance the mtime, but the paused poll records
	// it as the new baseline instead of syncing.
	f.touchWork(t, time.Now().Add(time.Hour))
	f.sched.Fire(t)
	if got := f.targetContent(t, 0); got != before {
		t.Error("poll synced while paused")
	}

	// Resuming without a trigger must not replay the paused-over edit.
	f.pause.Resume(false)
	f.sched.Fire(t)
	if got := f.targetContent(t, 0); got != before {
		t.Error("edit made during the pause synced after a silent resume")
	}

	// A triggered resume touches the work file past the baseline.
	f.touchWork(t, time.Now().Add(2*time.Hour))
	f.sched.Fire(t)
	if got := f.targetContent(t, 0); !strings.Contains(got, "SpawnCount=42") {
		t.Errorf("triggered resume did not cause a sync: %q", got)
	}
}

func TestForceSyncNow(t *testing.T) {
	f := newFixture(t, false, false) // gating would normally block
	if err := f.mgr.ForceSyncNow(); err != nil {
		t.Fatalf("ForceSyncNow() returned error: %v", err)
	}
	if got := f.targetContent(t, 0); !strings.Contains(got, "SpawnCount=42") {
		t.Errorf("force sync ignored a target: %q", got)
	}
}

func TestForceSyncCreatesMissingDirectories(t *testing.T) {
	f := newFixture(t, false, false)
	orphan := filepath.Join(f.targetDir, "sub", "does", "not", "exist", "CasualDifficulty.ini")
	f.mgr.opts.Targets = append(f.mgr.opts.Targets, orphan)

	if err := f.mgr.ForceSyncNow(); err != nil {
		t.Fatalf("ForceSyncNow() returned error: %v", err)
	}
	data, err := os.ReadFile(orphan)
	if err != nil {
		t.Fatalf("target in missing directory was not created: %v", err)
	}
	if !strings.Contains(string(data), "SpawnCount=42") {
		t.Errorf("created target has wrong content: %q", data)
	}
}

func TestForceSyncMissingWorkFileIsNoOp(t *testing.T) {
	f := newFixture(t, false, false)
	if err := os.Remove(f.workFile); err != nil {
		t.Fatal(err)
	}
	before := f.targetContent(t, 0)
	if err := f.mgr.ForceSyncNow(); err != nil {
		t.Fatalf("ForceSyncNow() with no work file must be a no-op, got %v", err)
	}
	if got := f.targetContent(t, 0); got != before {
		t.Error("no-op force sync modified a target")
	}
}

func TestUnreadableTargetIsRebuiltFromWorkFile(t *testing.T) {
	f := newFixture(t, true, false)

	// Write-only mimics a target that is read-locked but still writable.
	if err := os.Chmod(f.targets[0], 0o200); err != nil {
		t.Fatal(err)
	}
	if _, err := os.ReadFile(f.targets[0]); err == nil {
		t.Skip("running with privileges that bypass file permissions")
	}

	if err := f.mgr.ForceSyncNow(); err != nil {
		t.Fatalf("ForceSyncNow() must not fail on an unreadable target, got %v", err)
	}

	if err := os.Chmod(f.targets[0], 0o644); err != nil {
		t.Fatal(err)
	}
	got := f.targetContent(t, 0)
	want := "[Global]\nSpawnCount=42\n"
	if got != want {
		t.Errorf("unreadable target was not rebuilt from the work file:\n got: %q\nwant: %q", got, want)
	}
}

func TestTargetFailuresAreIsolated(t *testing.T) {
	f := newFixture(t, true, false)

	// Make one target unreadable by turning it into a directory.
	if err := os.Remove(f.targets[1]); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(f.targets[1], 0755); err != nil {
		t.Fatal(err)
	}

	err := f.mgr.ForceSyncNow()
	if err == nil {
		t.Fatal("expected an error for the broken target")
	}
	if got := f.targetContent(t, 0); !strings.Contains(got, "SpawnCount=42") {
		t.Errorf("healthy target was not synced despite the other failing: %q", got)
	}
}

func TestStartStopAndDisabled(t *testing.T) {
	f := newFixture(t, true, false)

	f.mgr.Start()
	if !f.mgr.Running() {
		t.Fatal("expected manager running after Start()")
	}
	f.mgr.Stop()
	if f.mgr.Running() {
		t.Fatal("expected manager stopped after Stop()")
	}

	// A cancelled tick must not poll.
	f.sched.mu.Lock()
	fn := f.sched.fn
	f.sched.mu.Unlock()
	if fn != nil {
		fn() // simulates a timer that fired before Stop cancelled it
	}

	disabled, err := NewManager(Options{
		Enabled:   false,
		WorkFile:  f.workFile,
		Targets:   f.targets[:1],
		Gate:      gamewatch.NewGate(f.det, nil, time.Second),
		Pause:     f.pause,
		Scheduler: f.sched,
	})
	if err != nil {
		t.Fatal(err)
	}
	disabled.Start()
	if disabled.Running() {
		t.Error("a disabled manager must not start polling")
	}
}

func TestRefreshNowPollsImmediately(t *testing.T) {
	f := newFixture(t, true, false)
	f.mgr.Start()
	defer f.mgr.Stop()

	f.mgr.RefreshNow()
	if got := f.targetContent(t, 0); !strings.Contains(got, "SpawnCount=42") {
		t.Errorf("RefreshNow() did not sync: %q", got)
	}
	// A new tick is scheduled afterwards.
	f.sched.mu.Lock()
	hasTick := f.sched.fn != nil
	f.sched.mu.Unlock()
	if !hasTick {
		t.Error("RefreshNow() left no tick scheduled")
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Options{}); err == nil {
		t.Error("expected an error for empty options")
	}
}
