package pauseflag

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestCoordinator(t *testing.T) (*Coordinator, string) {
	t.Helper()
	base := t.TempDir()
	dir := filepath.Join(base, "Difficulties")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	workFile := filepath.Join(base, "work.ini")
	if err := os.WriteFile(workFile, []byte("[Global]\nSpawnCount=1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return New(dir, workFile), dir
}

func TestPauseAndResume(t *testing.T) {
	c, _ := newTestCoordinator(t)

	if c.IsPaused() {
		t.Fatal("new coordinator should not be paused")
	}

	c.Pause()
	if !c.IsPaused() {
		t.Fatal("expected pause flag after Pause()")
	}

	c.Resume(false)
	if c.IsPaused() {
		t.Fatal("expected pause flag removed after Resume()")
	}
}

func TestPauseDoesNotCreateMissingDirectory(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "Difficulties") // never created
	c := New(dir, filepath.Join(base, "work.ini"))

	c.Pause()

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("Pause() must not create the target directory")
	}
	if c.IsPaused() {
		t.Error("Pause() on a missing directory must be a no-op")
	}

	// Resume on a missing directory is equally silent.
	c.Resume(true)
}

func TestResumeWithTriggerTouchesWorkFile(t *testing.T) {
	c, _ := newTestCoordinator(t)

	old := time.Now().Add(-1 * time.Hour)
	if err := os.Chtimes(c.workFile, old, old); err != nil {
		t.Fatal(err)
	}
	before, err := os.Stat(c.workFile)
	if err != nil {
		t.Fatal(err)
	}

	c.Pause()
	c.Resume(true)

	after, err := os.Stat(c.workFile)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().After(before.ModTime()) {
		t.Errorf("expected work file mtime to advance, before=%v after=%v", before.ModTime(), after.ModTime())
	}
}

func TestResumeWithoutTriggerLeavesWorkFileAlone(t *testing.T) {
	c, _ := newTestCoordinator(t)

	old := time.Now().Add(-1 * time.Hour)
	if err := os.Chtimes(c.workFile, old, old); err != nil {
		t.Fatal(err)
	}

	c.Pause()
	c.Resume(false)

	info, err := os.Stat(c.workFile)
	if err != nil {
		t.Fatal(err)
	}
	if info.ModTime().After(old.Add(time.Minute)) {
		t.Error("Resume(false) must not touch the work file")
	}
}

func TestResumeAfterKeepsFlagDuringDelay(t *testing.T) {
	c, _ := newTestCoordinator(t)

	c.Pause()
	timer := c.ResumeAfter(50*time.Millisecond, false)
	defer timer.Stop()

	if !c.IsPaused() {
		t.Fatal("flag must remain set for the whole delay window")
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.IsPaused() {
		if time.Now().After(deadline) {
			t.Fatal("flag was not removed after the delay")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
