// Package health publishes a small JSON status document describing the
// scheduler's current state. External tooling (and the status command) reads
// it instead of poking at the scheduler directly.
package health

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/strategoai/ron-livesync/pkg/plog"
	"github.com/strategoai/ron-livesync/pkg/util"
)

// FileName is the status document written next to the work file.
const FileName = "livesync.health.json"

// DefaultDebounce bounds how often the status document is rewritten. The
// scheduler publishes on every poll, which can be as often as once a second.
const DefaultDebounce = 2 * time.Second

// Status is the published state snapshot.
type Status struct {
	GameRunning bool      `json:"gameRunning"`
	SyncArmed   bool      `json:"syncArmed"`
	Idle        bool      `json:"idle"`
	Paused      bool      `json:"paused"`
	LastSync    time.Time `json:"lastSync,omitzero"`
	LastError   string    `json:"lastError,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Read loads a previously written status document.
func Read(path string) (Status, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Status{}, fmt.Errorf("could not read status file %s: %w", path, err)
	}
	var s Status
	if err := json.Unmarshal(data, &s); err != nil {
		return Status{}, fmt.Errorf("could not parse status file %s: %w", path, err)
	}
	return s, nil
}

// Writer serializes status writes through a single goroutine. Publishers
// never block and never touch the disk themselves; bursts of updates collapse
// into at most one write per debounce window, always carrying the latest
// snapshot.
type Writer struct {
	path     string
	debounce time.Duration

	updates  chan Status // capacity 1, latest wins
	done     chan struct{}
	finished chan struct{}
	once     sync.Once
}

// NewWriter starts the writer goroutine. Close must be called to flush the
// final state and stop it.
func NewWriter(path string, debounce time.Duration) *Writer {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Writer{
		path:     path,
		debounce: debounce,
		updates:  make(chan Status, 1),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	go w.run()
	return w
}

// Publish hands the writer a new snapshot without blocking. If a previous
// snapshot is still queued it is replaced; only the most recent state matters.
func (w *Writer) Publish(s Status) {
	s.UpdatedAt = time.Now().UTC()
	for {
		select {
		case w.updates <- s:
			return
		default:
			// Queue full: drop the stale snapshot and retry.
			select {
			case <-w.updates:
			default:
			}
		}
	}
}

// Close flushes any pending snapshot and stops the writer goroutine. Safe to
// call more than once.
func (w *Writer) Close() {
	w.once.Do(func() { close(w.done) })
	<-w.finished
}

func (w *Writer) run() {
	defer close(w.finished)

	var pending *Status
	var lastWrite time.Time
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case s := <-w.updates:
			if time.Since(lastWrite) >= w.debounce {
				w.write(s)
				lastWrite = time.Now()
				continue
			}
			pending = &s
			if timerC == nil {
				timer = time.NewTimer(w.debounce - time.Since(lastWrite))
				timerC = timer.C
			}

		case <-timerC:
			timerC = nil
			if pending != nil {
				w.write(*pending)
				lastWrite = time.Now()
				pending = nil
			}

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			// Flush whatever is newest: a queued update wins over pending.
			select {
			case s := <-w.updates:
				pending = &s
			default:
			}
			if pending != nil {
				w.write(*pending)
			}
			return
		}
	}
}

func (w *Writer) write(s Status) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		plog.Warn("could not marshal status document", "error", err)
		return
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(w.path), util.UserWritableDirPerms); err != nil {
		plog.Warn("could not create status directory", "error", err)
		return
	}
	if err := os.WriteFile(w.path, data, util.UserWritableFilePerms); err != nil {
		plog.Warn("could not write status document", "path", w.path, "error", err)
	}
}
