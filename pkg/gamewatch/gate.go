package gamewatch

import (
	"time"

	"github.com/strategoai/ron-livesync/pkg/plog"
)

// DefaultStartDelay is the grace period after the game process first appears
// before synchronization is armed. The game writes its own default config
// files during startup; syncing earlier would race those writes and lose.
const DefaultStartDelay = 10 * time.Second

// Clock provides the current time. Injectable so the grace period can be
// tested against a virtual clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall-clock Clock used in production.
func SystemClock() Clock { return systemClock{} }

// Gate tracks the game's lifecycle across polls and decides, per poll,
// whether in-game synchronization is allowed. It is not safe for concurrent
// use; the scheduler calls it from its serialized poll tick only.
type Gate struct {
	detector   Detector
	clock      Clock
	startDelay time.Duration

	initialProbeDone bool
	running          bool
	startedAt        time.Time // zero while not in the Starting phase
	armed            bool
}

// NewGate creates a gate over the given detector. A zero startDelay selects
// DefaultStartDelay; a nil clock selects the system clock.
func NewGate(detector Detector, clock Clock, startDelay time.Duration) *Gate {
	if clock == nil {
		clock = SystemClock()
	}
	if startDelay <= 0 {
		startDelay = DefaultStartDelay
	}
	return &Gate{detector: detector, clock: clock, startDelay: startDelay}
}

// Check runs one presence probe and advances the state machine. It returns
// true when in-game synchronization is allowed on this poll.
func (g *Gate) Check() bool {
	running := g.detector.IsRunning()

	// First-ever probe: a game that is already up predates our watching, so
	// there is no "just launched" race to guard against. Arm immediately.
	if !g.initialProbeDone {
		g.initialProbeDone = true
		if running {
			g.running = true
			g.armed = true
			plog.Notice("game already running at startup, sync armed immediately")
			return true
		}
	}

	if running && !g.running {
		g.running = true
		g.startedAt = g.clock.Now()
		g.armed = false
		plog.Notice("game started, delaying sync", "delay", g.startDelay)
		return false
	}

	if !running && g.running {
		g.running = false
		g.startedAt = time.Time{}
		g.armed = false
		plog.Notice("game stopped, sync disarmed")
		return false
	}

	if !running {
		return false
	}

	if !g.armed {
		if !g.startedAt.IsZero() && g.clock.Now().Sub(g.startedAt) >= g.startDelay {
			g.armed = true
			plog.Notice("grace delay elapsed, sync armed")
			return true
		}
		return false
	}
	return true
}

// Running reports the last observed presence state.
func (g *Gate) Running() bool { return g.running }

// Armed reports whether sync is armed for the current running episode.
func (g *Gate) Armed() bool { return g.armed }
