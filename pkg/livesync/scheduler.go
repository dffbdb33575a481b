package livesync

import "time"

// TickScheduler schedules the next poll. Injected so tests can drive ticks
// deterministically instead of sleeping.
type TickScheduler interface {
	// ScheduleOnce runs fn once after d. The returned cancel reports whether
	// it stopped the call before it ran.
	ScheduleOnce(d time.Duration, fn func()) (cancel func() bool)
}

type timerScheduler struct{}

func (timerScheduler) ScheduleOnce(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

// SystemScheduler returns a scheduler backed by the runtime timer.
func SystemScheduler() TickScheduler {
	return timerScheduler{}
}
