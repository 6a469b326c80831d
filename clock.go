package pusher

import "time"

// Clock is the time source the connection core arms its activity and pong
// timers on, through AfterFunc. It is constructor-injected so tests can
// substitute a fake time source. The core never touches a time.Timer
// directly, only the Timer interface, and each expiry is submitted to the
// Executor as a work item rather than handled on the timer's goroutine.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancellable single-shot alarm.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return realTimer{time.AfterFunc(d, fn)}
}

type realTimer struct{ t *time.Timer }

func (r realTimer) Stop() bool { return r.t.Stop() }
