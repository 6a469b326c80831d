package pusher

import (
	"context"
	"time"

	"github.com/jokbal/pusher-go/transport"
)

// fakeSocket is a hand-written in-memory transport.Socket, in the style of
// api_dns's fakeStore/fakeDNSProvider: no mocking framework, just a struct
// that records calls and lets the test drive callbacks directly.
type fakeSocket struct {
	opened  bool
	closed  bool
	openErr error
	sendErr error
	sent    []string

	onOpen    func()
	onMessage func(string)
	onClose   func(code int, reason string, remote bool)
	onError   func(error)
}

func (s *fakeSocket) Open(ctx context.Context) error {
	s.opened = true
	if s.openErr != nil {
		return s.openErr
	}
	if s.onOpen != nil {
		s.onOpen()
	}
	return nil
}

func (s *fakeSocket) Send(text string) error {
	s.sent = append(s.sent, text)
	return s.sendErr
}

func (s *fakeSocket) Close() error {
	s.closed = true
	return nil
}

func (s *fakeSocket) OnOpen(fn func())                                      { s.onOpen = fn }
func (s *fakeSocket) OnMessage(fn func(string))                             { s.onMessage = fn }
func (s *fakeSocket) OnClose(fn func(code int, reason string, remote bool)) { s.onClose = fn }
func (s *fakeSocket) OnError(fn func(error))                                { s.onError = fn }

// deliver feeds a raw frame to the socket's registered OnMessage callback,
// simulating an inbound server frame.
func (s *fakeSocket) deliver(text string) {
	if s.onMessage != nil {
		s.onMessage(text)
	}
}

func newFakeSocketFactory(socket *fakeSocket) transport.Factory {
	return func(string) transport.Socket { return socket }
}

// manualTimer is a Timer whose firing is driven entirely by manualClock.Advance.
type manualTimer struct {
	fireAt  time.Time
	fn      func()
	fired   bool
	stopped bool
}

func (t *manualTimer) Stop() bool {
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// manualClock is a Clock driven by explicit Advance calls, so activity/pong
// deadline tests don't depend on wall-clock timing.
type manualClock struct {
	now    time.Time
	timers []*manualTimer
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Unix(0, 0)}
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) AfterFunc(d time.Duration, fn func()) Timer {
	t := &manualTimer{fireAt: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by d, firing (in order) every timer whose
// deadline that crosses.
func (c *manualClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
	for _, t := range c.timers {
		if t.fired || t.stopped {
			continue
		}
		if !t.fireAt.After(c.now) {
			t.fired = true
			t.fn()
		}
	}
}
