package pusher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jokbal/pusher-go/internal/logging"
	"github.com/jokbal/pusher-go/transport"
)

const (
	defaultActivityTimeout = 120 * time.Second
	defaultPongTimeout     = 30 * time.Second
)

// ConnectionListener carries the optional callback slots a caller can bind
// to a ConnectionCore. Only the slots that are set are ever invoked.
//
// Callbacks run synchronously on the executor. A callback must not call
// back into a Client method that blocks waiting on the executor (Connect,
// Disconnect, Subscribe/SubscribePrivate/SubscribePresence, Unsubscribe,
// GetState, GetSocketID) — see Executor.SubmitAndWait.
type ConnectionListener struct {
	// OnStateChange is invoked once per real transition, for every
	// listener bound under the transition's current state or under ALL.
	OnStateChange func(change ConnectionStateChange)
	// OnError is invoked for server errors, transport errors and send
	// errors. Only listeners bound under ALL ever receive it.
	OnError func(message string, code *string, cause error)
}

type connectionListenerSet map[*ConnectionListener]struct{}

// connectionCore owns the state machine, the heartbeat/activity timers, the
// socket id, and the bound connection listeners. It assumes every method is
// invoked already on the shared Executor — it holds no lock of its own.
type connectionCore struct {
	executor      Executor
	socketFactory transport.Factory
	url           string
	clock         Clock
	log           logging.Logger

	state    ConnectionState
	socketID string
	socket   transport.Socket

	bindings map[ConnectionState]connectionListenerSet

	activityTimeout time.Duration
	pongTimeout     time.Duration
	activityTimer   Timer
	pongTimer       Timer

	// onStateChange and onMessage let the channel registry observe
	// transitions and routed frames without being a bindable listener
	// itself.
	onStateChange func(change ConnectionStateChange)
	onMessage     func(f frame)
}

func newConnectionCore(executor Executor, factory transport.Factory, url string, clock Clock, log logging.Logger) *connectionCore {
	if clock == nil {
		clock = realClock{}
	}
	return &connectionCore{
		executor:        executor,
		socketFactory:   factory,
		url:             url,
		clock:           clock,
		log:             log,
		state:           DISCONNECTED,
		bindings:        make(map[ConnectionState]connectionListenerSet),
		activityTimeout: defaultActivityTimeout,
		pongTimeout:     defaultPongTimeout,
	}
}

// Bind registers l under filter (a specific ConnectionState or ALL).
func (c *connectionCore) Bind(filter ConnectionState, l *ConnectionListener) {
	set := c.bindings[filter]
	if set == nil {
		set = connectionListenerSet{}
		c.bindings[filter] = set
	}
	set[l] = struct{}{}
}

// Unbind removes l from filter and reports whether it was present.
func (c *connectionCore) Unbind(filter ConnectionState, l *ConnectionListener) bool {
	set := c.bindings[filter]
	if set == nil {
		return false
	}
	if _, ok := set[l]; !ok {
		return false
	}
	delete(set, l)
	return true
}

// GetState returns the current connection state.
func (c *connectionCore) GetState() ConnectionState { return c.state }

// SocketID returns the cached socket id, and whether one has been set.
func (c *connectionCore) SocketID() (string, bool) {
	if c.socketID == "" {
		return "", false
	}
	return c.socketID, true
}

// Connect transitions DISCONNECTED -> CONNECTING and opens the socket. A
// call in any other state is a silent no-op.
func (c *connectionCore) Connect() {
	if c.state != DISCONNECTED {
		return
	}

	socket := c.socketFactory(c.url)
	c.socket = socket
	socket.OnOpen(c.wrapCallback(c.handleOpen))
	socket.OnMessage(func(text string) {
		c.executor.Submit(func() { c.handleMessage(text) })
	})
	socket.OnClose(func(code int, reason string, remote bool) {
		c.executor.Submit(func() { c.handleClose(code, reason, remote) })
	})
	socket.OnError(func(cause error) {
		c.executor.Submit(func() { c.handleTransportError(cause) })
	})

	c.transition(CONNECTING)

	if err := socket.Open(context.Background()); err != nil {
		c.emitError("An exception was thrown by the websocket", nil, &TransportError{Cause: err})
		c.handleClose(0, err.Error(), true)
	}
}

func (c *connectionCore) wrapCallback(fn func()) func() {
	return func() { c.executor.Submit(fn) }
}

func (c *connectionCore) handleOpen() {
	if c.log != nil {
		c.log.Debug("pusher: transport opened, awaiting connection_established")
	}
}

// Disconnect transitions CONNECTED -> DISCONNECTING and closes the socket. A
// call in any other state is a silent no-op.
func (c *connectionCore) Disconnect() {
	if c.state != CONNECTED {
		return
	}
	c.transition(DISCONNECTING)
	if c.socket != nil {
		c.socket.Close()
	}
}

// Send forwards text to the socket while CONNECTED; otherwise it reports an
// error to ALL-bound listeners and changes nothing.
func (c *connectionCore) Send(text string) {
	if c.state != CONNECTED {
		c.emitError(fmt.Sprintf("Cannot send a message while in %s state", c.state), nil, nil)
		return
	}
	if err := c.socket.Send(text); err != nil {
		c.emitError(fmt.Sprintf("An exception occurred while sending message [%s]", text), nil, &SendError{Message: text, Cause: err})
	}
}

func (c *connectionCore) handleMessage(text string) {
	f, err := decodeFrame(text)
	if err != nil {
		if c.log != nil {
			c.log.WithError(err).Warn("pusher: dropping malformed frame")
		}
		return
	}

	if c.state == CONNECTED {
		c.resetActivityTimer()
		c.clearPongDeadline()
	}

	switch f.Event {
	case eventConnEstablished:
		c.handleConnectionEstablished(f)
	case eventError:
		var ed errorData
		_ = json.Unmarshal(f.Data, &ed)
		c.emitError(ed.Message, codePtr(ed.Code), nil)
	case eventPong:
		// activity/pong already reset above.
	case eventInternalSubSucceeded, eventInternalMemberAdded, eventInternalMemberRemoved:
		if c.onMessage != nil {
			c.onMessage(f)
		}
	default:
		if f.Channel != "" && c.onMessage != nil {
			c.onMessage(f)
		}
	}
}

func (c *connectionCore) handleConnectionEstablished(f frame) {
	if c.state == CONNECTED {
		c.emitError("received connection_established while already connected", nil, nil)
		return
	}
	if c.state != CONNECTING {
		return
	}

	var data connectionEstablishedData
	if err := unmarshalDataString(f.Data, &data); err != nil {
		if c.log != nil {
			c.log.WithError(err).Warn("pusher: malformed connection_established payload")
		}
		return
	}

	c.socketID = data.SocketID
	if data.ActivityTimeout > 0 {
		c.activityTimeout = time.Duration(data.ActivityTimeout) * time.Second
	}

	c.transition(CONNECTED)
	c.resetActivityTimer()
}

func (c *connectionCore) handleClose(code int, reason string, remote bool) {
	if c.state == DISCONNECTED {
		return
	}
	c.stopTimers()
	c.socketID = ""
	c.transition(DISCONNECTED)
}

func (c *connectionCore) handleTransportError(cause error) {
	c.emitError("An exception was thrown by the websocket", nil, &TransportError{Cause: cause})
}

func (c *connectionCore) resetActivityTimer() {
	if c.activityTimer != nil {
		c.activityTimer.Stop()
	}
	c.activityTimer = c.clock.AfterFunc(c.activityTimeout, func() {
		c.executor.Submit(c.onActivityTimeout)
	})
}

func (c *connectionCore) clearPongDeadline() {
	if c.pongTimer != nil {
		c.pongTimer.Stop()
		c.pongTimer = nil
	}
}

func (c *connectionCore) stopTimers() {
	if c.activityTimer != nil {
		c.activityTimer.Stop()
		c.activityTimer = nil
	}
	c.clearPongDeadline()
}

func (c *connectionCore) onActivityTimeout() {
	if c.state != CONNECTED {
		return
	}
	if c.socket != nil {
		_ = c.socket.Send(pingPayload)
	}
	c.pongTimer = c.clock.AfterFunc(c.pongTimeout, func() {
		c.executor.Submit(c.onPongTimeout)
	})
}

func (c *connectionCore) onPongTimeout() {
	if c.state != CONNECTED {
		return
	}
	if c.socket != nil {
		c.socket.Close()
	}
	c.stopTimers()
	c.socketID = ""
	c.transition(DISCONNECTED)
}

// transition moves to next and notifies bound listeners, unless next equals
// the current state (a no-op transition is suppressed entirely).
func (c *connectionCore) transition(next ConnectionState) {
	prev := c.state
	if prev == next {
		return
	}
	c.state = next
	change := ConnectionStateChange{Previous: prev, Current: next}

	notified := connectionListenerSet{}
	for l := range c.bindings[next] {
		notified[l] = struct{}{}
	}
	for l := range c.bindings[ALL] {
		notified[l] = struct{}{}
	}
	for l := range notified {
		if l.OnStateChange != nil {
			l.OnStateChange(change)
		}
	}

	if c.onStateChange != nil {
		c.onStateChange(change)
	}
}

func (c *connectionCore) emitError(message string, code *string, cause error) {
	for l := range c.bindings[ALL] {
		if l.OnError != nil {
			l.OnError(message, code, cause)
		}
	}
}

func codePtr(code *int) *string {
	if code == nil {
		return nil
	}
	s := fmt.Sprintf("%d", *code)
	return &s
}
