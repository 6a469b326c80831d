// Package transport defines the abstract bidirectional text-frame channel
// the connection core is built on, plus a production implementation over
// golang.org/x/net/websocket.
package transport

import "context"

// Socket is a thin bidirectional channel: open, send text frames, close,
// and deliver inbound callbacks. The connection core never touches a raw
// network connection directly; it only ever talks to a Socket.
//
// Implementations must invoke the registered callbacks for the lifetime of
// one Open/Close cycle; they may call them from any goroutine, since the
// core marshals every callback onto its Executor before touching state.
type Socket interface {
	// Open connects the transport. It may block until the handshake has
	// completed; a failure to connect is returned as an error, and a
	// successful open is reported via OnOpen.
	Open(ctx context.Context) error
	// Send writes a single text frame.
	Send(text string) error
	// Close closes the underlying transport. OnClose still fires.
	Close() error

	OnOpen(func())
	OnMessage(func(text string))
	OnClose(func(code int, reason string, remote bool))
	OnError(func(cause error))
}

// Factory produces a new Socket for a given URL. The real factory dials a
// websocket; tests supply one that returns an in-memory fake.
type Factory func(url string) Socket
