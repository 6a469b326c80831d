package transport

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/net/websocket"
)

const (
	localOrigin = "http://localhost/"

	connURLFormat     = "%s://%s:%d/app/%s?protocol=%s&client=pusher-go&version=1.0"
	secureScheme      = "wss"
	securePort        = 443
	insecureScheme    = "ws"
	insecurePort      = 80
	defaultHost       = "ws.pusherapp.com"
	clusterHostFormat = "ws-%s.pusher.com"
	protocolVersion   = "7"
)

// URLOptions controls how ResolveURL builds the connection URL.
type URLOptions struct {
	Cluster   string
	Host      string
	WsPort    int
	WssPort   int
	Encrypted bool
}

// ResolveURL builds the websocket URL for the given app key: an explicit
// Host/port override wins, otherwise Cluster selects a
// ws-<cluster>.pusher.com host, otherwise the default Pusher host is used;
// Encrypted selects the wss/443 defaults.
func ResolveURL(appKey string, opts URLOptions) string {
	scheme, port := insecureScheme, insecurePort
	if opts.Encrypted {
		scheme, port = secureScheme, securePort
	}
	if opts.Encrypted && opts.WssPort != 0 {
		port = opts.WssPort
	}
	if !opts.Encrypted && opts.WsPort != 0 {
		port = opts.WsPort
	}

	host := defaultHost
	if opts.Cluster != "" {
		host = fmt.Sprintf(clusterHostFormat, opts.Cluster)
	}
	if opts.Host != "" {
		host = opts.Host
	}

	return fmt.Sprintf(connURLFormat, scheme, host, port, appKey, protocolVersion)
}

// WebsocketSocket is the production Socket, built on golang.org/x/net/websocket.
type WebsocketSocket struct {
	url string

	mu   sync.Mutex
	conn *websocket.Conn

	onOpen    func()
	onMessage func(string)
	onClose   func(code int, reason string, remote bool)
	onError   func(error)
}

// NewWebsocketSocket returns a WebsocketSocket targeting url. Its signature
// matches Factory, so it can be used as one directly.
func NewWebsocketSocket(url string) Socket {
	return &WebsocketSocket{url: url}
}

func (s *WebsocketSocket) OnOpen(fn func())                                      { s.onOpen = fn }
func (s *WebsocketSocket) OnMessage(fn func(string))                             { s.onMessage = fn }
func (s *WebsocketSocket) OnClose(fn func(code int, reason string, remote bool)) { s.onClose = fn }
func (s *WebsocketSocket) OnError(fn func(error))                                { s.onError = fn }

// Open dials the websocket and starts a read loop on its own goroutine. The
// read loop delivers frames via OnMessage until the connection is closed,
// then delivers exactly one OnClose.
func (s *WebsocketSocket) Open(ctx context.Context) error {
	conn, err := websocket.Dial(s.url, "", localOrigin)
	if err != nil {
		return errors.Wrap(err, "dial websocket")
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	if s.onOpen != nil {
		s.onOpen()
	}

	go s.readLoop(conn)
	return nil
}

func (s *WebsocketSocket) readLoop(conn *websocket.Conn) {
	for {
		var msg string
		err := websocket.Message.Receive(conn, &msg)
		if err != nil {
			remote := !s.isClosedLocally()
			if err == io.EOF || !remote {
				if s.onClose != nil {
					s.onClose(1000, "", remote)
				}
				return
			}
			if s.onError != nil {
				s.onError(errors.Wrap(err, "receive websocket frame"))
			}
			if s.onClose != nil {
				s.onClose(1006, err.Error(), true)
			}
			return
		}
		if s.onMessage != nil {
			s.onMessage(msg)
		}
	}
}

func (s *WebsocketSocket) isClosedLocally() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn == nil
}

// Send writes a single text frame to the websocket.
func (s *WebsocketSocket) Send(text string) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return errors.New("send on closed socket")
	}
	if err := websocket.Message.Send(conn, text); err != nil {
		return errors.Wrap(err, "send websocket frame")
	}
	return nil
}

// Close closes the underlying connection. The read loop still delivers a
// final OnClose(remote=false).
func (s *WebsocketSocket) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
