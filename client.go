// Package pusher is a client library for a hosted publish/subscribe
// realtime messaging service: a connection state machine feeding a channel
// multiplexer, with a private/presence authorization handshake layered on
// top. See SPEC_FULL.md for the full design.
package pusher

import (
	"github.com/jokbal/pusher-go/internal/logging"
	"github.com/jokbal/pusher-go/transport"
)

// Client is the single entry point: it wires the connection core and the
// channel registry together and validates arguments. It contains no
// protocol logic of its own.
type Client struct {
	apiKey   string
	options  PusherOptions
	executor Executor
	core     *connectionCore
	registry *ChannelRegistry
	log      logging.Logger
}

// New constructs a Client for apiKey using options. apiKey must be
// non-empty and options must be non-nil.
func New(apiKey string, options *PusherOptions) (*Client, error) {
	if apiKey == "" {
		return nil, argErr("api key must not be empty")
	}
	if options == nil {
		return nil, argErr("options must not be nil")
	}

	url := transport.ResolveURL(apiKey, transport.URLOptions{
		Cluster:   options.Cluster,
		Host:      options.Host,
		WsPort:    options.WsPort,
		WssPort:   options.WssPort,
		Encrypted: options.Encrypted,
	})

	return newClientWithDeps(apiKey, options, NewGoroutineExecutor(), func(string) transport.Socket {
		return transport.NewWebsocketSocket(url)
	}, url, realClock{}, logging.Default)
}

func newClientWithDeps(apiKey string, options *PusherOptions, executor Executor, factory transport.Factory, url string, clock Clock, log logging.Logger) (*Client, error) {
	core := newConnectionCore(executor, factory, url, clock, log)
	registry := newChannelRegistry(core, options.Authorizer, log)

	return &Client{
		apiKey:   apiKey,
		options:  *options,
		executor: executor,
		core:     core,
		registry: registry,
		log:      log,
	}, nil
}

// runSync submits fn to the executor and blocks until it completes,
// returning its error. Every public method that must return an
// ArgumentError or StateError that depends on shared state (the channel
// map, the connection state) goes through this, so that state stays
// exclusively owned by the executor. See Executor.SubmitAndWait for what
// happens if this is called from within a listener callback.
func (c *Client) runSync(fn func() error) error {
	return c.executor.SubmitAndWait(fn)
}

// Connect binds listener (optionally filtered to states) and opens the
// connection. If states is non-empty, listener must be non-nil.
func (c *Client) Connect(listener *ConnectionListener, states ...ConnectionState) error {
	if listener == nil && len(states) > 0 {
		return argErr("states given without a listener")
	}
	return c.runSync(func() error {
		if listener != nil {
			if len(states) == 0 {
				c.core.Bind(ALL, listener)
			} else {
				for _, s := range states {
					c.core.Bind(s, listener)
				}
			}
		}
		c.core.Connect()
		return nil
	})
}

// Disconnect closes the connection. See connectionCore.Disconnect for the
// no-op cases.
func (c *Client) Disconnect() error {
	return c.runSync(func() error {
		c.core.Disconnect()
		return nil
	})
}

// GetState returns the current connection state. Called from within a
// listener callback it returns the zero value (DISCONNECTED) instead of
// blocking; read the state off the callback's own parameters in that case.
func (c *Client) GetState() ConnectionState {
	var state ConnectionState
	_ = c.executor.SubmitAndWait(func() error {
		state = c.core.GetState()
		return nil
	})
	return state
}

// GetSocketID returns the cached socket id, and whether one has been set.
// Called from within a listener callback it returns ("", false) instead of
// blocking; see GetState.
func (c *Client) GetSocketID() (string, bool) {
	var id string
	var ok bool
	_ = c.executor.SubmitAndWait(func() error {
		id, ok = c.core.SocketID()
		return nil
	})
	return id, ok
}

// Subscribe subscribes to a public channel. name must not start with
// "private-" or "presence-".
func (c *Client) Subscribe(name string, listener *ChannelListener, events ...string) (*Channel, error) {
	if err := validatePublicChannelName(name); err != nil {
		return nil, err
	}
	var ch *Channel
	err := c.runSync(func() error {
		var err error
		ch, err = c.registry.SubscribeTo(name, listener, events...)
		return err
	})
	return ch, err
}

// SubscribePrivate subscribes to a private channel. An Authorizer must be
// configured.
func (c *Client) SubscribePrivate(name string, listener *ChannelListener, events ...string) (*Channel, error) {
	if err := validatePrivateChannelName(name); err != nil {
		return nil, err
	}
	if c.options.Authorizer == nil {
		return nil, stateErr("no authorizer configured")
	}
	var ch *Channel
	err := c.runSync(func() error {
		var err error
		ch, err = c.registry.SubscribeTo(name, listener, events...)
		return err
	})
	return ch, err
}

// SubscribePresence subscribes to a presence channel. An Authorizer must be
// configured.
func (c *Client) SubscribePresence(name string, listener *ChannelListener, events ...string) (*Channel, error) {
	if err := validatePresenceChannelName(name); err != nil {
		return nil, err
	}
	if c.options.Authorizer == nil {
		return nil, stateErr("no authorizer configured")
	}
	var ch *Channel
	err := c.runSync(func() error {
		var err error
		ch, err = c.registry.SubscribeTo(name, listener, events...)
		return err
	})
	return ch, err
}

// Unsubscribe unsubscribes from name. The connection must be CONNECTED.
func (c *Client) Unsubscribe(name string) error {
	return c.runSync(func() error {
		return c.registry.UnsubscribeFrom(name)
	})
}
