package pusher

import (
	"encoding/json"
	"strings"
)

type channelKind int

const (
	kindPublic channelKind = iota
	kindPrivate
	kindPresence
)

// ChannelListener carries the optional callback slots a caller can bind to a
// Channel. Only the slots that are set are ever invoked, so one struct type
// covers public, private, and presence channels without a listener class
// hierarchy.
//
// Callbacks run synchronously on the executor; see ConnectionListener's doc
// comment for the constraint that places on calling back into Client.
type ChannelListener struct {
	// OnSubscriptionSucceeded fires once, when the server acknowledges
	// the subscription.
	OnSubscriptionSucceeded func(channelName string)
	// OnAuthenticationFailure fires for private/presence channels whose
	// authorizer call failed.
	OnAuthenticationFailure func(message string, cause error)
	// OnUsersInformationReceived fires once for presence channels, with
	// the roster snapshot carried by subscription_succeeded.
	OnUsersInformationReceived func(roster *MemberRoster)
	// OnUserAdded/OnUserRemoved fire for presence membership deltas.
	OnUserAdded   func(userID string, userInfo []byte)
	OnUserRemoved func(userID string)
	// OnEvent fires for any bound, non-reserved event name.
	OnEvent func(eventName string, data []byte)
}

type eventListenerSet map[*ChannelListener]struct{}

// Channel is a named subscription context: public, private, or presence.
// All three variants share the event-name binding table; private and
// presence add an authorization step, and presence additionally maintains a
// MemberRoster.
type Channel struct {
	name  string
	kind  channelKind
	state ChannelState

	authToken string // set once authorization succeeds, for private/presence

	bindings    map[string]eventListenerSet
	subscribers eventListenerSet
	roster      *MemberRoster
}

func newChannel(name string) *Channel {
	kind := kindPublic
	switch {
	case strings.HasPrefix(name, "private-"):
		kind = kindPrivate
	case strings.HasPrefix(name, "presence-"):
		kind = kindPresence
	}
	ch := &Channel{
		name:        name,
		kind:        kind,
		state:       ChannelInitial,
		bindings:    make(map[string]eventListenerSet),
		subscribers: make(eventListenerSet),
	}
	if kind == kindPresence {
		ch.roster = newMemberRoster()
	}
	return ch
}

// Name returns the channel's name.
func (c *Channel) Name() string { return c.name }

// State returns the channel's current subscription state.
func (c *Channel) State() ChannelState { return c.state }

// IsPrivate reports whether this channel requires authorization (private or
// presence).
func (c *Channel) IsPrivate() bool { return c.kind == kindPrivate || c.kind == kindPresence }

// IsPresence reports whether this channel carries a member roster.
func (c *Channel) IsPresence() bool { return c.kind == kindPresence }

// Members returns the channel's roster, or nil for non-presence channels.
func (c *Channel) Members() *MemberRoster { return c.roster }

// Bind registers listener for event_name. Reserved prefixes (pusher: and
// pusher_internal:) cannot be bound by user code.
func (c *Channel) Bind(eventName string, l *ChannelListener) error {
	if isReservedEventName(eventName) {
		return argErr("cannot bind reserved event name %q", eventName)
	}
	set := c.bindings[eventName]
	if set == nil {
		set = eventListenerSet{}
		c.bindings[eventName] = set
	}
	set[l] = struct{}{}
	c.addSubscriber(l)
	return nil
}

// addSubscriber registers l as a listener of this channel as a whole, so it
// still receives subscription-succeeded/authentication-failure/roster
// callbacks even if it was bound to a specific event name rather than the
// channel as a whole.
func (c *Channel) addSubscriber(l *ChannelListener) {
	if l == nil {
		return
	}
	c.subscribers[l] = struct{}{}
}

// Unbind removes listener from event_name's binding, reporting whether it
// was present.
func (c *Channel) Unbind(eventName string, l *ChannelListener) bool {
	set := c.bindings[eventName]
	if set == nil {
		return false
	}
	if _, ok := set[l]; !ok {
		return false
	}
	delete(set, l)
	return true
}

// dispatchUserEvent invokes every listener bound to eventName with the raw
// data payload.
func (c *Channel) dispatchUserEvent(eventName string, data []byte) {
	for l := range c.bindings[eventName] {
		if l.OnEvent != nil {
			l.OnEvent(eventName, data)
		}
	}
}

// handleSubscriptionSucceeded transitions SUBSCRIBE_SENT -> SUBSCRIBED and
// notifies every subscriber; presence channels additionally replace the
// roster atomically and fire OnUsersInformationReceived.
func (c *Channel) handleSubscriptionSucceeded(data []byte) {
	c.state = ChannelSubscribed

	if c.kind == kindPresence {
		var payload presenceSuccessData
		if err := json.Unmarshal(data, &payload); err == nil && payload.Presence != nil {
			c.roster.replace(payload.Presence)
		}
	}

	for l := range c.subscribers {
		if l.OnSubscriptionSucceeded != nil {
			l.OnSubscriptionSucceeded(c.name)
		}
	}
	if c.kind == kindPresence {
		for l := range c.subscribers {
			if l.OnUsersInformationReceived != nil {
				l.OnUsersInformationReceived(c.roster)
			}
		}
	}
}

// handleMemberAdded inserts userID into the roster (overwriting a duplicate)
// and fires OnUserAdded.
func (c *Channel) handleMemberAdded(userID string, userInfo []byte) {
	if c.roster == nil {
		return
	}
	c.roster.add(userID, userInfo)
	for l := range c.subscribers {
		if l.OnUserAdded != nil {
			l.OnUserAdded(userID, userInfo)
		}
	}
}

// handleMemberRemoved removes userID from the roster, silently ignoring an
// absent id, and fires OnUserRemoved.
func (c *Channel) handleMemberRemoved(userID string) {
	if c.roster == nil {
		return
	}
	if !c.roster.remove(userID) {
		return
	}
	for l := range c.subscribers {
		if l.OnUserRemoved != nil {
			l.OnUserRemoved(userID)
		}
	}
}

// handleAuthorizationFailure transitions the channel to FAILED and notifies
// every subscriber that implements the authentication-failure slot.
func (c *Channel) handleAuthorizationFailure(message string, cause error) {
	c.state = ChannelFailed
	for l := range c.subscribers {
		if l.OnAuthenticationFailure != nil {
			l.OnAuthenticationFailure(message, cause)
		}
	}
}
