package pusher

import (
	"encoding/json"
	"strings"

	"github.com/jokbal/pusher-go/internal/logging"
)

// ChannelRegistry owns every Channel by name, dispatches inbound events to
// the right one, and drives per-channel subscription state in response to
// connection transitions.
type ChannelRegistry struct {
	core       *connectionCore
	authorizer Authorizer
	log        logging.Logger

	channels map[string]*Channel
	// pending lists the channels whose subscribe frame has not yet been
	// sent, in the order a CONNECTED transition replays them. Channels
	// subscribed while not CONNECTED are appended in the order they were
	// registered; channels re-queued by a DISCONNECTED transition are
	// appended in map iteration order, which is not defined.
	pending []string
}

func newChannelRegistry(core *connectionCore, authorizer Authorizer, log logging.Logger) *ChannelRegistry {
	r := &ChannelRegistry{
		core:       core,
		authorizer: authorizer,
		log:        log,
		channels:   make(map[string]*Channel),
	}
	core.onMessage = r.HandleMessage
	core.onStateChange = func(change ConnectionStateChange) {
		r.HandleConnectionStateChange(change.Previous, change.Current)
	}
	return r
}

// SubscribeTo registers channelName (failing if already present), binds
// listener to the named events (or to the channel as a whole if none are
// given), and either emits the subscribe frame immediately (if CONNECTED)
// or queues it for replay on the next CONNECTED transition.
func (r *ChannelRegistry) SubscribeTo(channelName string, listener *ChannelListener, eventNames ...string) (*Channel, error) {
	if err := validateChannelName(channelName); err != nil {
		return nil, err
	}
	if _, exists := r.channels[channelName]; exists {
		return nil, argErr("already subscribed to channel %q", channelName)
	}

	ch := newChannel(channelName)
	r.channels[channelName] = ch

	if listener != nil {
		if len(eventNames) == 0 {
			ch.addSubscriber(listener)
		} else {
			for _, name := range eventNames {
				if err := ch.Bind(name, listener); err != nil {
					delete(r.channels, channelName)
					return nil, err
				}
			}
		}
	}

	if r.core.GetState() == CONNECTED {
		r.sendSubscribe(ch)
	} else {
		r.pending = append(r.pending, channelName)
	}

	return ch, nil
}

// UnsubscribeFrom removes channelName and emits the unsubscribe frame. The
// connection must be CONNECTED.
func (r *ChannelRegistry) UnsubscribeFrom(channelName string) error {
	if r.core.GetState() != CONNECTED {
		return stateErr("cannot unsubscribe while connection is %s", r.core.GetState())
	}
	ch, ok := r.channels[channelName]
	if !ok {
		return nil
	}
	delete(r.channels, channelName)
	r.removePending(channelName)
	ch.state = ChannelUnsubscribed

	text, err := encodeFrame(eventUnsubscribe, "", unsubscribeData{Channel: channelName})
	if err != nil {
		return err
	}
	r.core.Send(text)
	return nil
}

func (r *ChannelRegistry) removePending(channelName string) {
	for i, name := range r.pending {
		if name == channelName {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return
		}
	}
}

// HandleConnectionStateChange replays every pending subscribe frame, in
// the order of the pending list, once the connection reaches CONNECTED. On
// any transition to DISCONNECTED (a requested disconnect, a remote close or
// a pong timeout), every channel that is not already UNSUBSCRIBED or FAILED
// is moved to UNSUBSCRIBED and re-queued, so a later Connect() resubscribes
// it without the caller having to re-issue Subscribe (no failover/retry
// policy is added; the registry just forgets nothing across one
// connect/disconnect cycle on the same Client, which is a
// connection-lifecycle concern, not a retry policy). The re-queued channels
// are taken from the channel map, so their relative replay order is not
// defined.
func (r *ChannelRegistry) HandleConnectionStateChange(prev, curr ConnectionState) {
	switch curr {
	case CONNECTED:
		pending := r.pending
		r.pending = nil
		for _, name := range pending {
			ch, ok := r.channels[name]
			if !ok {
				continue
			}
			r.sendSubscribe(ch)
		}
	case DISCONNECTED:
		r.pending = r.pending[:0]
		for name, ch := range r.channels {
			if ch.state == ChannelUnsubscribed || ch.state == ChannelFailed {
				continue
			}
			ch.state = ChannelUnsubscribed
			r.pending = append(r.pending, name)
		}
	}
}

// sendSubscribe authorizes (if needed) and emits the subscribe frame,
// transitioning the channel to SUBSCRIBE_SENT, or to FAILED if
// authorization fails.
func (r *ChannelRegistry) sendSubscribe(ch *Channel) {
	data := subscribeData{Channel: ch.name}

	if ch.IsPrivate() {
		socketID, _ := r.core.SocketID()
		token, err := r.authorize(ch, socketID)
		if err != nil {
			ch.handleAuthorizationFailure(err.Error(), err)
			return
		}
		data.Auth = token.Auth
		data.ChannelData = token.ChannelData
		if ch.roster != nil && token.ChannelData != "" {
			var me struct {
				UserID string `json:"user_id"`
			}
			if err := json.Unmarshal([]byte(token.ChannelData), &me); err == nil {
				ch.roster.SetMe(me.UserID)
			}
		}
	}

	text, err := encodeFrame(eventSubscribe, "", data)
	if err != nil {
		if r.log != nil {
			r.log.WithError(err).Warn("pusher: failed to encode subscribe frame")
		}
		return
	}

	ch.state = ChannelSubscribeSent
	r.core.Send(text)
}

func (r *ChannelRegistry) authorize(ch *Channel, socketID string) (authTokenResponse, error) {
	if r.authorizer == nil {
		return authTokenResponse{}, stateErr("no authorizer configured for channel %q", ch.name)
	}
	raw, err := r.authorizer.Authorize(ch.name, socketID)
	if err != nil {
		return authTokenResponse{}, &AuthorizationError{Channel: ch.name, Cause: err}
	}
	var token authTokenResponse
	if err := json.Unmarshal(raw, &token); err != nil {
		return authTokenResponse{}, &AuthorizationError{Channel: ch.name, Cause: err}
	}
	return token, nil
}

// HandleMessage routes an internal or user frame to the channel named by
// f.Channel, silently dropping frames naming an unknown channel.
func (r *ChannelRegistry) HandleMessage(f frame) {
	ch, ok := r.channels[f.Channel]
	if !ok {
		return
	}

	switch f.Event {
	case eventInternalSubSucceeded:
		ch.handleSubscriptionSucceeded(f.Data)
	case eventInternalMemberAdded:
		var m memberData
		if err := json.Unmarshal(f.Data, &m); err == nil {
			ch.handleMemberAdded(m.UserID, m.UserInfo)
		}
	case eventInternalMemberRemoved:
		var m memberData
		if err := json.Unmarshal(f.Data, &m); err == nil {
			ch.handleMemberRemoved(m.UserID)
		}
	default:
		ch.dispatchUserEvent(f.Event, f.Data)
	}
}

func validateChannelName(name string) error {
	if name == "" {
		return argErr("channel name must not be empty")
	}
	return nil
}

func validatePublicChannelName(name string) error {
	if err := validateChannelName(name); err != nil {
		return err
	}
	if strings.HasPrefix(name, "private-") || strings.HasPrefix(name, "presence-") {
		return argErr("channel %q must be subscribed with SubscribePrivate/SubscribePresence", name)
	}
	return nil
}

func validatePrivateChannelName(name string) error {
	if err := validateChannelName(name); err != nil {
		return err
	}
	if !strings.HasPrefix(name, "private-") {
		return argErr("private channel name %q must start with \"private-\"", name)
	}
	return nil
}

func validatePresenceChannelName(name string) error {
	if err := validateChannelName(name); err != nil {
		return err
	}
	if !strings.HasPrefix(name, "presence-") {
		return argErr("presence channel name %q must start with \"presence-\"", name)
	}
	return nil
}
