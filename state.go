package pusher

// ConnectionState is a value in the connection lifecycle. ALL is a sentinel
// used only as a bind filter; it is never assigned to a ConnectionCore's
// actual state.
type ConnectionState int

const (
	// DISCONNECTED is the initial state and the state reached after a
	// clean close.
	DISCONNECTED ConnectionState = iota
	// CONNECTING is entered on Connect() and left on either a successful
	// handshake or a transport failure.
	CONNECTING
	// CONNECTED is entered once the server's connection_established frame
	// has been received.
	CONNECTED
	// DISCONNECTING is entered on Disconnect() and left once the
	// transport confirms closure.
	DISCONNECTING
	// ALL matches every transition when used as a bind filter.
	ALL
)

func (s ConnectionState) String() string {
	switch s {
	case DISCONNECTED:
		return "DISCONNECTED"
	case CONNECTING:
		return "CONNECTING"
	case CONNECTED:
		return "CONNECTED"
	case DISCONNECTING:
		return "DISCONNECTING"
	case ALL:
		return "ALL"
	default:
		return "UNKNOWN"
	}
}

// ConnectionStateChange is an immutable (previous, current) pair emitted on
// every real transition. No-op re-entry into the same state never produces
// one of these.
type ConnectionStateChange struct {
	Previous ConnectionState
	Current  ConnectionState
}

// ChannelState is a value in a channel's subscription lifecycle.
type ChannelState int

const (
	// ChannelInitial is the state a Channel is created in.
	ChannelInitial ChannelState = iota
	// ChannelSubscribeSent is entered once the subscribe frame has been
	// dispatched to the server.
	ChannelSubscribeSent
	// ChannelSubscribed is entered once the server acknowledges the
	// subscription.
	ChannelSubscribed
	// ChannelUnsubscribed is entered on user request or clean disconnect.
	ChannelUnsubscribed
	// ChannelFailed is entered when channel authorization fails.
	ChannelFailed
)

func (s ChannelState) String() string {
	switch s {
	case ChannelInitial:
		return "INITIAL"
	case ChannelSubscribeSent:
		return "SUBSCRIBE_SENT"
	case ChannelSubscribed:
		return "SUBSCRIBED"
	case ChannelUnsubscribed:
		return "UNSUBSCRIBED"
	case ChannelFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
