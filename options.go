package pusher

// PusherOptions configures a Client: a flat struct, no nested sub-configs,
// no functional options, every field a plain value the caller sets
// directly.
type PusherOptions struct {
	// Authorizer is required for SubscribePrivate/SubscribePresence; nil
	// is fine for public-channel-only use.
	Authorizer Authorizer
	// Cluster selects the ws-<cluster>.pusher.com host when Host is unset.
	Cluster string
	// Host overrides the resolved host entirely.
	Host string
	// WsPort/WssPort override the default 80/443 ports.
	WsPort  int
	WssPort int
	// Encrypted selects wss:// and the 443 default port over ws:///80.
	Encrypted bool
}
