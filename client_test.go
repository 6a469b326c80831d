package pusher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, socket *fakeSocket, authorizer Authorizer) *Client {
	t.Helper()
	client, err := newClientWithDeps(
		"test-key",
		&PusherOptions{Authorizer: authorizer},
		NewInlineExecutor(),
		newFakeSocketFactory(socket),
		"ws://example.test",
		newManualClock(),
		nil,
	)
	require.NoError(t, err)
	return client
}

func TestNewRejectsEmptyAPIKey(t *testing.T) {
	_, err := New("", &PusherOptions{})
	require.Error(t, err)
	require.IsType(t, &ArgumentError{}, err)
}

func TestNewRejectsNilOptions(t *testing.T) {
	_, err := New("a-key", nil)
	require.Error(t, err)
	require.IsType(t, &ArgumentError{}, err)
}

func TestConnectRejectsStatesWithoutListener(t *testing.T) {
	client := newTestClient(t, &fakeSocket{}, nil)

	err := client.Connect(nil, CONNECTED)

	require.Error(t, err)
	require.IsType(t, &ArgumentError{}, err)
}

func TestConnectWithNoArgumentsOpensTransport(t *testing.T) {
	socket := &fakeSocket{}
	client := newTestClient(t, socket, nil)

	err := client.Connect(nil)

	require.NoError(t, err)
	require.True(t, socket.opened)
	require.Equal(t, CONNECTING, client.GetState())
}

func TestConnectFiltersByGivenStates(t *testing.T) {
	socket := &fakeSocket{}
	client := newTestClient(t, socket, nil)
	var seen []ConnectionState
	listener := &ConnectionListener{OnStateChange: func(c ConnectionStateChange) { seen = append(seen, c.Current) }}

	require.NoError(t, client.Connect(listener, CONNECTED))
	socket.deliver(`{"event":"pusher:connection_established","data":"{\"socket_id\":\"1.1\"}"}`)

	require.Equal(t, []ConnectionState{CONNECTED}, seen)
}

func TestSubscribePrivateWithoutAuthorizerIsStateError(t *testing.T) {
	client := newTestClient(t, &fakeSocket{}, nil)

	_, err := client.SubscribePrivate("private-chat", nil)

	require.Error(t, err)
	require.IsType(t, &StateError{}, err)
}

func TestSubscribePresenceWithoutAuthorizerIsStateError(t *testing.T) {
	client := newTestClient(t, &fakeSocket{}, nil)

	_, err := client.SubscribePresence("presence-lobby", nil)

	require.Error(t, err)
	require.IsType(t, &StateError{}, err)
}

func TestSubscribeRejectsWrongPrefix(t *testing.T) {
	client := newTestClient(t, &fakeSocket{}, nil)

	_, err := client.Subscribe("private-chat", nil)
	require.Error(t, err)

	_, err = client.SubscribePrivate("my-channel", nil)
	require.Error(t, err)

	_, err = client.SubscribePresence("my-channel", nil)
	require.Error(t, err)
}

func TestUnsubscribeWhileNotConnectedIsStateError(t *testing.T) {
	client := newTestClient(t, &fakeSocket{}, nil)

	err := client.Unsubscribe("my-channel")

	require.Error(t, err)
	require.IsType(t, &StateError{}, err)
}

func TestGetSocketIDBeforeConnectionEstablished(t *testing.T) {
	client := newTestClient(t, &fakeSocket{}, nil)

	_, ok := client.GetSocketID()
	require.False(t, ok)
}

func TestSubscribePublicRoundTrip(t *testing.T) {
	socket := &fakeSocket{}
	client := newTestClient(t, socket, nil)
	require.NoError(t, client.Connect(nil))
	socket.deliver(`{"event":"pusher:connection_established","data":"{\"socket_id\":\"1.1\"}"}`)

	var succeeded bool
	listener := &ChannelListener{OnSubscriptionSucceeded: func(string) { succeeded = true }}
	ch, err := client.Subscribe("my-channel", listener)
	require.NoError(t, err)

	socket.deliver(`{"event":"pusher_internal:subscription_succeeded","channel":"my-channel","data":"{}"}`)

	require.True(t, succeeded)
	require.Equal(t, ChannelSubscribed, ch.State())
}
