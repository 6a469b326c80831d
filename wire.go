package pusher

import (
	"encoding/json"
	"strings"
)

const (
	eventPing                  = "pusher:ping"
	eventPong                  = "pusher:pong"
	eventError                 = "pusher:error"
	eventSubscribe             = "pusher:subscribe"
	eventUnsubscribe           = "pusher:unsubscribe"
	eventConnEstablished       = "pusher:connection_established"
	eventInternalSubSucceeded  = "pusher_internal:subscription_succeeded"
	eventInternalMemberAdded   = "pusher_internal:member_added"
	eventInternalMemberRemoved = "pusher_internal:member_removed"

	reservedUserPrefix         = "pusher:"
	reservedUserInternalPrefix = "pusher_internal:"

	pingPayload = `{"event":"pusher:ping","data":"{}"}`
	pongPayload = `{"event":"pusher:pong","data":"{}"}`
)

// frame is the outer shape of every inbound or outbound wire message.
type frame struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// connectionEstablishedData is the double-encoded payload carried in a
// pusher:connection_established frame's data field.
type connectionEstablishedData struct {
	SocketID        string `json:"socket_id"`
	ActivityTimeout int    `json:"activity_timeout"`
}

// errorData is the payload of a pusher:error frame.
type errorData struct {
	Code    *int   `json:"code"`
	Message string `json:"message"`
}

// subscribeData is the data payload of an outbound pusher:subscribe frame.
type subscribeData struct {
	Channel     string `json:"channel"`
	Auth        string `json:"auth,omitempty"`
	ChannelData string `json:"channel_data,omitempty"`
}

// unsubscribeData is the data payload of an outbound pusher:unsubscribe frame.
type unsubscribeData struct {
	Channel string `json:"channel"`
}

// authTokenResponse is the shape an Authorizer's response JSON must have.
type authTokenResponse struct {
	Auth        string `json:"auth"`
	ChannelData string `json:"channel_data,omitempty"`
}

// presenceSuccessData is the subset of pusher_internal:subscription_succeeded's
// data relevant to presence channels.
type presenceSuccessData struct {
	Presence *presenceHash `json:"presence"`
}

type presenceHash struct {
	IDs   []string                   `json:"ids"`
	Hash  map[string]json.RawMessage `json:"hash"`
	Count int                        `json:"count"`
}

// memberData is the payload of a pusher_internal:member_added or
// pusher_internal:member_removed frame.
type memberData struct {
	UserID   string          `json:"user_id"`
	UserInfo json.RawMessage `json:"user_info,omitempty"`
}

// unmarshalDataString unmarshals a double-encoded JSON string field: data is
// itself a JSON-encoded string, whose contents are the real payload. See
// https://pusher.com/docs/pusher_protocol#double-encoding.
func unmarshalDataString(data json.RawMessage, dest interface{}) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), dest)
}

func encodeFrame(event, channel string, data interface{}) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	f := frame{Event: event, Channel: channel, Data: raw}
	b, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeFrame(text string) (frame, error) {
	var f frame
	err := json.Unmarshal([]byte(text), &f)
	return f, err
}

func isReservedEventName(name string) bool {
	return strings.HasPrefix(name, reservedUserPrefix) || strings.HasPrefix(name, reservedUserInternalPrefix)
}
