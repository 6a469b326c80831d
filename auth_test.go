package pusher

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPAuthorizerPostsChannelAndSocketID(t *testing.T) {
	var gotForm url.Values
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.Form
		gotHeader = r.Header.Get("X-Custom")
		w.Write([]byte(`{"auth":"key:signature"}`))
	}))
	defer server.Close()

	authorizer := NewHTTPAuthorizer(server.URL)
	authorizer.AuthHeaders = http.Header{"X-Custom": []string{"yes"}}

	body, err := authorizer.Authorize("private-chat", "21112.816204")

	require.NoError(t, err)
	require.JSONEq(t, `{"auth":"key:signature"}`, string(body))
	require.Equal(t, "private-chat", gotForm.Get("channel_name"))
	require.Equal(t, "21112.816204", gotForm.Get("socket_id"))
	require.Equal(t, "yes", gotHeader)
}

func TestHTTPAuthorizerSendsExtraAuthParams(t *testing.T) {
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.Form
		w.Write([]byte(`{"auth":"key:signature"}`))
	}))
	defer server.Close()

	authorizer := NewHTTPAuthorizer(server.URL)
	authorizer.AuthParams = url.Values{"user_id": []string{"42"}}

	_, err := authorizer.Authorize("presence-lobby", "1.1")

	require.NoError(t, err)
	require.Equal(t, "42", gotForm.Get("user_id"))
}

func TestHTTPAuthorizerNonSuccessStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("forbidden"))
	}))
	defer server.Close()

	_, err := NewHTTPAuthorizer(server.URL).Authorize("private-chat", "1.1")

	require.Error(t, err)
}

func TestHTTPAuthorizerUnreachableServerIsError(t *testing.T) {
	authorizer := NewHTTPAuthorizer("http://127.0.0.1:1")

	_, err := authorizer.Authorize("private-chat", "1.1")

	require.Error(t, err)
}

func TestAuthorizerFuncAdapter(t *testing.T) {
	var gotChannel, gotSocket string
	fn := AuthorizerFunc(func(channelName, socketID string) ([]byte, error) {
		gotChannel, gotSocket = channelName, socketID
		return []byte(`{"auth":"x"}`), nil
	})

	body, err := fn.Authorize("private-chat", "1.1")

	require.NoError(t, err)
	require.Equal(t, "private-chat", gotChannel)
	require.Equal(t, "1.1", gotSocket)
	require.Equal(t, []byte(`{"auth":"x"}`), body)
}
