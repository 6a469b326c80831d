package pusher

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Authorizer is the pure function (channel_name, socket_id) -> auth_token
// used by private and presence channels. It is invoked synchronously on the
// executor immediately before the subscribe frame is emitted; the core
// treats an Authorizer error as authorization failure.
type Authorizer interface {
	Authorize(channelName, socketID string) (authTokenJSON []byte, err error)
}

// AuthorizerFunc adapts a plain function to the Authorizer interface.
type AuthorizerFunc func(channelName, socketID string) ([]byte, error)

// Authorize calls f.
func (f AuthorizerFunc) Authorize(channelName, socketID string) ([]byte, error) {
	return f(channelName, socketID)
}

// HTTPAuthorizer is the production Authorizer: it POSTs channel_name and
// socket_id to AuthURL along with any AuthParams/AuthHeaders, and returns
// the response body (which must be {auth, channel_data?} JSON) verbatim.
type HTTPAuthorizer struct {
	AuthURL     string
	AuthParams  url.Values
	AuthHeaders http.Header
	Client      *http.Client
}

// NewHTTPAuthorizer returns an HTTPAuthorizer targeting authURL with the
// standard library's default client.
func NewHTTPAuthorizer(authURL string) *HTTPAuthorizer {
	return &HTTPAuthorizer{AuthURL: authURL, Client: http.DefaultClient}
}

// Authorize implements Authorizer.
func (a *HTTPAuthorizer) Authorize(channelName, socketID string) ([]byte, error) {
	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}

	form := url.Values{}
	for k, vs := range a.AuthParams {
		form[k] = vs
	}
	form.Set("channel_name", channelName)
	form.Set("socket_id", socketID)

	req, err := http.NewRequest(http.MethodPost, a.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "build auth request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, vs := range a.AuthHeaders {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "perform auth request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read auth response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("auth endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
