// Package client is a Go client for eventcal's REST API. It keeps the
// session cookie between calls, so one Client is one browser session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/http/cookiejar"

	"github.com/bob-jr-kab/eventcal/errors"
)

// Client provides a client to eventcal's REST API.
//
// Don't construct a Client directly. Use New() instead.
type Client struct {
	// HTTP is the underlying HTTP client used send requests. Its cookie jar
	// carries the session.
	HTTP *http.Client
	// BaseURL is the HTTP endpoint for the REST API. Can be overridden for
	// tests. It defaults to http://localhost:8080
	BaseURL string
	// JWT, when set, authenticates every request with a Firebase ID token
	// instead of the session cookie.
	JWT string

	Auth     *AuthClient
	Session  *SessionClient
	Calendar *CalendarClient
	Events   *EventsClient
	Users    *UsersClient
}

// New constructs a new Client
func New(jwt string) *Client {
	jar, _ := cookiejar.New(nil) // never fails without options

	client := &Client{
		HTTP:    &http.Client{Jar: jar},
		BaseURL: "http://localhost:8080",
		JWT:     jwt,
	}

	client.Auth = &AuthClient{client}
	client.Session = &SessionClient{client}
	client.Calendar = &CalendarClient{client}
	client.Events = &EventsClient{client}
	client.Users = &UsersClient{client}

	return client
}

func (c Client) do(ctx context.Context, method, path string, req interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if req != nil {
		reqJS, err := json.Marshal(req)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(reqJS)
	}

	r, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	r = r.WithContext(ctx)

	if req != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if c.JWT != "" {
		r.Header.Set("Authorization", "Bearer "+c.JWT)
	}

	w, err := c.HTTP.Do(r)
	if err != nil {
		return nil, errors.E(errors.Unavailable, err)
	}

	if status := w.StatusCode; status != http.StatusOK {
		defer w.Body.Close()
		var resp errors.Response
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			return nil, errors.Errorf("status %d", status)
		}
		if resp.Status == 0 {
			resp.Status = status
		}
		return nil, resp.ToError()
	}
	return w, nil
}

func (c Client) doJSON(ctx context.Context, method, path string, req interface{}, resp interface{}) error {
	w, err := c.do(ctx, method, path, req)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if resp != nil {
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			return err
		}
	}

	return nil
}

func (c Client) doText(ctx context.Context, path string) (string, error) {
	w, err := c.do(ctx, "GET", path, nil)
	if err != nil {
		return "", err
	}
	defer w.Body.Close()

	b, err := ioutil.ReadAll(w.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
