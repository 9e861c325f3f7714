package client

import (
	"context"

	"github.com/bob-jr-kab/eventcal/service"
)

// SessionClient provides access to the eventcal /session endpoint
type SessionClient struct {
	client *Client
}

// Get reports who is signed in and when the session expires.
func (c *SessionClient) Get(ctx context.Context) (service.SessionInfo, error) {
	var resp service.SessionInfo
	err := c.client.doJSON(ctx, "GET", "/session", nil, &resp)
	return resp, err
}

// Activity reports user activity, eg "keydown".
func (c *SessionClient) Activity(ctx context.Context, signal string) (service.SessionInfo, error) {
	var resp service.SessionInfo
	err := c.client.doJSON(ctx, "POST", "/session/activity", map[string]string{"signal": signal}, &resp)
	return resp, err
}
