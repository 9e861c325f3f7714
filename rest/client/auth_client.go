package client

import (
	"context"

	"github.com/bob-jr-kab/eventcal/service"
)

// AuthClient provides access to the eventcal /auth endpoint
type AuthClient struct {
	client *Client
}

// Signup creates an account and signs this client's session in to it.
func (c *AuthClient) Signup(ctx context.Context, req service.SignupRequest) (service.SessionInfo, error) {
	var resp service.SessionInfo
	err := c.client.doJSON(ctx, "POST", "/auth/signup", req, &resp)
	return resp, err
}

// Login signs this client's session in.
func (c *AuthClient) Login(ctx context.Context, req service.LoginRequest) (service.SessionInfo, error) {
	var resp service.SessionInfo
	err := c.client.doJSON(ctx, "POST", "/auth/login", req, &resp)
	return resp, err
}

// Logout signs this client's session out.
func (c *AuthClient) Logout(ctx context.Context) (service.SessionInfo, error) {
	var resp service.SessionInfo
	err := c.client.doJSON(ctx, "POST", "/auth/logout", nil, &resp)
	return resp, err
}
