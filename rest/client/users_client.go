package client

import (
	"context"

	"github.com/bob-jr-kab/eventcal"
)

// UsersClient provides access to the eventcal /users endpoint
type UsersClient struct {
	client *Client
}

// Update lets users change their username, email and password.
func (c *UsersClient) Update(ctx context.Context, id string, update eventcal.ProfileUpdate) (eventcal.Profile, error) {
	var resp eventcal.Profile
	if err := c.client.doJSON(ctx, "PATCH", "/users/"+id, update, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// Get retrieves a profile. Only "me" is allowed.
func (c *UsersClient) Get(ctx context.Context, id string) (eventcal.Profile, error) {
	var resp eventcal.Profile
	if err := c.client.doJSON(ctx, "GET", "/users/"+id, nil, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}
