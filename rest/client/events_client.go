package client

import (
	"context"
	"net/url"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/service"
)

// EventsClient provides access to the eventcal /events endpoint
type EventsClient struct {
	client *Client
}

// List returns every event of the signed-in user.
func (c *EventsClient) List(ctx context.Context) ([]eventcal.Event, error) {
	var resp []eventcal.Event
	if err := c.client.doJSON(ctx, "GET", "/events", nil, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// Add creates an event from the form.
func (c *EventsClient) Add(ctx context.Context, req service.EventRequest) (eventcal.Event, error) {
	var resp eventcal.Event
	err := c.client.doJSON(ctx, "POST", "/events", req, &resp)
	return resp, err
}

// Get fetches one event.
func (c *EventsClient) Get(ctx context.Context, id eventcal.EventID) (eventcal.Event, error) {
	var resp eventcal.Event
	err := c.client.doJSON(ctx, "GET", "/events/"+url.PathEscape(string(id)), nil, &resp)
	return resp, err
}

// Select opens an event in the detail view.
func (c *EventsClient) Select(ctx context.Context, id eventcal.EventID) (eventcal.Event, error) {
	var resp eventcal.Event
	err := c.client.doJSON(ctx, "POST", "/events/"+url.PathEscape(string(id))+"/select", nil, &resp)
	return resp, err
}

// Update saves the form over an event.
func (c *EventsClient) Update(ctx context.Context, id eventcal.EventID, req service.EventRequest) (eventcal.Event, error) {
	var resp eventcal.Event
	err := c.client.doJSON(ctx, "PATCH", "/events/"+url.PathEscape(string(id)), req, &resp)
	return resp, err
}

// Delete removes an event.
func (c *EventsClient) Delete(ctx context.Context, id eventcal.EventID) error {
	return c.client.doJSON(ctx, "DELETE", "/events/"+url.PathEscape(string(id)), nil, nil)
}

// Export downloads the iCalendar feed.
func (c *EventsClient) Export(ctx context.Context) (string, error) {
	return c.client.doText(ctx, "/events.ics")
}
