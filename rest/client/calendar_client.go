package client

import (
	"context"
	"time"

	"github.com/bob-jr-kab/eventcal/calendar"
	"github.com/bob-jr-kab/eventcal/service"
)

// CalendarClient provides access to the eventcal /calendar endpoint
type CalendarClient struct {
	client *Client
}

// View returns what the calendar shows.
func (c *CalendarClient) View(ctx context.Context) (calendar.View, error) {
	var resp calendar.View
	err := c.client.doJSON(ctx, "GET", "/calendar", nil, &resp)
	return resp, err
}

// SelectDate shows the events of a day.
func (c *CalendarClient) SelectDate(ctx context.Context, date time.Time) (calendar.View, error) {
	var resp calendar.View
	err := c.client.doJSON(ctx, "POST", "/calendar/date", service.SelectDateRequest{Date: date}, &resp)
	return resp, err
}

// Back leaves the event detail view.
func (c *CalendarClient) Back(ctx context.Context) (calendar.View, error) {
	var resp calendar.View
	err := c.client.doJSON(ctx, "POST", "/calendar/back", nil, &resp)
	return resp, err
}

// Reload fetches the events again.
func (c *CalendarClient) Reload(ctx context.Context) (calendar.View, error) {
	var resp calendar.View
	err := c.client.doJSON(ctx, "POST", "/calendar/reload", nil, &resp)
	return resp, err
}
