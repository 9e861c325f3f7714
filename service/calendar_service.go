package service

import (
	"context"
	"time"

	"github.com/bob-jr-kab/eventcal/calendar"
	"github.com/bob-jr-kab/eventcal/errors"
)

// SelectDateRequest picks a day on the calendar.
type SelectDateRequest struct {
	Date time.Time `json:"date"`
}

// CalendarView returns what the calendar shows, loading the events on first
// use.
func (s *Service) CalendarView(ctx context.Context) (calendar.View, error) {
	const op errors.Op = "Service.CalendarView"

	c, _, err := s.signedIn(ctx, op)
	if err != nil {
		return calendar.View{}, err
	}
	if err := c.Calendar.Ready(ctx); err != nil {
		return calendar.View{}, errors.E(op, err)
	}
	return c.Calendar.View(), nil
}

// CalendarSelectDate shows the events of a day.
func (s *Service) CalendarSelectDate(ctx context.Context, req SelectDateRequest) (calendar.View, error) {
	const op errors.Op = "Service.CalendarSelectDate"

	c, _, err := s.signedIn(ctx, op)
	if err != nil {
		return calendar.View{}, err
	}
	if err := c.Calendar.SelectDate(ctx, req.Date); err != nil {
		return calendar.View{}, errors.E(op, err)
	}
	return c.Calendar.View(), nil
}

// CalendarBack leaves the event detail view.
func (s *Service) CalendarBack(ctx context.Context) (calendar.View, error) {
	const op errors.Op = "Service.CalendarBack"

	c, _, err := s.signedIn(ctx, op)
	if err != nil {
		return calendar.View{}, err
	}
	c.Calendar.Back()
	return c.Calendar.View(), nil
}

// CalendarReload throws away the loaded events and fetches them again.
func (s *Service) CalendarReload(ctx context.Context) (calendar.View, error) {
	const op errors.Op = "Service.CalendarReload"

	c, _, err := s.signedIn(ctx, op)
	if err != nil {
		return calendar.View{}, err
	}
	if err := c.Calendar.LoadEvents(ctx); err != nil {
		return calendar.View{}, errors.E(op, err)
	}
	return c.Calendar.View(), nil
}
