package calendar

import (
	"strings"
	"time"

	emailaddress "github.com/mcnijman/go-emailaddress"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/errors"
)

// clockLayout is the 24-hour time of day used by the editors.
const clockLayout = "15:04"

// EventForm holds what the event editors collect. Times are local 24-hour
// "15:04" strings and are never converted between zones.
type EventForm struct {
	Title    string `json:"title"`
	Location string `json:"location"`
	Email    string `json:"email"`
	// AllDay replaces both times with the "All Day" sentinel.
	AllDay    bool              `json:"allDay"`
	StartTime string            `json:"startTime"`
	EndTime   string            `json:"endTime"`
	Reminder  eventcal.Reminder `json:"reminder"`
}

// Validate checks the form before anything is sent to the store.
func (f EventForm) Validate() error {
	const op errors.Op = "EventForm.Validate"

	if strings.TrimSpace(f.Title) == "" {
		return invalid(op, "title", "title is required")
	}
	if !f.Reminder.Valid() {
		return invalid(op, "reminder", errors.Errorf("unknown reminder %q", f.Reminder))
	}
	if !f.AllDay {
		if err := checkClock(f.StartTime); err != nil {
			return invalid(op, "startTime", err)
		}
		if err := checkClock(f.EndTime); err != nil {
			return invalid(op, "endTime", err)
		}
	}
	if s := strings.TrimSpace(f.Email); s != "" {
		if _, err := emailaddress.Parse(s); err != nil {
			return invalid(op, "email", err)
		}
	}
	return nil
}

func invalid(op errors.Op, field string, arg interface{}) error {
	return errors.E(op, errors.Invalid, errors.ValidationError, errors.Field(field), arg)
}

// checkClock accepts "" or an "HH:MM" 24-hour time.
func checkClock(s string) error {
	if s == "" {
		return nil
	}
	if len(s) != len(clockLayout) {
		return errors.Errorf("time %q is not HH:MM", s)
	}
	if _, err := time.Parse(clockLayout, s); err != nil {
		return errors.Errorf("time %q is not HH:MM", s)
	}
	return nil
}

func (f EventForm) times() (start, end string) {
	if f.AllDay {
		return eventcal.AllDay, eventcal.AllDay
	}
	return f.StartTime, f.EndTime
}

// Draft turns the form into a new event on date. date is the day selected in
// the calendar; without one no event can be added.
func (f EventForm) Draft(date *time.Time) (eventcal.EventDraft, error) {
	const op errors.Op = "EventForm.Draft"

	if date == nil || date.IsZero() {
		return eventcal.EventDraft{}, invalid(op, "date", "select a date first")
	}
	if err := f.Validate(); err != nil {
		return eventcal.EventDraft{}, err
	}

	start, end := f.times()
	return eventcal.EventDraft{
		Title:     strings.TrimSpace(f.Title),
		Date:      *date,
		Location:  strings.TrimSpace(f.Location),
		Email:     strings.TrimSpace(f.Email),
		StartTime: start,
		EndTime:   end,
		Reminder:  f.Reminder,
	}, nil
}

// EditForm fills a form with e's fields.
func EditForm(e eventcal.Event) EventForm {
	f := EventForm{
		Title:     e.Title,
		Location:  e.Location,
		Email:     e.Email,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Reminder:  e.Reminder,
	}
	if e.IsAllDay() {
		f.AllDay = true
		f.StartTime, f.EndTime = "", ""
	}
	return f
}

// Apply returns e with the form's fields. The id, owner and date are kept.
func (f EventForm) Apply(e eventcal.Event) (eventcal.Event, error) {
	if err := f.Validate(); err != nil {
		return e, err
	}
	e.Title = strings.TrimSpace(f.Title)
	e.Location = strings.TrimSpace(f.Location)
	e.Email = strings.TrimSpace(f.Email)
	e.StartTime, e.EndTime = f.times()
	e.Reminder = f.Reminder
	return e, nil
}
