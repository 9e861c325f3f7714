package calendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/bob-jr-kab/eventcal"
)

const productID = "-//eventcal//eventcal//EN"

// Export renders events as an iCalendar feed named name. Times of day are
// read in loc. Each reminder becomes a display alarm.
func Export(name string, events []eventcal.Event, loc *time.Location, now time.Time) string {
	if loc == nil {
		loc = time.UTC
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, e := range events {
		ve := cal.AddEvent(fmt.Sprintf("%s@eventcal", e.ID))
		ve.SetDtStampTime(now.UTC())
		ve.SetSummary(e.Title)
		if e.Location != "" {
			ve.SetLocation(e.Location)
		}
		if e.Email != "" {
			ve.AddAttendee(e.Email)
		}

		start, end, allDay := span(e, loc)
		if allDay {
			ve.SetAllDayStartAt(start)
			ve.SetAllDayEndAt(end)
		} else {
			ve.SetStartAt(start)
			ve.SetEndAt(end)
		}

		if e.Reminder != eventcal.ReminderNone && e.Reminder.Valid() {
			alarm := ve.AddAlarm()
			alarm.SetAction(ical.ActionDisplay)
			alarm.SetTrigger(trigger(e.Reminder.Offset()))
			alarm.SetProperty(ical.ComponentPropertyDescription, e.Title)
		}
	}

	return cal.Serialize()
}

// span works out when e starts and ends. Events without a start time of day
// are exported as all-day events.
func span(e eventcal.Event, loc *time.Location) (start, end time.Time, allDay bool) {
	y, m, d := e.Date.In(loc).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	startClock, ok := clock(e.StartTime)
	if e.IsAllDay() || !ok {
		return day, day.AddDate(0, 0, 1), true
	}
	start = day.Add(startClock)

	end = start.Add(time.Hour)
	if endClock, ok := clock(e.EndTime); ok && endClock > startClock {
		end = day.Add(endClock)
	}
	return start, end, false
}

func clock(s string) (time.Duration, bool) {
	if checkClock(s) != nil || s == "" {
		return 0, false
	}
	t, _ := time.Parse(clockLayout, s)
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
}

// trigger formats a reminder offset as an RFC 5545 duration before the start.
func trigger(before time.Duration) string {
	if before <= 0 {
		return "PT0M"
	}
	if before%(24*time.Hour) == 0 {
		return fmt.Sprintf("-P%dD", before/(24*time.Hour))
	}
	if before%time.Hour == 0 {
		return fmt.Sprintf("-PT%dH", before/time.Hour)
	}
	return fmt.Sprintf("-PT%dM", before/time.Minute)
}
