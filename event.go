package eventcal

import (
	"strings"
	"time"
)

// EventID is assigned by the event store when an Event is first saved. It's
// empty before that and never changes afterwards.
type EventID string

// AllDay is stored in both StartTime and EndTime for events that take the
// whole day instead of an explicit time of day.
const AllDay = "All Day"

// Reminder says when the owner wants to be reminded of an Event.
type Reminder string

// The reminder choices offered by the event editor. The zero value means no
// reminder.
const (
	ReminderNone             Reminder = ""
	ReminderAtTime           Reminder = "At the time of the event"
	ReminderHourBefore       Reminder = "1 hour before"
	ReminderTenMinutesBefore Reminder = "10 minutes before"
	ReminderDayBefore        Reminder = "1 day before"
)

// Reminders lists every reminder that can be set, in the order the editor
// shows them.
var Reminders = []Reminder{
	ReminderAtTime,
	ReminderHourBefore,
	ReminderTenMinutesBefore,
	ReminderDayBefore,
}

// Valid reports whether r is unset or one of Reminders.
func (r Reminder) Valid() bool {
	if r == ReminderNone {
		return true
	}
	for _, v := range Reminders {
		if r == v {
			return true
		}
	}
	return false
}

// Offset is how long before the event starts the reminder should go off.
func (r Reminder) Offset() time.Duration {
	switch r {
	case ReminderHourBefore:
		return time.Hour
	case ReminderTenMinutesBefore:
		return 10 * time.Minute
	case ReminderDayBefore:
		return 24 * time.Hour
	}
	return 0
}

// Event is a single calendar entry owned by exactly one user.
type Event struct {
	ID EventID `json:"id"`
	// OwnerID is stamped by the store from the session that created the
	// event. Clients can't set it.
	OwnerID UserID `json:"uid"`

	Title string `json:"title"`
	// Date is the calendar day the event belongs to. Only the day is used for
	// grouping, see SameDay.
	Date time.Time `json:"date"`

	// StartTime and EndTime are short "15:04" strings or AllDay.
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`

	Location string   `json:"location"`
	Email    string   `json:"email"`
	Reminder Reminder `json:"reminder"`
}

// IsAllDay reports whether the event takes the whole day.
func (e Event) IsAllDay() bool {
	return e.StartTime == AllDay && e.EndTime == AllDay
}

// EventDraft is an Event that hasn't been saved yet. It's what the event
// store's Add accepts.
type EventDraft struct {
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	Location  string    `json:"location,omitempty"`
	Email     string    `json:"email,omitempty"`
	StartTime string    `json:"startTime,omitempty"`
	EndTime   string    `json:"endTime,omitempty"`
	Reminder  Reminder  `json:"reminder,omitempty"`
}

// Event builds the saved form of the draft.
func (d EventDraft) Event(id EventID, owner UserID) Event {
	return Event{
		ID:        id,
		OwnerID:   owner,
		Title:     d.Title,
		Date:      d.Date,
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
		Location:  d.Location,
		Email:     d.Email,
		Reminder:  d.Reminder,
	}
}

// An EventUpdate replaces some of an Event's fields.
type EventUpdate struct {
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Location  string    `json:"location"`
	Email     string    `json:"email"`
	Reminder  Reminder  `json:"reminder"`
	// Mask is a comma-delimited list of json names for the fields this update
	// will change. Only fields listed in the mask will be updated.
	//
	// eg: "title,location" means this update changes Title and Location.
	//
	// This is similar to protobuf's FieldMask well known type.
	Mask string `json:"mask"`
}

// eventFields are the json names of every field an EventUpdate can change.
var eventFields = []string{"title", "date", "startTime", "endTime", "location", "email", "reminder"}

// FullUpdate returns an EventUpdate that replaces every editable field of an
// event with the values in e.
func FullUpdate(e Event) EventUpdate {
	return EventUpdate{
		Title:     e.Title,
		Date:      e.Date,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Location:  e.Location,
		Email:     e.Email,
		Reminder:  e.Reminder,
		Mask:      strings.Join(eventFields, ","),
	}
}

// Fields returns the known json names listed in the mask, in mask order and
// without duplicates.
func (u EventUpdate) Fields() []string {
	var fields []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(u.Mask, ",") {
		f = strings.TrimSpace(f)
		if seen[f] {
			continue
		}
		for _, known := range eventFields {
			if f == known {
				fields = append(fields, f)
				seen[f] = true
				break
			}
		}
	}
	return fields
}

// Apply returns a copy of e with the masked fields replaced. ID and OwnerID
// are never changed.
func (u EventUpdate) Apply(e Event) Event {
	for _, field := range u.Fields() {
		switch field {
		case "title":
			e.Title = u.Title
		case "date":
			e.Date = u.Date
		case "startTime":
			e.StartTime = u.StartTime
		case "endTime":
			e.EndTime = u.EndTime
		case "location":
			e.Location = u.Location
		case "email":
			e.Email = u.Email
		case "reminder":
			e.Reminder = u.Reminder
		}
	}
	return e
}

// SameDay reports whether a and b fall on the same calendar day when viewed
// in loc. A nil loc means UTC.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
