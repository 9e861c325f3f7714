// Package calendar keeps the view state of one signed-in client: the loaded
// events, the selected day and the event open in the detail view. It also
// holds the event editor forms and the iCalendar export.
package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/errors"
	"github.com/bob-jr-kab/eventcal/session"
)

// Store persists the events of the signed-in user. Every call is scoped to
// that user by the implementation.
type Store interface {
	Add(ctx context.Context, draft eventcal.EventDraft) (eventcal.Event, error)
	FetchAll(ctx context.Context) ([]eventcal.Event, error)
	Update(ctx context.Context, id eventcal.EventID, update eventcal.EventUpdate) error
	Delete(ctx context.Context, id eventcal.EventID) error
}

// Mode says which widget the day panel shows.
type Mode int

const (
	// ListMode shows the events of the selected day.
	ListMode Mode = iota
	// DetailMode shows the selected event.
	DetailMode
)

func (m Mode) String() string {
	if m == DetailMode {
		return "detail"
	}
	return "list"
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "list":
		*m = ListMode
	case "detail":
		*m = DetailMode
	default:
		return errors.Errorf("unknown mode %q", b)
	}
	return nil
}

// View is a snapshot of what the calendar shows.
type View struct {
	SelectedDate  *time.Time       `json:"selectedDate"`
	DayEvents     []eventcal.Event `json:"dayEvents"`
	SelectedEvent *eventcal.Event  `json:"selectedEvent"`
	Mode          Mode             `json:"mode"`
}

// An Option configures a Coordinator.
type Option func(*Coordinator)

// Location sets the time zone used to decide which day an event is on.
func Location(loc *time.Location) Option {
	return func(c *Coordinator) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithLogger sets the coordinator's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// Coordinator is the single source of truth for what the calendar displays.
//
// Writes go to the Store first and are applied locally only once the Store
// accepts them. The events of the selected day are never stored; they're
// filtered from the loaded events whenever they're asked for.
//
// Operations on a Coordinator are serialized.
type Coordinator struct {
	store  Store
	loc    *time.Location
	logger *zap.Logger

	mu           sync.Mutex
	owner        eventcal.UserID
	loaded       bool
	events       []eventcal.Event
	selectedDate *time.Time
	selected     eventcal.EventID
	unobserve    func()
}

// New returns a Coordinator that loads and saves events through store.
func New(store Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  store,
		loc:    time.UTC,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Attach follows sess. When a user signs in the events are loaded by the
// next operation; when the session ends all state is dropped.
func (c *Coordinator) Attach(sess *session.Session) {
	unobserve := sess.Observe(c.onIdentity)

	c.mu.Lock()
	prev := c.unobserve
	c.unobserve = unobserve
	c.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Detach stops following the session.
func (c *Coordinator) Detach() {
	c.mu.Lock()
	unobserve := c.unobserve
	c.unobserve = nil
	c.mu.Unlock()

	if unobserve != nil {
		unobserve()
	}
}

func (c *Coordinator) onIdentity(id *eventcal.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == nil {
		c.owner = ""
		c.reset()
		return
	}
	if id.ID != c.owner {
		c.owner = id.ID
		c.reset()
	}
}

// reset drops everything. c.mu must be held.
func (c *Coordinator) reset() {
	c.loaded = false
	c.events = nil
	c.selectedDate = nil
	c.selected = ""
}

// Ready loads the events if they haven't been loaded since the session
// started.
func (c *Coordinator) Ready(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureLoaded(ctx)
}

func (c *Coordinator) ensureLoaded(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	return c.load(ctx)
}

// LoadEvents replaces the loaded events with the ones in the store.
func (c *Coordinator) LoadEvents(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

func (c *Coordinator) load(ctx context.Context) error {
	const op errors.Op = "Coordinator.LoadEvents"

	events, err := c.store.FetchAll(ctx)
	if err != nil {
		return errors.E(op, err)
	}
	c.events = append([]eventcal.Event(nil), events...)
	c.sort()
	c.loaded = true
	if c.selected != "" && c.index(c.selected) < 0 {
		c.selected = ""
	}
	return nil
}

// SelectDate shows the events of date's day in list mode.
func (c *Coordinator) SelectDate(ctx context.Context, date time.Time) error {
	const op errors.Op = "Coordinator.SelectDate"

	if date.IsZero() {
		return errors.E(op, errors.Invalid, errors.ValidationError, errors.Field("date"), "date is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}
	c.selectedDate = &date
	c.selected = ""
	return nil
}

// SelectEvent opens the event in the detail view.
func (c *Coordinator) SelectEvent(ctx context.Context, id eventcal.EventID) (eventcal.Event, error) {
	const op errors.Op = "Coordinator.SelectEvent"

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return eventcal.Event{}, err
	}
	i := c.index(id)
	if i < 0 {
		return eventcal.Event{}, errors.E(op, errors.NotExist, errors.StoreError, errors.Errorf("no event %q", id))
	}
	c.selected = id
	return c.events[i], nil
}

// Back closes the detail view and returns to the day's list.
func (c *Coordinator) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = ""
}

// AddEvent saves draft and adds the new event to the calendar.
func (c *Coordinator) AddEvent(ctx context.Context, draft eventcal.EventDraft) (eventcal.Event, error) {
	const op errors.Op = "Coordinator.AddEvent"

	if draft.Date.IsZero() {
		return eventcal.Event{}, errors.E(op, errors.Invalid, errors.ValidationError, errors.Field("date"), "select a date first")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return eventcal.Event{}, err
	}

	event, err := c.store.Add(ctx, draft)
	if err != nil {
		return eventcal.Event{}, errors.E(op, err)
	}

	c.events = append(c.events, event)
	c.sort()
	return event, nil
}

// UpdateEvent replaces the saved fields of updated.ID with updated's.
func (c *Coordinator) UpdateEvent(ctx context.Context, updated eventcal.Event) (eventcal.Event, error) {
	const op errors.Op = "Coordinator.UpdateEvent"

	if updated.ID == "" {
		return eventcal.Event{}, errors.E(op, errors.Invalid, errors.ValidationError, errors.Field("id"), "event has no id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return eventcal.Event{}, err
	}

	update := eventcal.FullUpdate(updated)
	if err := c.store.Update(ctx, updated.ID, update); err != nil {
		return eventcal.Event{}, errors.E(op, err)
	}

	i := c.index(updated.ID)
	if i < 0 {
		// Saved, but we never had it. Take the store's word for it.
		c.logger.Info("updated event not loaded, reloading", zap.String("event", string(updated.ID)))
		if err := c.load(ctx); err != nil {
			return eventcal.Event{}, errors.E(op, err)
		}
		if i = c.index(updated.ID); i < 0 {
			return eventcal.Event{}, errors.E(op, errors.NotExist, errors.StoreError, errors.Errorf("event %q vanished after update", updated.ID))
		}
		return c.events[i], nil
	}

	event := update.Apply(c.events[i])
	c.events[i] = event
	c.sort()
	return event, nil
}

// DeleteEvent removes the event from the store and the calendar, and returns
// the day panel to list mode.
func (c *Coordinator) DeleteEvent(ctx context.Context, id eventcal.EventID) error {
	const op errors.Op = "Coordinator.DeleteEvent"

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}

	if err := c.store.Delete(ctx, id); err != nil {
		return errors.E(op, err)
	}

	if i := c.index(id); i >= 0 {
		c.events = append(c.events[:i], c.events[i+1:]...)
	}
	c.selected = ""
	return nil
}

// Events returns a copy of every loaded event, ordered by date and start.
func (c *Coordinator) Events() []eventcal.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]eventcal.Event{}, c.events...)
}

// DayEvents returns the loaded events on the selected day.
func (c *Coordinator) DayEvents() []eventcal.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dayEvents()
}

func (c *Coordinator) dayEvents() []eventcal.Event {
	day := []eventcal.Event{}
	if c.selectedDate == nil {
		return day
	}
	for _, e := range c.events {
		if eventcal.SameDay(e.Date, *c.selectedDate, c.loc) {
			day = append(day, e)
		}
	}
	return day
}

// View returns a snapshot of the calendar.
func (c *Coordinator) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		DayEvents: c.dayEvents(),
		Mode:      ListMode,
	}
	if c.selectedDate != nil {
		d := *c.selectedDate
		v.SelectedDate = &d
	}
	if i := c.index(c.selected); c.selected != "" && i >= 0 {
		e := c.events[i]
		v.SelectedEvent = &e
		v.Mode = DetailMode
	}
	return v
}

func (c *Coordinator) index(id eventcal.EventID) int {
	for i, e := range c.events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// sort orders events by day. Within a day all-day events come first, then
// events by start time, then events without one.
func (c *Coordinator) sort() {
	sort.SliceStable(c.events, func(i, j int) bool {
		a, b := c.events[i], c.events[j]
		if !eventcal.SameDay(a.Date, b.Date, c.loc) {
			return a.Date.Before(b.Date)
		}
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra < rb
		}
		return a.StartTime < b.StartTime
	})
}

func rank(e eventcal.Event) int {
	switch {
	case e.IsAllDay():
		return 0
	case e.StartTime == "":
		return 2
	}
	return 1
}
