package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-test/deep"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/auth"
	"github.com/bob-jr-kab/eventcal/auth/authtest"
	"github.com/bob-jr-kab/eventcal/calendar"
	"github.com/bob-jr-kab/eventcal/errors"
	"github.com/bob-jr-kab/eventcal/memstore"
	"github.com/bob-jr-kab/eventcal/session/sessiontest"
)

var start = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *sessiontest.Clock, *authtest.Accounts) {
	t.Helper()

	clock := sessiontest.NewClock(start)
	accounts := authtest.NewAccounts()
	profiles := memstore.NewProfileStore()

	s := &Service{
		EventStore:   memstore.NewEventStore(),
		ProfileStore: profiles,
		Backend:      "memory",
		Gateway:      &auth.Gateway{Accounts: accounts, Profiles: profiles},
		Clock:        clock,
	}
	t.Cleanup(s.Close)
	return s, clock, accounts
}

func signup(t *testing.T, s *Service, email string) (context.Context, *Client) {
	t.Helper()

	c := s.NewClient()
	ctx := WithClient(context.Background(), c)
	if _, err := s.Signup(ctx, SignupRequest{Email: email, Password: "pw123456", Username: "alice"}); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	return ctx, c
}

func TestSignupThenCalendar(t *testing.T) {
	t.Parallel()

	s, _, _ := newService(t)
	ctx, _ := signup(t, s, "a@x.com")

	profile, err := s.ProfileGet(ctx, "me")
	if err != nil {
		t.Fatal(err)
	}
	if profile.Username != "alice" || profile.Email != "a@x.com" {
		t.Fatalf("profile = %+v", profile)
	}

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if _, err := s.CalendarSelectDate(ctx, SelectDateRequest{Date: day}); err != nil {
		t.Fatal(err)
	}

	event, err := s.EventAdd(ctx, EventRequest{EventForm: calendar.EventForm{
		Title:     "Standup",
		StartTime: "09:00",
		EndTime:   "09:15",
	}})
	if err != nil {
		t.Fatal(err)
	}
	if !eventcal.SameDay(event.Date, day, time.UTC) {
		t.Fatalf("event date = %v, want the selected day", event.Date)
	}

	view, err := s.CalendarView(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(view.DayEvents, []eventcal.Event{event}); diff != nil {
		t.Fatalf("day events: %v", diff)
	}

	if err := s.EventDelete(ctx, event.ID); err != nil {
		t.Fatal(err)
	}
	view, err = s.CalendarView(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.DayEvents) != 0 {
		t.Fatalf("day events after delete = %v", view.DayEvents)
	}
}

func TestEventUpdateKeepsDay(t *testing.T) {
	t.Parallel()

	s, _, _ := newService(t)
	ctx, _ := signup(t, s, "a@x.com")

	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	event, err := s.EventAdd(ctx, EventRequest{
		EventForm: calendar.EventForm{Title: "Lunch"},
		Date:      &day,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.EventUpdate(ctx, event.ID, EventRequest{EventForm: calendar.EventForm{
		Title:    "Long lunch",
		AllDay:   true,
		Reminder: eventcal.ReminderHourBefore,
	}})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != event.ID || got.Title != "Long lunch" || !got.IsAllDay() || !got.Date.Equal(day) {
		t.Fatalf("updated = %+v", got)
	}

	if _, err := s.EventUpdate(ctx, event.ID, EventRequest{}); errors.ClassOf(err) != errors.ValidationError {
		t.Fatalf("empty title: got %v, want a validation error", err)
	}
	if _, err := s.EventUpdate(ctx, "missing", EventRequest{EventForm: calendar.EventForm{Title: "x"}}); !errors.Is(errors.NotExist, err) {
		t.Fatalf("missing event: got %v, want NotExist", err)
	}
}

func TestAnonymousCalls(t *testing.T) {
	t.Parallel()

	s, _, _ := newService(t)
	ctx := WithClient(context.Background(), s.NewClient())

	if _, err := s.EventList(ctx); !errors.Is(errors.NotLoggedIn, err) {
		t.Errorf("EventList: got %v, want NotLoggedIn", err)
	}
	if _, err := s.CalendarView(ctx); !errors.Is(errors.NotLoggedIn, err) {
		t.Errorf("CalendarView: got %v, want NotLoggedIn", err)
	}
	if _, err := s.ProfileGet(ctx, "me"); !errors.Is(errors.NotLoggedIn, err) {
		t.Errorf("ProfileGet: got %v, want NotLoggedIn", err)
	}
	if _, err := s.EventList(context.Background()); !errors.Is(errors.NotLoggedIn, err) {
		t.Errorf("EventList without client: got %v, want NotLoggedIn", err)
	}

	info, err := s.Logout(ctx)
	if err != nil || info.User != nil || info.State != "expired" {
		t.Errorf("Logout while signed out = %+v, %v", info, err)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	t.Parallel()

	s, _, _ := newService(t)
	alice, _ := signup(t, s, "a@x.com")
	bob, _ := signup(t, s, "b@x.com")

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	event, err := s.EventAdd(alice, EventRequest{EventForm: calendar.EventForm{Title: "Private"}, Date: &day})
	if err != nil {
		t.Fatal(err)
	}

	events, err := s.EventList(bob)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("bob sees %v", events)
	}

	// Deleting someone else's event is a silent no-op.
	if err := s.EventDelete(bob, event.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.EventSelect(alice, event.ID); err != nil {
		t.Fatalf("alice lost her event: %v", err)
	}
	if _, err := s.ProfileGet(bob, "uid-a@x.com"); !errors.Is(errors.Permission, err) {
		t.Fatalf("ProfileGet of another user: got %v, want Permission", err)
	}
}

func TestIdleClientIsSignedOut(t *testing.T) {
	t.Parallel()

	s, clock, accounts := newService(t)
	ctx, c := signup(t, s, "a@x.com")

	info, err := s.SessionGet(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.State != "active" || info.ExpiresAt == nil || !info.ExpiresAt.Equal(start.Add(15*time.Minute)) {
		t.Fatalf("session = %+v", info)
	}

	clock.Advance(10 * time.Minute)
	// API calls count as activity.
	if _, err := s.EventList(ctx); err != nil {
		t.Fatal(err)
	}
	clock.Advance(10 * time.Minute)
	if c.Session.UserID() == "" {
		t.Fatal("signed out despite activity")
	}

	var seen []string
	unwatch, err := s.SessionWatch(ctx, func(info SessionInfo) { seen = append(seen, info.State) })
	if err != nil {
		t.Fatal(err)
	}
	defer unwatch()

	clock.Advance(15 * time.Minute)
	if c.Session.UserID() != "" {
		t.Fatal("still signed in after idle timeout")
	}
	if diff := deep.Equal(seen, []string{"active", "expired"}); diff != nil {
		t.Fatalf("watched states: %v", diff)
	}
	if diff := deep.Equal(accounts.SignOuts(), []eventcal.UserID{"uid-a@x.com"}); diff != nil {
		t.Fatalf("sign outs: %v", diff)
	}
	if _, err := s.EventList(ctx); !errors.Is(errors.NotLoggedIn, err) {
		t.Fatalf("EventList after expiry: got %v, want NotLoggedIn", err)
	}
	if len(c.Calendar.Events()) != 0 {
		t.Fatal("calendar kept events after expiry")
	}
}

func TestActivity(t *testing.T) {
	t.Parallel()

	s, clock, _ := newService(t)
	ctx, _ := signup(t, s, "a@x.com")

	clock.Advance(5 * time.Minute)
	info, err := s.Activity(ctx, "keydown")
	if err != nil {
		t.Fatal(err)
	}
	if want := start.Add(20 * time.Minute); info.ExpiresAt == nil || !info.ExpiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", info.ExpiresAt, want)
	}
	if _, err := s.Activity(ctx, "blink"); errors.ClassOf(err) != errors.ValidationError {
		t.Fatalf("unknown signal: got %v", err)
	}
}

func TestCallsCountAsActivity(t *testing.T) {
	t.Parallel()

	s, clock, _ := newService(t)
	ctx, _ := signup(t, s, "a@x.com")

	clock.Advance(10 * time.Minute)
	if _, err := s.EventList(ctx); err != nil {
		t.Fatal(err)
	}
	info, err := s.SessionGet(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if want := start.Add(25 * time.Minute); info.ExpiresAt == nil || !info.ExpiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", info.ExpiresAt, want)
	}
}

func TestSweep(t *testing.T) {
	t.Parallel()

	s, clock, _ := newService(t)
	anon := s.NewClient()
	signup(t, s, "a@x.com")

	clock.Advance(2 * time.Hour)
	if _, ok := s.Client(anon.Session.ID); !ok {
		t.Fatal("anonymous client missing")
	}
	clock.Advance(time.Hour)

	// The signed-in client expired after 15 minutes and hasn't been used
	// since. The anonymous one was used an hour ago.
	if n := s.Sweep(90 * time.Minute); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}
	if s.Clients() != 1 {
		t.Fatalf("Clients() = %d, want 1", s.Clients())
	}
	if _, ok := s.Client(anon.Session.ID); !ok {
		t.Fatal("swept a recently used client")
	}
}

func TestTokenClient(t *testing.T) {
	t.Parallel()

	s, _, _ := newService(t)
	info := auth.Info{ID: "tok-user", Email: "t@x.com"}

	c := s.TokenClient(info)
	if c.Session.UserID() != "tok-user" {
		t.Fatalf("token client user = %q", c.Session.UserID())
	}
	if again := s.TokenClient(info); again != c {
		t.Fatal("TokenClient didn't reuse the client")
	}

	ctx := WithClient(context.Background(), c)
	if _, err := s.EventAdd(ctx, EventRequest{EventForm: calendar.EventForm{Title: "Via API"}, Date: &start}); err != nil {
		t.Fatal(err)
	}
	ics, err := s.EventExport(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if want := "SUMMARY:Via API"; !strings.Contains(ics, want) {
		t.Fatalf("export missing %q:\n%s", want, ics)
	}
}
