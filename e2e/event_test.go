package e2e

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/calendar"
	"github.com/bob-jr-kab/eventcal/errors"
	"github.com/bob-jr-kab/eventcal/service"
)

func TestSignupAddDelete(t *testing.T) {
	t.Parallel()

	server, _ := stubServer(t)
	client := newClient(server)
	ctx := context.Background()

	info, err := client.Auth.Signup(ctx, service.SignupRequest{
		Email:    "a@x.com",
		Password: "pw123456",
		Username: "alice",
	})
	if err != nil {
		t.Fatal(err)
	}
	if info.User == nil || info.State != "active" {
		t.Fatalf("after signup session = %+v", info)
	}

	profile, err := client.Users.Get(ctx, "me")
	if err != nil {
		t.Fatal(err)
	}
	if profile.UserID != info.User.ID || profile.Username != "alice" || profile.Email != "a@x.com" {
		t.Fatalf("profile = %+v", profile)
	}

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if _, err := client.Calendar.SelectDate(ctx, day); err != nil {
		t.Fatal(err)
	}

	event, err := client.Events.Add(ctx, service.EventRequest{EventForm: calendar.EventForm{
		Title:     "Standup",
		StartTime: "09:00",
		EndTime:   "09:15",
		Reminder:  eventcal.ReminderTenMinutesBefore,
	}})
	if err != nil {
		t.Fatal(err)
	}

	view, err := client.Calendar.View(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.DayEvents) != 1 || view.DayEvents[0].ID != event.ID || view.DayEvents[0].Title != "Standup" {
		t.Fatalf("day events = %+v", view.DayEvents)
	}

	if err := client.Events.Delete(ctx, event.ID); err != nil {
		t.Fatal(err)
	}
	view, err = client.Calendar.View(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.DayEvents) != 0 || view.SelectedEvent != nil || view.Mode != calendar.ListMode {
		t.Fatalf("after delete view = %+v", view)
	}
}

func TestEventEditAndExport(t *testing.T) {
	t.Parallel()

	server, _ := stubServer(t)
	client := newClient(server)
	ctx := context.Background()

	if _, err := client.Auth.Signup(ctx, service.SignupRequest{Email: "a@x.com", Password: "pw123456", Username: "alice"}); err != nil {
		t.Fatal(err)
	}

	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	event, err := client.Events.Add(ctx, service.EventRequest{
		EventForm: calendar.EventForm{Title: "Offsite", AllDay: true},
		Date:      &day,
	})
	if err != nil {
		t.Fatal(err)
	}

	before, err := client.Calendar.View(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got, err := client.Events.Get(ctx, event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != event.ID || got.Title != "Offsite" {
		t.Fatalf("Get() = %+v", got)
	}
	after, err := client.Calendar.View(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if after.Mode != before.Mode || after.SelectedEvent != nil {
		t.Fatalf("reading an event changed the view: %+v", after)
	}
	if _, err := client.Events.Get(ctx, "nope"); !errors.Is(errors.NotExist, err) {
		t.Fatalf("Get(missing) = %v, want not exist", err)
	}

	selected, err := client.Events.Select(ctx, event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !selected.IsAllDay() {
		t.Fatalf("selected = %+v", selected)
	}
	view, err := client.Calendar.View(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if view.Mode != calendar.DetailMode || view.SelectedEvent == nil || view.SelectedEvent.ID != event.ID {
		t.Fatalf("view after select = %+v", view)
	}

	form := calendar.EditForm(selected)
	form.Location = "Lisbon"
	updated, err := client.Events.Update(ctx, event.ID, service.EventRequest{EventForm: form})
	if err != nil {
		t.Fatal(err)
	}
	if updated.ID != event.ID || updated.Location != "Lisbon" || !updated.Date.Equal(day) {
		t.Fatalf("updated = %+v", updated)
	}

	form.Title = " "
	if _, err := client.Events.Update(ctx, event.ID, service.EventRequest{EventForm: form}); errors.ClassOf(err) != errors.ValidationError {
		t.Fatalf("blank title: got %v, want a validation error", err)
	}

	ics, err := client.Events.Export(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"SUMMARY:Offsite", "LOCATION:Lisbon", "DTSTART;VALUE=DATE:20240502"} {
		if !strings.Contains(ics, want) {
			t.Errorf("export missing %q", want)
		}
	}
}

func TestEventsRequireLogin(t *testing.T) {
	t.Parallel()

	server, _ := stubServer(t)
	client := newClient(server)
	ctx := context.Background()

	if _, err := client.Events.List(ctx); !errors.Is(errors.NotLoggedIn, err) {
		t.Fatalf("anonymous Events.List got %v, want %v", err, errors.NotLoggedIn)
	}
}
