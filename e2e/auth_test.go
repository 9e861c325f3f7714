package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/bob-jr-kab/eventcal/calendar"
	"github.com/bob-jr-kab/eventcal/errors"
	"github.com/bob-jr-kab/eventcal/service"
)

func TestAuthErrors(t *testing.T) {
	t.Parallel()

	server, _ := stubServer(t)
	ctx := context.Background()

	first := newClient(server)
	if _, err := first.Auth.Signup(ctx, service.SignupRequest{Email: "a@x.com", Password: "pw123456", Username: "alice"}); err != nil {
		t.Fatal(err)
	}

	other := newClient(server)
	for _, test := range []struct {
		Name  string
		Run   func() error
		Kind  errors.Kind
		Class errors.Class
	}{
		{
			Name: "duplicate email",
			Run: func() error {
				_, err := other.Auth.Signup(ctx, service.SignupRequest{Email: "a@x.com", Password: "pw123456", Username: "eve"})
				return err
			},
			Kind:  errors.Exist,
			Class: errors.AuthError,
		},
		{
			Name: "weak password",
			Run: func() error {
				_, err := other.Auth.Signup(ctx, service.SignupRequest{Email: "b@x.com", Password: "123", Username: "bob"})
				return err
			},
			Kind:  errors.WeakPassword,
			Class: errors.AuthError,
		},
		{
			Name: "wrong password",
			Run: func() error {
				_, err := other.Auth.Login(ctx, service.LoginRequest{Email: "a@x.com", Password: "nope"})
				return err
			},
			Kind:  errors.Credentials,
			Class: errors.AuthError,
		},
		{
			Name: "bad email",
			Run: func() error {
				_, err := other.Auth.Signup(ctx, service.SignupRequest{Email: "not-an-email", Password: "pw123456", Username: "bob"})
				return err
			},
			Kind:  errors.Invalid,
			Class: errors.ValidationError,
		},
	} {
		err := test.Run()
		if !errors.Is(test.Kind, err) || errors.ClassOf(err) != test.Class {
			t.Errorf("%s: got %v, want %v/%s", test.Name, err, test.Kind, test.Class)
		}
	}
}

func TestLoginLogout(t *testing.T) {
	t.Parallel()

	server, _ := stubServer(t)
	ctx := context.Background()

	browser := newClient(server)
	if _, err := browser.Auth.Signup(ctx, service.SignupRequest{Email: "a@x.com", Password: "pw123456", Username: "alice"}); err != nil {
		t.Fatal(err)
	}
	if _, err := browser.Auth.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := browser.Events.List(ctx); !errors.Is(errors.NotLoggedIn, err) {
		t.Fatalf("after logout Events.List got %v", err)
	}

	// A second browser has a session of its own.
	laptop := newClient(server)
	info, err := laptop.Auth.Login(ctx, service.LoginRequest{Email: "a@x.com", Password: "pw123456"})
	if err != nil {
		t.Fatal(err)
	}
	if info.User == nil || info.User.Email != "a@x.com" {
		t.Fatalf("login session = %+v", info)
	}
	if info, err := browser.Session.Get(ctx); err != nil || info.User != nil {
		t.Fatalf("first browser session = %+v, %v", info, err)
	}
}

func TestIdleLogout(t *testing.T) {
	t.Parallel()

	server, clock := stubServer(t)
	ctx := context.Background()

	browser := newClient(server)
	if _, err := browser.Auth.Signup(ctx, service.SignupRequest{Email: "a@x.com", Password: "pw123456", Username: "alice"}); err != nil {
		t.Fatal(err)
	}
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if _, err := browser.Events.Add(ctx, service.EventRequest{EventForm: calendar.EventForm{Title: "Standup"}, Date: &day}); err != nil {
		t.Fatal(err)
	}

	clock.Advance(14 * time.Minute)
	if _, err := browser.Session.Activity(ctx, "scroll"); err != nil {
		t.Fatal(err)
	}
	clock.Advance(14 * time.Minute)

	info, err := browser.Session.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.State != "active" {
		t.Fatalf("expired despite activity: %+v", info)
	}

	clock.Advance(time.Minute + time.Second)
	info, err = browser.Session.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.State != "expired" || info.User != nil {
		t.Fatalf("still signed in after the idle timeout: %+v", info)
	}

	// Signing back in shows the saved events again.
	if _, err := browser.Auth.Login(ctx, service.LoginRequest{Email: "a@x.com", Password: "pw123456"}); err != nil {
		t.Fatal(err)
	}
	events, err := browser.Events.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Title != "Standup" {
		t.Fatalf("events after login = %+v", events)
	}
}
