package rest

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bob-jr-kab/eventcal/auth"
	"github.com/bob-jr-kab/eventcal/auth/authtest"
	"github.com/bob-jr-kab/eventcal/memstore"
	"github.com/bob-jr-kab/eventcal/service"
)

func TestShiftPath(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		In, Head, Tail string
	}{
		{"/", "", "/"},
		{"/events", "events", "/"},
		{"/events/", "events", "/"},
		{"/events/abc", "events", "/abc"},
		{"events/../users/me", "users", "/me"},
		{"/events.ics", "events.ics", "/"},
	} {
		head, tail := ShiftPath(test.In)
		if head != test.Head || tail != test.Tail {
			t.Errorf("ShiftPath(%q) = %q, %q, want %q, %q", test.In, head, tail, test.Head, test.Tail)
		}
	}
}

type stubAuth struct {
	info auth.Info
	err  error
}

func (s stubAuth) FromRequest(r *http.Request) (auth.Info, error) {
	if r.Header.Get("Authorization") == "" {
		return auth.Info{}, nil
	}
	return s.info, s.err
}

func newHandler(t *testing.T, provider auth.Provider) (*Handler, *service.Service) {
	t.Helper()

	profiles := memstore.NewProfileStore()
	srv := &service.Service{
		EventStore:   memstore.NewEventStore(),
		ProfileStore: profiles,
		Gateway:      &auth.Gateway{Accounts: authtest.NewAccounts(), Profiles: profiles},
		Auth:         provider,
	}
	t.Cleanup(srv.Close)
	return New(srv), srv
}

func TestSessionCookie(t *testing.T) {
	t.Parallel()

	h, srv := newHandler(t, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/session", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /session = %d: %s", w.Code, w.Body)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookie || !cookies[0].HttpOnly {
		t.Fatalf("cookies = %v", cookies)
	}
	if srv.Clients() != 1 {
		t.Fatalf("Clients() = %d, want 1", srv.Clients())
	}

	// The cookie brings the same session back.
	r := httptest.NewRequest("GET", "/session", nil)
	r.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if len(w.Result().Cookies()) != 0 || srv.Clients() != 1 {
		t.Fatalf("known cookie started a new session")
	}

	// Health checks don't start sessions.
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	if w.Code != http.StatusOK || srv.Clients() != 1 {
		t.Fatalf("GET /healthz = %d, clients %d", w.Code, srv.Clients())
	}
}

func TestAnonymousEventsRejected(t *testing.T) {
	t.Parallel()

	h, _ := newHandler(t, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/events", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("GET /events = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"reason": "not logged in"`) {
		t.Fatalf("body = %s", w.Body)
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	h, srv := newHandler(t, stubAuth{info: auth.Info{ID: "tok-user"}})

	r := httptest.NewRequest("GET", "/events", nil)
	r.Header.Set("Authorization", "Bearer abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /events with token = %d: %s", w.Code, w.Body)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("body = %s", w.Body)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Fatal("token request got a session cookie")
	}
	if _, ok := srv.Client("token:tok-user"); !ok {
		t.Fatal("no token client registered")
	}
}

func TestExpiredToken(t *testing.T) {
	t.Parallel()

	h, _ := newHandler(t, stubAuth{err: auth.ErrExpired})

	r := httptest.NewRequest("GET", "/events", nil)
	r.Header.Set("Authorization", "Bearer old")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expired token = %d, want 401", w.Code)
	}
}

func TestSessionStream(t *testing.T) {
	t.Parallel()

	h, _ := newHandler(t, nil)
	server := httptest.NewServer(h)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequest("GET", server.URL+"/session/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	var lines []string
	for scanner.Scan() && len(lines) < 2 {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) != 2 || lines[0] != "event: session" || !strings.Contains(lines[1], `"state":"expired"`) {
		t.Fatalf("stream = %q", lines)
	}
}
