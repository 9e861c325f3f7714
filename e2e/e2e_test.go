// Package e2e contains end-to-end tests for the eventcal package. They test
// from the rest client all the way down to the stores.
package e2e

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bob-jr-kab/eventcal/auth"
	"github.com/bob-jr-kab/eventcal/auth/authtest"
	"github.com/bob-jr-kab/eventcal/memstore"
	"github.com/bob-jr-kab/eventcal/rest"
	"github.com/bob-jr-kab/eventcal/rest/client"
	"github.com/bob-jr-kab/eventcal/service"
	"github.com/bob-jr-kab/eventcal/session/sessiontest"
)

// stubServer starts a new httptest.Server with a stubbed out eventcal
// service. It's closed when the test ends.
func stubServer(t *testing.T) (*httptest.Server, *sessiontest.Clock) {
	srv, clock := stubService(t)
	server := httptest.NewServer(rest.New(srv))
	t.Cleanup(server.Close)
	return server, clock
}

// stubService returns an eventcal Service where all the external
// dependencies have been stubbed out: accounts live in memory, the stores
// are in-memory and time only moves when the test says so.
func stubService(t *testing.T) (*service.Service, *sessiontest.Clock) {
	clock := sessiontest.NewClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	profiles := memstore.NewProfileStore()

	srv := &service.Service{
		EventStore:   memstore.NewEventStore(),
		ProfileStore: profiles,
		Backend:      "memory",
		Gateway: &auth.Gateway{
			Accounts: authtest.NewAccounts(),
			Profiles: profiles,
		},
		Clock: clock,
	}
	t.Cleanup(srv.Close)
	return srv, clock
}

// newClient returns a client with a session of its own on server.
func newClient(server *httptest.Server) *client.Client {
	c := client.New("")
	c.BaseURL = server.URL
	return c
}
