// Package service is a programmatic API to eventcal. It binds every browser
// client to its own session, idle monitor and calendar, and checks that
// callers are signed in before touching their data.
package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/auth"
	"github.com/bob-jr-kab/eventcal/session"
)

// EventStore persists events. Every method takes the owner explicitly and
// never touches another user's events: Update reports them as missing and
// Delete ignores them.
type EventStore interface {
	Create(ctx context.Context, owner eventcal.UserID, draft eventcal.EventDraft) (eventcal.Event, error)
	ListForUser(ctx context.Context, owner eventcal.UserID) ([]eventcal.Event, error)
	Update(ctx context.Context, owner eventcal.UserID, id eventcal.EventID, update eventcal.EventUpdate) (eventcal.Event, error)
	Delete(ctx context.Context, owner eventcal.UserID, id eventcal.EventID) error
}

// ProfileStore persists user profile records.
type ProfileStore interface {
	Create(ctx context.Context, p eventcal.Profile) error
	GetByID(ctx context.Context, id eventcal.UserID) (eventcal.Profile, error)
	Update(ctx context.Context, id eventcal.UserID, update eventcal.ProfileUpdate) (eventcal.Profile, error)
}

// Service is a programmatic API to eventcal. It manages access to the stores
// and keeps one Client per browser session.
type Service struct {
	EventStore   EventStore
	ProfileStore ProfileStore
	// Backend names the event store in metrics, eg "postgres".
	Backend string

	Gateway *auth.Gateway
	Auth    auth.Provider

	// IdleTimeout is how long a signed-in client may stay inactive. Zero
	// means session.DefaultTimeout.
	IdleTimeout time.Duration
	// Location is the zone calendar days are taken in. Nil means UTC.
	Location *time.Location
	Clock    session.Clock
	Logger   *zap.Logger

	mu      sync.Mutex
	clients map[string]*Client
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) clock() session.Clock {
	if s.Clock == nil {
		return session.SystemClock
	}
	return s.Clock
}

func (s *Service) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}
