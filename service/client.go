package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/auth"
	"github.com/bob-jr-kab/eventcal/calendar"
	"github.com/bob-jr-kab/eventcal/errors"
	"github.com/bob-jr-kab/eventcal/session"
)

// Client is everything bound to one browser session.
type Client struct {
	Session  *session.Session
	Monitor  *session.Monitor
	Events   *EventGateway
	Calendar *calendar.Coordinator

	created  time.Time
	lastSeen time.Time
}

func (c *Client) close() {
	c.Monitor.Close()
	c.Calendar.Detach()
}

// NewClient starts a client with nobody signed in and registers it under a
// fresh session id.
func (s *Service) NewClient() *Client {
	return s.startClient(session.New(uuid.NewString()), s.Gateway.SignOut)
}

// TokenClient returns the client for a request authenticated by its own
// token rather than a session cookie. Its identity comes from the token, so
// going idle only clears it; the token stays valid.
func (s *Service) TokenClient(info auth.Info) *Client {
	id := "token:" + string(info.ID)
	if c, ok := s.Client(id); ok {
		if c.Session.UserID() != info.ID {
			c.Session.Set(&eventcal.Identity{ID: info.ID, Email: info.Email})
		}
		return c
	}

	c := s.startClient(session.New(id), nil)
	c.Session.Set(&eventcal.Identity{ID: info.ID, Email: info.Email})
	return c
}

func (s *Service) startClient(sess *session.Session, logout session.LogoutFunc) *Client {
	logger := s.logger().With(zap.String("session", sess.ID))

	events := &EventGateway{Session: sess, Store: s.EventStore, Backend: s.Backend}
	cal := calendar.New(events, calendar.Location(s.location()), calendar.WithLogger(logger))
	cal.Attach(sess)

	mon := session.NewMonitor(sess, logout,
		session.Timeout(s.IdleTimeout),
		session.WithClock(s.clock()),
		session.WithLogger(logger),
	)

	now := s.clock().Now()
	c := &Client{
		Session:  sess,
		Monitor:  mon,
		Events:   events,
		Calendar: cal,
		created:  now,
		lastSeen: now,
	}

	s.mu.Lock()
	if s.clients == nil {
		s.clients = make(map[string]*Client)
	}
	if old, ok := s.clients[sess.ID]; ok {
		defer old.close()
	}
	s.clients[sess.ID] = c
	s.mu.Unlock()

	return c
}

// Client looks up a registered client by session id.
func (s *Service) Client(id string) (*Client, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[id]
	if ok {
		c.lastSeen = s.clock().Now()
	}
	return c, ok
}

// CloseClient forgets a client and releases its timer and observers.
func (s *Service) CloseClient(id string) {
	s.mu.Lock()
	c, ok := s.clients[id]
	delete(s.clients, id)
	s.mu.Unlock()

	if ok {
		c.close()
	}
}

// Clients returns the number of registered clients.
func (s *Service) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Sweep closes clients that nobody is signed in to and that haven't been
// used for maxIdle. It returns how many were closed.
func (s *Service) Sweep(maxIdle time.Duration) int {
	cutoff := s.clock().Now().Add(-maxIdle)

	var stale []*Client
	s.mu.Lock()
	for id, c := range s.clients {
		if c.lastSeen.Before(cutoff) && c.Session.UserID() == "" {
			stale = append(stale, c)
			delete(s.clients, id)
		}
	}
	s.mu.Unlock()

	for _, c := range stale {
		c.close()
	}
	if len(stale) > 0 {
		s.logger().Info("swept idle clients", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// Close releases every client.
func (s *Service) Close() {
	s.mu.Lock()
	clients := s.clients
	s.clients = nil
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

type ctxMarker struct{}

var ctxMarkerKey = &ctxMarker{}

// WithClient decorates a context with the client a request belongs to.
func WithClient(ctx context.Context, c *Client) context.Context {
	return context.WithValue(ctx, ctxMarkerKey, c)
}

// ClientFrom returns the client stored in ctx by WithClient, or nil.
func ClientFrom(ctx context.Context) *Client {
	c, _ := ctx.Value(ctxMarkerKey).(*Client)
	return c
}

// signedIn returns the request's client and user, counting the call as
// activity. It fails unless someone is signed in.
func (s *Service) signedIn(ctx context.Context, op errors.Op) (*Client, eventcal.UserID, error) {
	c := ClientFrom(ctx)
	if c == nil {
		return nil, "", errors.E(op, errors.NotLoggedIn, errors.AuthError)
	}
	uid := c.Session.UserID()
	if uid == "" {
		return nil, "", errors.E(op, errors.NotLoggedIn, errors.AuthError)
	}
	c.Monitor.Touch()
	return c, uid, nil
}
