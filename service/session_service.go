package service

import (
	"context"
	"time"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/errors"
	"github.com/bob-jr-kab/eventcal/session"
)

// SignupRequest is the signup form.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// LoginRequest is the login form.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionInfo describes the state of a client's session.
type SessionInfo struct {
	User      *eventcal.Identity `json:"user"`
	State     string             `json:"state"`
	ExpiresAt *time.Time         `json:"expiresAt,omitempty"`
}

func (s *Service) client(ctx context.Context, op errors.Op) (*Client, error) {
	c := ClientFrom(ctx)
	if c == nil {
		return nil, errors.E(op, errors.Internal, "request has no session")
	}
	return c, nil
}

// Signup creates an account and signs the request's client in to it.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (SessionInfo, error) {
	const op errors.Op = "Service.Signup"

	c, err := s.client(ctx, op)
	if err != nil {
		return SessionInfo{}, err
	}
	if _, err := s.Gateway.Signup(ctx, c.Session, req.Email, req.Password, req.Username); err != nil {
		return SessionInfo{}, errors.E(op, err)
	}
	return s.sessionInfo(c), nil
}

// Login signs the request's client in.
func (s *Service) Login(ctx context.Context, req LoginRequest) (SessionInfo, error) {
	const op errors.Op = "Service.Login"

	c, err := s.client(ctx, op)
	if err != nil {
		return SessionInfo{}, err
	}
	if _, err := s.Gateway.Login(ctx, c.Session, req.Email, req.Password); err != nil {
		return SessionInfo{}, errors.E(op, err)
	}
	return s.sessionInfo(c), nil
}

// Logout signs the request's client out. Logging out twice is fine.
func (s *Service) Logout(ctx context.Context) (SessionInfo, error) {
	const op errors.Op = "Service.Logout"

	c, err := s.client(ctx, op)
	if err != nil {
		return SessionInfo{}, err
	}
	if err := s.Gateway.Logout(ctx, c.Session); err != nil {
		return s.sessionInfo(c), errors.E(op, err)
	}
	return s.sessionInfo(c), nil
}

// SessionGet reports who is signed in and when the session expires. It
// doesn't count as activity.
func (s *Service) SessionGet(ctx context.Context) (SessionInfo, error) {
	const op errors.Op = "Service.SessionGet"

	c, err := s.client(ctx, op)
	if err != nil {
		return SessionInfo{}, err
	}
	return s.sessionInfo(c), nil
}

// Activity reports user activity from the browser, pushing back the idle
// deadline.
func (s *Service) Activity(ctx context.Context, signal string) (SessionInfo, error) {
	const op errors.Op = "Service.Activity"

	c, err := s.client(ctx, op)
	if err != nil {
		return SessionInfo{}, err
	}
	sig, err := session.ParseSignal(signal)
	if err != nil {
		return SessionInfo{}, errors.E(op, err)
	}
	if err := c.Monitor.Signal(sig); err != nil {
		return SessionInfo{}, errors.E(op, err)
	}
	return s.sessionInfo(c), nil
}

// SessionWatch calls fn with the session info now and after every change of
// identity, until the returned func is called.
func (s *Service) SessionWatch(ctx context.Context, fn func(SessionInfo)) (unsubscribe func(), err error) {
	const op errors.Op = "Service.SessionWatch"

	c, err := s.client(ctx, op)
	if err != nil {
		return nil, err
	}
	return s.Gateway.ObserveSession(c.Session, func(*eventcal.Identity) {
		fn(s.sessionInfo(c))
	}), nil
}

func (s *Service) sessionInfo(c *Client) SessionInfo {
	info := SessionInfo{
		User:  c.Session.Identity(),
		State: c.Monitor.State().String(),
	}
	if d := c.Monitor.Deadline(); !d.IsZero() {
		info.ExpiresAt = &d
	}
	return info
}
