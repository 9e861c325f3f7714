package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/errors"
	"github.com/bob-jr-kab/eventcal/prom"
)

// DefaultTimeout is how long a signed-in session may go without activity
// before it's logged out.
const DefaultTimeout = 15 * time.Minute

// State is the idle monitor's state.
type State int

const (
	// Expired means nobody is signed in, either because the idle deadline
	// passed or because the session never had an identity. It isn't
	// terminal: the next login makes the monitor Active again.
	Expired State = iota
	// Active means a user is signed in and the idle deadline is running.
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "expired"
}

// Signal is a kind of user activity reported by the client.
type Signal string

// The activity signals that push the idle deadline back.
const (
	PointerMove Signal = "pointermove"
	KeyPress    Signal = "keydown"
	Scroll      Signal = "scroll"
	Click       Signal = "click"
)

// ParseSignal checks that s names one of the activity signals.
func ParseSignal(s string) (Signal, error) {
	switch sig := Signal(s); sig {
	case PointerMove, KeyPress, Scroll, Click:
		return sig, nil
	}
	return "", errors.E(errors.Op("session.ParseSignal"), errors.Invalid, errors.ValidationError,
		errors.Field("signal"), errors.Errorf("unknown activity signal %q", s))
}

// Clock mocks out time for testing.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the part of *time.Timer the monitor uses.
type Timer interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock is the real wall clock.
var SystemClock Clock = systemClock{}

// LogoutFunc revokes uid's sign-in at the auth provider. The session has
// already been cleared when it's called.
type LogoutFunc func(ctx context.Context, uid eventcal.UserID) error

// LogoutTimeout bounds the remote logout made on expiry.
const LogoutTimeout = 10 * time.Second

// An Option configures a Monitor.
type Option func(*Monitor)

// Timeout sets the inactivity window. Non-positive values are ignored.
func Timeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(c Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

// WithLogger sets the logger used to report expiries.
func WithLogger(l *zap.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// Monitor logs a session out after a period without activity.
//
// It watches the session: when someone signs in it becomes Active and starts
// the deadline, and every activity Signal pushes the deadline back. When the
// deadline passes it clears the session identity and then calls the logout
// func, so the client is signed out even while the provider is slow or down.
//
// A Monitor holds one session observer and at most one timer. Close releases
// both.
type Monitor struct {
	sess    *Session
	logout  LogoutFunc
	timeout time.Duration
	clock   Clock
	logger  *zap.Logger

	mu        sync.Mutex
	state     State
	timer     Timer
	deadline  time.Time
	gen       uint64
	closed    bool
	unobserve func()
}

// NewMonitor starts watching sess. logout may be nil, in which case expiry
// only clears the session.
func NewMonitor(sess *Session, logout LogoutFunc, opts ...Option) *Monitor {
	m := &Monitor{
		sess:    sess,
		logout:  logout,
		timeout: DefaultTimeout,
		clock:   SystemClock,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	unobserve := sess.Observe(m.onIdentity)

	m.mu.Lock()
	m.unobserve = unobserve
	m.mu.Unlock()

	return m
}

// State returns the monitor's current state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Deadline returns when the session will expire without further activity.
// It's the zero time unless the monitor is Active.
func (m *Monitor) Deadline() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Active {
		return time.Time{}
	}
	return m.deadline
}

// Signal reports user activity of kind sig. It fails only for unknown
// signals; otherwise it acts like Touch.
func (m *Monitor) Signal(sig Signal) error {
	if _, err := ParseSignal(string(sig)); err != nil {
		return err
	}
	m.Touch()
	return nil
}

// Touch records activity. While Active it resets the deadline to now plus
// the timeout; otherwise it does nothing.
func (m *Monitor) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.state != Active {
		return
	}
	m.arm()
}

// Close detaches the monitor from its session and stops the deadline. It's
// safe to call more than once.
func (m *Monitor) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.disarm()
	if m.state == Active {
		m.state = Expired
		prom.SessionsActive.Dec()
	}
	unobserve := m.unobserve
	m.mu.Unlock()

	if unobserve != nil {
		unobserve()
	}
}

func (m *Monitor) onIdentity(id *eventcal.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	if id == nil {
		m.disarm()
		if m.state == Active {
			m.state = Expired
			prom.SessionsActive.Dec()
		}
		return
	}

	if m.state != Active {
		m.state = Active
		prom.SessionsActive.Inc()
	}
	m.arm()
}

// arm restarts the deadline. m.mu must be held.
func (m *Monitor) arm() {
	m.disarm()
	m.gen++
	gen := m.gen
	m.deadline = m.clock.Now().Add(m.timeout)
	m.timer = m.clock.AfterFunc(m.timeout, func() { m.expire(gen) })
}

// disarm stops the deadline. m.mu must be held.
func (m *Monitor) disarm() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.deadline = time.Time{}
}

func (m *Monitor) expire(gen uint64) {
	m.mu.Lock()
	// A timer that was reset or stopped after it started firing.
	if m.closed || gen != m.gen || m.state != Active {
		m.mu.Unlock()
		return
	}
	m.state = Expired
	m.timer = nil
	m.deadline = time.Time{}
	userID := m.sess.UserID()
	m.mu.Unlock()

	prom.SessionsActive.Dec()
	prom.IdleLogouts.Inc()

	logger := m.logger.With(zap.String("session", m.sess.ID), zap.String("userid", string(userID)))
	logger.Info("session idle, logging out", zap.Duration("timeout", m.timeout))

	m.sess.Set(nil)

	if m.logout == nil || userID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), LogoutTimeout)
	defer cancel()
	if err := m.logout(ctx, userID); err != nil {
		logger.Warn("idle logout failed", zap.Error(err))
	}
}
