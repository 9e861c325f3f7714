package auth

import (
	"context"
	"strings"
	"unicode/utf8"

	emailaddress "github.com/mcnijman/go-emailaddress"
	"go.uber.org/zap"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/errors"
	"github.com/bob-jr-kab/eventcal/session"
)

// MinPasswordLength is the shortest password the hosted account service
// accepts.
const MinPasswordLength = 6

// Profiles stores the user profile records kept next to hosted accounts.
type Profiles interface {
	Create(ctx context.Context, p eventcal.Profile) error
	GetByID(ctx context.Context, id eventcal.UserID) (eventcal.Profile, error)
	Update(ctx context.Context, id eventcal.UserID, update eventcal.ProfileUpdate) (eventcal.Profile, error)
}

// Gateway is the only thing that changes who a session belongs to. It talks
// to the hosted account service and publishes the outcome on the session,
// which is how everything else finds out.
type Gateway struct {
	Accounts Accounts
	Profiles Profiles
	Logger   *zap.Logger
}

func (g *Gateway) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

// Signup creates an account and its profile record, then signs sess in.
func (g *Gateway) Signup(ctx context.Context, sess *session.Session, email, password, username string) (*eventcal.Identity, error) {
	const op errors.Op = "Gateway.Signup"

	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)

	if username == "" {
		return nil, errors.E(op, errors.Invalid, errors.ValidationError, errors.Field("username"), "username is required")
	}
	if err := checkEmail(email); err != nil {
		return nil, errors.E(op, err)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, errors.E(op, errors.WeakPassword, errors.AuthError, errors.Field("password"),
			errors.Errorf("password must be at least %d characters", MinPasswordLength))
	}

	acct, err := g.Accounts.SignUp(ctx, email, password, username)
	if err != nil {
		return nil, errors.E(op, err)
	}

	profile := eventcal.Profile{UserID: acct.UID, Username: username, Email: email}
	if err := g.Profiles.Create(ctx, profile); err != nil {
		// The account exists now; Login recreates the profile.
		g.logger().Warn("profile create failed after signup", zap.String("userid", string(acct.UID)), zap.Error(err))
		return nil, errors.E(op, acct.UID, err)
	}

	if acct.DisplayName == "" {
		acct.DisplayName = username
	}
	id := acct.Identity()
	sess.Set(id)
	return id, nil
}

// Login signs sess in with an email and password.
func (g *Gateway) Login(ctx context.Context, sess *session.Session, email, password string) (*eventcal.Identity, error) {
	const op errors.Op = "Gateway.Login"

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.E(op, errors.Credentials, errors.AuthError, "email and password are required")
	}

	acct, err := g.Accounts.SignIn(ctx, email, password)
	if err != nil {
		return nil, errors.E(op, err)
	}

	if err := g.ensureProfile(ctx, acct); err != nil {
		g.logger().Warn("profile repair failed", zap.String("userid", string(acct.UID)), zap.Error(err))
	}

	id := acct.Identity()
	sess.Set(id)
	return id, nil
}

// ensureProfile creates the profile record of an account that lost it, for
// instance when signup failed halfway.
func (g *Gateway) ensureProfile(ctx context.Context, acct Account) error {
	_, err := g.Profiles.GetByID(ctx, acct.UID)
	if !errors.Is(errors.NotExist, err) {
		return err
	}
	username := acct.DisplayName
	if username == "" {
		username = strings.SplitN(acct.Email, "@", 2)[0]
	}
	return g.Profiles.Create(ctx, eventcal.Profile{UserID: acct.UID, Username: username, Email: acct.Email})
}

// Logout ends the session. It's a no-op when nobody is signed in. The session
// is cleared before the hosted sign-out is attempted, so a failing or slow
// provider never keeps it signed in; the provider's error is still returned.
func (g *Gateway) Logout(ctx context.Context, sess *session.Session) error {
	const op errors.Op = "Gateway.Logout"

	uid := sess.UserID()
	if uid == "" {
		return nil
	}
	sess.Set(nil)

	if err := g.SignOut(ctx, uid); err != nil {
		return errors.E(op, err)
	}
	return nil
}

// SignOut revokes uid's hosted sign-in without touching any session.
func (g *Gateway) SignOut(ctx context.Context, uid eventcal.UserID) error {
	const op errors.Op = "Gateway.SignOut"

	if err := g.Accounts.SignOut(ctx, uid); err != nil {
		return errors.E(op, uid, err)
	}
	return nil
}

// ObserveSession calls fn with the identity on sess now and after every
// change, until the returned func is called.
func (g *Gateway) ObserveSession(sess *session.Session, fn session.Observer) (unsubscribe func()) {
	return sess.Observe(fn)
}

// UpdateAccount applies the settings page: username, email and password
// changes go to the hosted account and the profile record, and the session
// identity is republished.
func (g *Gateway) UpdateAccount(ctx context.Context, sess *session.Session, update eventcal.ProfileUpdate) (eventcal.Profile, error) {
	const op errors.Op = "Gateway.UpdateAccount"

	current := sess.Identity()
	if current == nil {
		return eventcal.Profile{}, errors.E(op, errors.NotLoggedIn, errors.AuthError)
	}
	uid := current.ID

	var acct AccountUpdate
	if update.Has("username") {
		update.Username = strings.TrimSpace(update.Username)
		if update.Username == "" {
			return eventcal.Profile{}, errors.E(op, uid, errors.Invalid, errors.ValidationError, errors.Field("username"), "username is required")
		}
		acct.DisplayName = update.Username
	}
	if update.Has("email") {
		update.Email = strings.TrimSpace(update.Email)
		if err := checkEmail(update.Email); err != nil {
			return eventcal.Profile{}, errors.E(op, uid, err)
		}
		acct.Email = update.Email
	}
	if update.Has("password") {
		if update.Password != update.ConfirmPassword {
			return eventcal.Profile{}, errors.E(op, uid, errors.Invalid, errors.ValidationError, errors.Field("confirmPassword"), "passwords do not match")
		}
		if utf8.RuneCountInString(update.Password) < MinPasswordLength {
			return eventcal.Profile{}, errors.E(op, uid, errors.WeakPassword, errors.AuthError, errors.Field("password"),
				errors.Errorf("password must be at least %d characters", MinPasswordLength))
		}
		acct.Password = update.Password
	}

	if err := g.Accounts.Update(ctx, uid, acct); err != nil {
		return eventcal.Profile{}, errors.E(op, uid, err)
	}

	// The password never reaches the profile store.
	update.Password, update.ConfirmPassword = "", ""
	profile, err := g.Profiles.Update(ctx, uid, update)
	if err != nil {
		return eventcal.Profile{}, errors.E(op, uid, err)
	}

	next := *current
	if acct.DisplayName != "" {
		next.DisplayName = acct.DisplayName
	}
	if acct.Email != "" {
		next.Email = acct.Email
	}
	if next != *current {
		sess.Set(&next)
	}
	return profile, nil
}

func checkEmail(email string) error {
	if email == "" {
		return errors.E(errors.Invalid, errors.ValidationError, errors.Field("email"), "email is required")
	}
	if _, err := emailaddress.Parse(email); err != nil {
		return errors.E(errors.Invalid, errors.ValidationError, errors.Field("email"), err)
	}
	return nil
}
