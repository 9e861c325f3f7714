package auth

import (
	"context"
	"testing"

	"github.com/go-test/deep"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/errors"
	"github.com/bob-jr-kab/eventcal/session"
)

type stubAccounts struct {
	byEmail    map[string]Account
	passwords  map[string]string
	signOuts   []eventcal.UserID
	updates    []AccountUpdate
	calls      int
	signOutErr error
	onSignOut  func()
}

func newStubAccounts() *stubAccounts {
	return &stubAccounts{
		byEmail:   make(map[string]Account),
		passwords: make(map[string]string),
	}
}

func (s *stubAccounts) SignUp(ctx context.Context, email, password, displayName string) (Account, error) {
	s.calls++
	if _, ok := s.byEmail[email]; ok {
		return Account{}, errors.E(errors.Exist, errors.AuthError, "EMAIL_EXISTS")
	}
	acct := Account{UID: eventcal.UserID("uid-" + email), Email: email, DisplayName: displayName, IDToken: "tok"}
	s.byEmail[email] = acct
	s.passwords[email] = password
	return acct, nil
}

func (s *stubAccounts) SignIn(ctx context.Context, email, password string) (Account, error) {
	s.calls++
	acct, ok := s.byEmail[email]
	if !ok || s.passwords[email] != password {
		return Account{}, errors.E(errors.Credentials, errors.AuthError, "INVALID_LOGIN_CREDENTIALS")
	}
	return acct, nil
}

func (s *stubAccounts) SignOut(ctx context.Context, uid eventcal.UserID) error {
	s.calls++
	s.signOuts = append(s.signOuts, uid)
	if s.onSignOut != nil {
		s.onSignOut()
	}
	return s.signOutErr
}

func (s *stubAccounts) Update(ctx context.Context, uid eventcal.UserID, update AccountUpdate) error {
	s.calls++
	s.updates = append(s.updates, update)
	return nil
}

type stubProfiles map[eventcal.UserID]eventcal.Profile

func (s stubProfiles) Create(ctx context.Context, p eventcal.Profile) error {
	s[p.UserID] = p
	return nil
}

func (s stubProfiles) GetByID(ctx context.Context, id eventcal.UserID) (eventcal.Profile, error) {
	p, ok := s[id]
	if !ok {
		return p, errors.E(errors.NotExist, errors.StoreError)
	}
	return p, nil
}

func (s stubProfiles) Update(ctx context.Context, id eventcal.UserID, u eventcal.ProfileUpdate) (eventcal.Profile, error) {
	p := s[id]
	if u.Has("username") {
		p.Username = u.Username
	}
	if u.Has("email") {
		p.Email = u.Email
	}
	s[id] = p
	return p, nil
}

func newGateway() (*Gateway, *stubAccounts, stubProfiles) {
	accounts := newStubAccounts()
	profiles := stubProfiles{}
	return &Gateway{Accounts: accounts, Profiles: profiles}, accounts, profiles
}

func TestSignupCreatesProfileAndSession(t *testing.T) {
	ctx := context.Background()
	g, _, profiles := newGateway()
	sess := session.New("s1")

	var seen []*eventcal.Identity
	unsubscribe := g.ObserveSession(sess, func(id *eventcal.Identity) { seen = append(seen, id) })
	defer unsubscribe()

	id, err := g.Signup(ctx, sess, " a@x.com ", "pw123456", "alice")
	if err != nil {
		t.Fatal(err)
	}

	if diff := deep.Equal(profiles[id.ID], eventcal.Profile{UserID: id.ID, Username: "alice", Email: "a@x.com"}); diff != nil {
		t.Errorf("profile: %v", diff)
	}
	if got := sess.Identity(); got == nil || got.DisplayName != "alice" {
		t.Errorf("session identity = %+v", got)
	}
	if len(seen) != 2 || seen[0] != nil || seen[1].ID != id.ID {
		t.Errorf("observer saw %+v, want nil then the new identity", seen)
	}
}

func TestSignupFailures(t *testing.T) {
	ctx := context.Background()

	for _, test := range []struct {
		Name      string
		Email     string
		Password  string
		Username  string
		WantKind  errors.Kind
		WantClass errors.Class
		Offline   bool
	}{
		{Name: "weak password", Email: "b@x.com", Password: "12345", Username: "bob", WantKind: errors.WeakPassword, WantClass: errors.AuthError, Offline: true},
		{Name: "bad email", Email: "bob", Password: "pw123456", Username: "bob", WantKind: errors.Invalid, WantClass: errors.ValidationError, Offline: true},
		{Name: "no username", Email: "b@x.com", Password: "pw123456", WantKind: errors.Invalid, WantClass: errors.ValidationError, Offline: true},
		{Name: "duplicate", Email: "a@x.com", Password: "pw123456", Username: "again", WantKind: errors.Exist, WantClass: errors.AuthError},
	} {
		t.Run(test.Name, func(t *testing.T) {
			g, accounts, _ := newGateway()
			if _, err := g.Signup(ctx, session.New("first"), "a@x.com", "pw123456", "alice"); err != nil {
				t.Fatal(err)
			}
			calls := accounts.calls

			sess := session.New("s1")
			_, err := g.Signup(ctx, sess, test.Email, test.Password, test.Username)
			if !errors.Is(test.WantKind, err) || errors.ClassOf(err) != test.WantClass {
				t.Fatalf("Signup() = %v, want %v %v", err, test.WantClass, test.WantKind)
			}
			if sess.Identity() != nil {
				t.Fatal("failed signup signed the session in")
			}
			if test.Offline && accounts.calls != calls {
				t.Fatal("rejected signup reached the account service")
			}
		})
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	g, _, profiles := newGateway()
	if _, err := g.Signup(ctx, session.New("s0"), "a@x.com", "pw123456", "alice"); err != nil {
		t.Fatal(err)
	}

	sess := session.New("s1")
	if _, err := g.Login(ctx, sess, "a@x.com", "wrong"); !errors.Is(errors.Credentials, err) || errors.ClassOf(err) != errors.AuthError {
		t.Fatalf("Login(wrong) = %v, want auth credentials error", err)
	}
	if sess.Identity() != nil {
		t.Fatal("failed login signed in")
	}

	// A lost profile record is recreated on login.
	delete(profiles, "uid-a@x.com")
	id, err := g.Login(ctx, sess, "a@x.com", "pw123456")
	if err != nil {
		t.Fatal(err)
	}
	if sess.UserID() != id.ID {
		t.Fatalf("session user = %q, want %q", sess.UserID(), id.ID)
	}
	if p, ok := profiles[id.ID]; !ok || p.Username != "alice" {
		t.Fatalf("profile not repaired: %+v", p)
	}
}

func TestLogoutIdempotentAndBestEffort(t *testing.T) {
	ctx := context.Background()
	g, accounts, _ := newGateway()
	sess := session.New("s1")

	if err := g.Logout(ctx, sess); err != nil {
		t.Fatal(err)
	}
	if len(accounts.signOuts) != 0 {
		t.Fatal("logout without a session reached the account service")
	}

	if _, err := g.Signup(ctx, sess, "a@x.com", "pw123456", "alice"); err != nil {
		t.Fatal(err)
	}
	accounts.signOutErr = errors.E(errors.Unavailable, errors.AuthError, "network down")
	if err := g.Logout(ctx, sess); !errors.Is(errors.Unavailable, err) {
		t.Fatalf("Logout() = %v, want unavailable", err)
	}
	if sess.Identity() != nil {
		t.Fatal("session kept after failed logout")
	}
	if err := g.Logout(ctx, sess); err != nil {
		t.Fatalf("second Logout() = %v", err)
	}
}

func TestLogoutClearsSessionFirst(t *testing.T) {
	ctx := context.Background()
	g, accounts, _ := newGateway()
	sess := session.New("s1")

	id, err := g.Signup(ctx, sess, "a@x.com", "pw123456", "alice")
	if err != nil {
		t.Fatal(err)
	}
	accounts.onSignOut = func() {
		if got := sess.UserID(); got != "" {
			t.Errorf("session still signed in as %q during hosted sign-out", got)
		}
	}
	if err := g.Logout(ctx, sess); err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(accounts.signOuts, []eventcal.UserID{id.ID}); diff != nil {
		t.Error(diff)
	}
}

func TestUpdateAccount(t *testing.T) {
	ctx := context.Background()
	g, accounts, profiles := newGateway()
	sess := session.New("s1")

	if _, err := g.UpdateAccount(ctx, sess, eventcal.ProfileUpdate{Username: "x", Mask: "username"}); !errors.Is(errors.NotLoggedIn, err) {
		t.Fatalf("UpdateAccount() signed out = %v", err)
	}

	id, err := g.Signup(ctx, sess, "a@x.com", "pw123456", "alice")
	if err != nil {
		t.Fatal(err)
	}

	_, err = g.UpdateAccount(ctx, sess, eventcal.ProfileUpdate{Password: "newpass1", ConfirmPassword: "newpass2", Mask: "password"})
	if e, ok := err.(*errors.Error); !ok || e.Field != "confirmPassword" {
		t.Fatalf("mismatched passwords: %v", err)
	}

	profile, err := g.UpdateAccount(ctx, sess, eventcal.ProfileUpdate{
		Username:        "Alice",
		Email:           "alice@x.com",
		Password:        "newpass1",
		ConfirmPassword: "newpass1",
		Mask:            "username,email,password",
	})
	if err != nil {
		t.Fatal(err)
	}

	if diff := deep.Equal(profile, eventcal.Profile{UserID: id.ID, Username: "Alice", Email: "alice@x.com"}); diff != nil {
		t.Errorf("profile: %v", diff)
	}
	if diff := deep.Equal(profiles[id.ID], profile); diff != nil {
		t.Errorf("stored profile: %v", diff)
	}
	if diff := deep.Equal(accounts.updates, []AccountUpdate{{Email: "alice@x.com", DisplayName: "Alice", Password: "newpass1"}}); diff != nil {
		t.Errorf("account updates: %v", diff)
	}
	if got := sess.Identity(); got.DisplayName != "Alice" || got.Email != "alice@x.com" {
		t.Errorf("identity not republished: %+v", got)
	}
}
