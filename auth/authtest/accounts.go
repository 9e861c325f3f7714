// Package authtest provides an in-memory account service for tests.
package authtest

import (
	"context"
	"sync"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/auth"
	"github.com/bob-jr-kab/eventcal/errors"
)

// Accounts is an auth.Accounts that keeps accounts in memory.
type Accounts struct {
	mu        sync.Mutex
	byEmail   map[string]auth.Account
	passwords map[string]string
	signOuts  []eventcal.UserID

	// SignOutErr, when set, is returned by every SignOut.
	SignOutErr error
}

var _ auth.Accounts = (*Accounts)(nil)

// NewAccounts returns an empty account service.
func NewAccounts() *Accounts {
	return &Accounts{
		byEmail:   make(map[string]auth.Account),
		passwords: make(map[string]string),
	}
}

// SignUp creates an account whose uid is "uid-" followed by the email.
func (a *Accounts) SignUp(ctx context.Context, email, password, displayName string) (auth.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.byEmail[email]; ok {
		return auth.Account{}, errors.E(errors.Exist, errors.AuthError, "EMAIL_EXISTS")
	}
	acct := auth.Account{
		UID:         eventcal.UserID("uid-" + email),
		Email:       email,
		DisplayName: displayName,
		IDToken:     "id-token",
	}
	a.byEmail[email] = acct
	a.passwords[email] = password
	return acct, nil
}

func (a *Accounts) SignIn(ctx context.Context, email, password string) (auth.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	acct, ok := a.byEmail[email]
	if !ok || a.passwords[email] != password {
		return auth.Account{}, errors.E(errors.Credentials, errors.AuthError, "INVALID_LOGIN_CREDENTIALS")
	}
	return acct, nil
}

func (a *Accounts) SignOut(ctx context.Context, uid eventcal.UserID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.signOuts = append(a.signOuts, uid)
	return a.SignOutErr
}

func (a *Accounts) Update(ctx context.Context, uid eventcal.UserID, update auth.AccountUpdate) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for email, acct := range a.byEmail {
		if acct.UID != uid {
			continue
		}
		if update.DisplayName != "" {
			acct.DisplayName = update.DisplayName
		}
		if update.Password != "" {
			a.passwords[email] = update.Password
		}
		if update.Email != "" && update.Email != email {
			a.passwords[update.Email] = a.passwords[email]
			delete(a.passwords, email)
			delete(a.byEmail, email)
			email = update.Email
			acct.Email = email
		}
		a.byEmail[email] = acct
		return nil
	}
	return errors.E(errors.NotExist, errors.AuthError, uid)
}

// SignOuts returns the users signed out so far, in order.
func (a *Accounts) SignOuts() []eventcal.UserID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]eventcal.UserID(nil), a.signOuts...)
}
