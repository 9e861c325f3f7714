package auth

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/errors"
)

// Account is a hosted account as seen right after signing in.
type Account struct {
	UID          eventcal.UserID
	Email        string
	DisplayName  string
	IDToken      string
	RefreshToken string
}

// Identity returns the session identity for the account.
func (a Account) Identity() *eventcal.Identity {
	return &eventcal.Identity{
		ID:           a.UID,
		DisplayName:  a.DisplayName,
		Email:        a.Email,
		Token:        a.IDToken,
		RefreshToken: a.RefreshToken,
	}
}

// AccountUpdate changes a hosted account. Empty fields are left alone.
type AccountUpdate struct {
	Email       string
	DisplayName string
	Password    string
}

// Accounts is the hosted account service: it stores credentials, hashes
// passwords and issues tokens.
type Accounts interface {
	SignUp(ctx context.Context, email, password, displayName string) (Account, error)
	SignIn(ctx context.Context, email, password string) (Account, error)
	SignOut(ctx context.Context, uid eventcal.UserID) error
	Update(ctx context.Context, uid eventcal.UserID, update AccountUpdate) error
}

// FirebaseAccounts keeps accounts in Firebase Authentication.
type FirebaseAccounts struct {
	Client  *auth.Client
	Toolkit *Toolkit
}

// SignUp creates the account with the Admin SDK and signs in to it.
func (f *FirebaseAccounts) SignUp(ctx context.Context, email, password, displayName string) (Account, error) {
	const op errors.Op = "FirebaseAccounts.SignUp"

	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	if _, err := f.Client.CreateUser(ctx, params); err != nil {
		return Account{}, errors.E(op, firebaseErr(err))
	}

	acct, err := f.SignIn(ctx, email, password)
	if err != nil {
		return Account{}, errors.E(op, err)
	}
	return acct, nil
}

// SignIn checks the password and returns fresh tokens.
func (f *FirebaseAccounts) SignIn(ctx context.Context, email, password string) (Account, error) {
	const op errors.Op = "FirebaseAccounts.SignIn"

	resp, err := f.Toolkit.SignInWithPassword(ctx, email, password)
	if err != nil {
		return Account{}, errors.E(op, err)
	}
	return Account{
		UID:          resp.LocalID,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// SignOut revokes every refresh token of the account, so ID tokens issued
// before now stop passing FirebaseProvider.
func (f *FirebaseAccounts) SignOut(ctx context.Context, uid eventcal.UserID) error {
	const op errors.Op = "FirebaseAccounts.SignOut"

	if err := f.Client.RevokeRefreshTokens(ctx, string(uid)); err != nil {
		return errors.E(op, uid, firebaseErr(err))
	}
	return nil
}

// Update changes the account's email, display name or password.
func (f *FirebaseAccounts) Update(ctx context.Context, uid eventcal.UserID, update AccountUpdate) error {
	const op errors.Op = "FirebaseAccounts.Update"

	params := &auth.UserToUpdate{}
	var changed bool
	if update.Email != "" {
		params = params.Email(update.Email)
		changed = true
	}
	if update.DisplayName != "" {
		params = params.DisplayName(update.DisplayName)
		changed = true
	}
	if update.Password != "" {
		params = params.Password(update.Password)
		changed = true
	}
	if !changed {
		return nil
	}

	if _, err := f.Client.UpdateUser(ctx, string(uid), params); err != nil {
		return errors.E(op, uid, firebaseErr(err))
	}
	return nil
}

// firebaseErr classifies an Admin SDK error.
func firebaseErr(err error) error {
	switch {
	case auth.IsEmailAlreadyExists(err):
		return errors.E(errors.Exist, errors.AuthError, err)
	case auth.IsUserNotFound(err):
		return errors.E(errors.NotExist, errors.AuthError, err)
	case auth.IsInvalidEmail(err):
		return errors.E(errors.Invalid, errors.AuthError, errors.Field("email"), err)
	}
	return errors.E(errors.Unavailable, errors.AuthError, err)
}
