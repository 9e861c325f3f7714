package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/errors"
)

// DefaultToolkitURL is the Identity Toolkit REST endpoint.
const DefaultToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// EmulatorToolkitURL returns the Identity Toolkit endpoint of a Firebase Auth
// emulator listening on host, as found in FIREBASE_AUTH_EMULATOR_HOST.
func EmulatorToolkitURL(host string) string {
	return fmt.Sprintf("http://%s/identitytoolkit.googleapis.com/v1", host)
}

// Toolkit signs users in through the Identity Toolkit REST API. The Admin SDK
// can create and manage accounts but can't check a password, so sign-in goes
// through the same public API the web client uses.
type Toolkit struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// SignInResponse is the result of a successful sign-in.
type SignInResponse struct {
	LocalID      eventcal.UserID `json:"localId"`
	Email        string          `json:"email"`
	DisplayName  string          `json:"displayName"`
	IDToken      string          `json:"idToken"`
	RefreshToken string          `json:"refreshToken"`
	ExpiresIn    string          `json:"expiresIn"`
}

type toolkitError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignInWithPassword exchanges an email and password for tokens.
func (t *Toolkit) SignInWithPassword(ctx context.Context, email, password string) (SignInResponse, error) {
	const op errors.Op = "Toolkit.SignInWithPassword"

	var resp SignInResponse
	err := t.call(ctx, "accounts:signInWithPassword", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return resp, errors.E(op, err)
	}
	return resp, nil
}

// SignInWithCustomToken exchanges a token minted by the Admin SDK for an ID
// token.
func (t *Toolkit) SignInWithCustomToken(ctx context.Context, token string) (SignInResponse, error) {
	const op errors.Op = "Toolkit.SignInWithCustomToken"

	var resp SignInResponse
	err := t.call(ctx, "accounts:signInWithCustomToken", map[string]interface{}{
		"token":             token,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return resp, errors.E(op, err)
	}
	return resp, nil
}

func (t *Toolkit) call(ctx context.Context, method string, body, dst interface{}) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return errors.E(errors.Internal, errors.AuthError, err)
	}

	base := t.BaseURL
	if base == "" {
		base = DefaultToolkitURL
	}
	url := fmt.Sprintf("%s/%s?key=%s", strings.TrimSuffix(base, "/"), method, t.APIKey)

	req, err := http.NewRequest("POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return errors.E(errors.Internal, errors.AuthError, err)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.E(errors.Unavailable, errors.AuthError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var terr toolkitError
		if err := json.NewDecoder(resp.Body).Decode(&terr); err != nil {
			return errors.E(errors.Unavailable, errors.AuthError, errors.Errorf("identity toolkit: %s", resp.Status))
		}
		return toolkitErr(terr.Error.Message)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return errors.E(errors.Internal, errors.AuthError, err)
	}
	return nil
}

// toolkitErr maps an Identity Toolkit error message, such as
// "WEAK_PASSWORD : Password should be at least 6 characters", to an error.
func toolkitErr(msg string) error {
	code := msg
	if i := strings.IndexAny(code, " :"); i >= 0 {
		code = code[:i]
	}

	var kind errors.Kind
	switch code {
	case "EMAIL_EXISTS":
		kind = errors.Exist
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		kind = errors.Credentials
	case "WEAK_PASSWORD":
		kind = errors.WeakPassword
	case "INVALID_EMAIL", "MISSING_PASSWORD", "MISSING_EMAIL", "INVALID_CUSTOM_TOKEN":
		kind = errors.Invalid
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		kind = errors.Unavailable
	default:
		kind = errors.Other
	}
	return errors.E(kind, errors.AuthError, errors.Str(msg))
}
