package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"

	"github.com/bob-jr-kab/eventcal"
)

// FirebaseProvider is an auth provider backed by Firebase Authentication
type FirebaseProvider struct {
	AuthClient *auth.Client
	AdminUIDs  []string
}

// FromRequest parses an Authorization header or Cookie as a Firebase JWT
// token. Tokens whose refresh tokens were revoked by a logout are rejected.
func (f *FirebaseProvider) FromRequest(r *http.Request) (Info, error) {
	tokenStr, err := parseRequest(r)
	if err != nil {
		return Info{}, err
	}
	if tokenStr == "" {
		return Info{}, nil
	}

	token, err := f.AuthClient.VerifyIDTokenAndCheckRevoked(r.Context(), tokenStr)
	if auth.IsIDTokenExpired(err) || auth.IsIDTokenRevoked(err) {
		return Info{}, ErrExpired
	} else if err != nil {
		return Info{}, err
	}

	var isAdmin bool
	for _, u := range f.AdminUIDs {
		if u == token.UID {
			isAdmin = true
			break
		}
	}

	email, _ := token.Claims["email"].(string)

	return Info{
		ID:      eventcal.UserID(token.UID),
		Email:   email,
		IsAdmin: isAdmin,
	}, nil
}

func parseRequest(r *http.Request) (string, error) {
	// First try to get it from a cookie
	cookie, err := r.Cookie("jwt")
	if err == nil {
		return cookie.Value, nil
	}

	// Then see if it's in a Bearer token
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", nil
	}

	authParts := strings.Split(auth, " ")
	if len(authParts) != 2 {
		return "", errors.New("malformed Authorization header")
	}

	authType := authParts[0]
	tokenString := authParts[1]

	if authType != "Bearer" {
		return "", fmt.Errorf("unknown auth type %q", authType)
	}

	return tokenString, nil
}
