// Package auth establishes who is using eventcal. The Gateway signs users up
// and in against the hosted account service and publishes the result on their
// session; a Provider authenticates API requests that carry their own token.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/bob-jr-kab/eventcal"
)

// ErrExpired is returned when the user tries to authenticate with an expired
// or revoked token.
var ErrExpired = errors.New("token expired")

// Provider parses requests to extract authorization info.
type Provider interface {
	FromRequest(r *http.Request) (Info, error)
}

// Info stores information about the current user
type Info struct {
	ID      eventcal.UserID
	Email   string
	IsAdmin bool
}

// WithContext decorates a context with this auth.Info object. Use auth.User
// to retrieve the auth.Info from the context.
func (i Info) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxMarkerKey, i)
}
