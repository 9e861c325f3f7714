package errors

import (
	"context"
	"net/http"
)

// Response is a JSON-serializable version of an Error. It can be used to
// transmit errors across the REST API.
type Response struct {
	Error string `json:"error,omitempty"`
	Class Class  `json:"class,omitempty"`
	Field Field  `json:"field,omitempty"`
	// Reason is the Kind's name. It tells apart kinds that share a status.
	Reason string `json:"reason,omitempty"`
	Status int    `json:"status,omitempty"`
}

// ToError converts an ErrorResponse back into an Error
func (e Response) ToError() error {
	var kind Kind
	switch e.Status {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		kind = NotLoggedIn
		if e.Reason == Credentials.String() {
			kind = Credentials
		}
	case http.StatusForbidden:
		kind = Permission
	case http.StatusBadRequest:
		kind = Invalid
	case http.StatusUnprocessableEntity:
		kind = WeakPassword
	case http.StatusConflict:
		kind = Exist
	case http.StatusNotFound:
		kind = NotExist
	case http.StatusServiceUnavailable:
		kind = Unavailable
	default:
		return Errorf("status %d: %s", e.Status, e.Error)
	}

	args := []interface{}{kind, e.Error}
	if e.Class != "" {
		args = append(args, e.Class)
	}
	if e.Field != "" {
		args = append(args, e.Field)
	}
	return E(args...)
}

// ResponseForError constructs an ErrorResponse based on an Error. Since this
// object is user-visible it's not a 1-1 mapping. Some errors will return
// detailed information about why the error happened in the Error and Field
// sections. Others wil just return an opaque error type.
func ResponseForError(err error) Response {
	resp := Response{
		Error:  errText(err),
		Class:  ClassOf(err),
		Status: errStatus(err),
	}
	if e, ok := err.(*Error); ok {
		resp.Field = e.Field
		if e.Kind != Other {
			resp.Reason = e.Kind.String()
		}
	}
	return resp
}

func errText(err error) string {
	if e, ok := err.(*Error); ok {
		switch e.Kind {
		case Permission:
			return "you don't have access to this item"
		case NotLoggedIn:
			return "not logged in: sign in or send a firebase ID token as an Authorization header"
		case Credentials:
			return "wrong email or password"
		case WeakPassword:
			return "password should be at least 6 characters"
		case Exist:
			if e.Class == AuthError {
				return "an account with this email already exists"
			}
			return e.Error()
		case Invalid, NotExist:
			return e.Error()
		}
	}

	return http.StatusText(errStatus(err))
}

func errStatus(err error) int {
	switch err {
	case context.Canceled:
		return http.StatusBadRequest
	}

	if e, ok := err.(*Error); ok {
		switch e.Kind {
		case Other:
			return http.StatusInternalServerError
		case Invalid:
			return http.StatusBadRequest
		case NotLoggedIn, Credentials:
			return http.StatusUnauthorized
		case Permission:
			return http.StatusForbidden
		case NotExist:
			return http.StatusNotFound
		case Exist:
			return http.StatusConflict
		case WeakPassword:
			return http.StatusUnprocessableEntity
		case Unavailable:
			return http.StatusServiceUnavailable
		case Internal:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}

	return http.StatusInternalServerError
}
