// Package rest contains a REST handler for eventcal. It wraps Service in a
// web-accessible API.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/auth"
	"github.com/bob-jr-kab/eventcal/errors"
	"github.com/bob-jr-kab/eventcal/log"
	"github.com/bob-jr-kab/eventcal/prom"
	"github.com/bob-jr-kab/eventcal/service"
)

// SessionCookie holds the id of the browser's session.
const SessionCookie = "eventcal_sid"

// New creates a new REST service wrapping an eventcal Service.
func New(service *service.Service) *Handler {
	return &Handler{
		Auth:    service.Auth,
		Service: service,

		AuthHandler:     newAuthHandler(service),
		SessionHandler:  newSessionHandler(service),
		CalendarHandler: newCalendarHandler(service),
		EventsHandler:   newEventsHandler(service),
		UsersHandler:    newUsersHandler(service),
	}
}

// Handler is an http.Handler that provides a REST interface for eventcal.
type Handler struct {
	// Auth authenticates API requests that carry their own ID token. Browser
	// requests use the session cookie instead. May be nil.
	Auth    auth.Provider
	Service *service.Service

	// CookieSecure marks the session cookie Secure, for HTTPS deployments.
	CookieSecure bool
	// AdminUIDs see full error messages.
	AdminUIDs []string

	AuthHandler     *AuthHandler
	SessionHandler  *SessionHandler
	CalendarHandler *CalendarHandler
	EventsHandler   *EventsHandler
	UsersHandler    *UsersHandler
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var head string
	head, r.URL.Path = ShiftPath(r.URL.Path)

	switch head {
	case "healthz":
		fmt.Fprintln(w, "ok")
		return
	case "metrics":
		prom.Handler().ServeHTTP(w, r)
		return
	}

	// Retrieve the logger from HTTP middleware, if set.
	ctx := r.Context()
	logger := log.FromContext(ctx)

	client, info, err := h.client(w, r)
	if err == auth.ErrExpired {
		writeErrorResp(w, errors.Response{
			Error:  "auth token expired",
			Class:  errors.AuthError,
			Status: http.StatusUnauthorized,
		})
		return

	} else if err != nil {
		logger.Warn("parse auth failed", zap.Error(err))
	}
	ctx = service.WithClient(ctx, client)
	ctx = info.WithContext(ctx)

	// Decorate the logger with the user and session ids
	logger = logger.With(
		zap.String("userid", string(info.ID)),
		zap.String("session", client.Session.ID),
	)
	ctx = log.ToContext(ctx, logger)
	r = r.WithContext(ctx)

	switch head {
	case "auth":
		if h.AuthHandler != nil {
			h.AuthHandler.ServeHTTP(w, r)
		} else {
			http.NotFound(w, r)
		}

	case "session":
		if h.SessionHandler != nil {
			h.SessionHandler.ServeHTTP(w, r)
		} else {
			http.NotFound(w, r)
		}

	case "calendar":
		if h.CalendarHandler != nil {
			h.CalendarHandler.ServeHTTP(w, r)
		} else {
			http.NotFound(w, r)
		}

	case "events":
		if h.EventsHandler != nil {
			h.EventsHandler.ServeHTTP(w, r)
		} else {
			http.NotFound(w, r)
		}

	case "events.ics":
		if h.EventsHandler != nil && r.URL.Path == "/" && r.Method == http.MethodGet {
			h.EventsHandler.export.ServeHTTP(w, r)
		} else {
			http.NotFound(w, r)
		}

	case "users":
		if h.UsersHandler != nil {
			h.UsersHandler.ServeHTTP(w, r)
		} else {
			http.NotFound(w, r)
		}

	default:
		http.NotFound(w, r)
	}
}

// client finds the service client a request belongs to. Requests with a
// valid ID token get a client of their own; everything else goes through
// the session cookie, which is issued on first contact.
func (h *Handler) client(w http.ResponseWriter, r *http.Request) (*service.Client, auth.Info, error) {
	var (
		info auth.Info
		err  error
	)
	if h.Auth != nil {
		info, err = h.Auth.FromRequest(r)
		if err == auth.ErrExpired {
			return nil, auth.Info{}, err
		}
		if err == nil && info.ID != "" {
			return h.Service.TokenClient(info), info, nil
		}
	}

	c := h.sessionClient(w, r)
	if id := c.Session.Identity(); id != nil {
		info = auth.Info{ID: id.ID, Email: id.Email}
	}
	info.IsAdmin = info.IsAdmin || h.isAdmin(info.ID)
	return c, info, err
}

func (h *Handler) sessionClient(w http.ResponseWriter, r *http.Request) *service.Client {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if c, ok := h.Service.Client(cookie.Value); ok {
			return c
		}
	}

	c := h.Service.NewClient()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    c.Session.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return c
}

func (h *Handler) isAdmin(id eventcal.UserID) bool {
	if id == "" {
		return false
	}
	for _, uid := range h.AdminUIDs {
		if eventcal.UserID(uid) == id {
			return true
		}
	}
	return false
}

// ShiftPath splits off the first component of p, which will be cleaned of
// relative components before processing. head will never contain a slash and
// tail will always be a rooted path without trailing slash.
func ShiftPath(p string) (head, tail string) {
	p = path.Clean("/" + p)
	i := strings.Index(p[1:], "/") + 1
	if i <= 0 {
		return p[1:], "/"
	}
	return p[1:i], p[i:]
}

func handleJSON(w http.ResponseWriter, r *http.Request, f func(context.Context) (interface{}, error)) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	resp, err := f(ctx)
	if err != nil {
		errResp := errors.ResponseForError(err)
		if errResp.Status >= 500 {
			logger.Error("internal server error", zap.Error(err))
		} else {
			logger.Warn("handler failed", zap.Error(err))
		}

		if auth.User(ctx).IsAdmin { // show the full error if it's an admin
			errResp.Error = fmt.Sprintf("%s: %s", errResp.Error, err.Error())
		}

		writeErrorResp(w, errResp)
		return
	}

	js, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		logger.Error("write json failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(js)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.E(errors.Invalid, errors.ValidationError, err)
	}
	return nil
}

func writeErrorResp(w http.ResponseWriter, resp errors.Response) {
	js, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(resp.Status)
	w.Write(js)
}
