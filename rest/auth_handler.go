package rest

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bob-jr-kab/eventcal/prom"
	"github.com/bob-jr-kab/eventcal/service"
)

// AuthHandler provides a REST interface to signup, login and logout. They
// act on the session named by the request's cookie.
type AuthHandler struct {
	http.Handler // router

	service *service.Service
}

func newAuthHandler(service *service.Service) *AuthHandler {
	h := &AuthHandler{
		service: service,
	}

	m := mux.NewRouter()
	m.Handle(
		"/signup",
		prom.InstrumentHandler("AuthSignup", http.HandlerFunc(h.HandleSignup)),
	).Methods("POST")
	m.Handle(
		"/login",
		prom.InstrumentHandler("AuthLogin", http.HandlerFunc(h.HandleLogin)),
	).Methods("POST")
	m.Handle(
		"/logout",
		prom.InstrumentHandler("AuthLogout", http.HandlerFunc(h.HandleLogout)),
	).Methods("POST")
	h.Handler = m

	return h
}

// HandleSignup wraps Service.Signup in a REST interface
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	handleJSON(w, r, func(ctx context.Context) (interface{}, error) {
		var req service.SignupRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return h.service.Signup(ctx, req)
	})
}

// HandleLogin wraps Service.Login in a REST interface
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	handleJSON(w, r, func(ctx context.Context) (interface{}, error) {
		var req service.LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return h.service.Login(ctx, req)
	})
}

// HandleLogout wraps Service.Logout in a REST interface
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	handleJSON(w, r, func(ctx context.Context) (interface{}, error) {
		return h.service.Logout(ctx)
	})
}
