package rest

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/prom"
	"github.com/bob-jr-kab/eventcal/service"
)

// UsersHandler provides a REST interface to eventcal's profile functions.
type UsersHandler struct {
	http.Handler // router

	service *service.Service
}

func newUsersHandler(service *service.Service) *UsersHandler {
	h := &UsersHandler{
		service: service,
	}

	m := mux.NewRouter()
	m.Handle(
		"/{id}",
		prom.InstrumentHandler("ProfileGet", http.HandlerFunc(h.HandleGet)),
	).Methods("GET")
	m.Handle(
		"/{id}",
		prom.InstrumentHandler("ProfileUpdate", http.HandlerFunc(h.HandleUpdate)),
	).Methods("PATCH")
	h.Handler = m

	return h
}

// HandleUpdate wraps Service.ProfileUpdate in a REST interface
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	handleJSON(w, r, func(ctx context.Context) (interface{}, error) {
		var update eventcal.ProfileUpdate
		if err := decodeJSON(r, &update); err != nil {
			return nil, err
		}
		return h.service.ProfileUpdate(ctx, eventcal.UserID(userID), update)
	})
}

// HandleGet wraps Service.ProfileGet in a REST interface
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	handleJSON(w, r, func(ctx context.Context) (interface{}, error) {
		return h.service.ProfileGet(ctx, eventcal.UserID(userID))
	})
}
