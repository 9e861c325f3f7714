package rest

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/auth"
	"github.com/bob-jr-kab/eventcal/errors"
	"github.com/bob-jr-kab/eventcal/log"
	"github.com/bob-jr-kab/eventcal/prom"
	"github.com/bob-jr-kab/eventcal/service"
)

// EventsHandler provides a REST interface to eventcal's event-related functions.
type EventsHandler struct {
	http.Handler // router

	export  http.Handler
	service *service.Service
}

func newEventsHandler(service *service.Service) *EventsHandler {
	h := &EventsHandler{
		service: service,
	}
	h.export = prom.InstrumentHandler("EventExport", http.HandlerFunc(h.HandleExport))

	m := mux.NewRouter()
	m.Handle(
		"/",
		prom.InstrumentHandler("EventList", http.HandlerFunc(h.HandleList)),
	).Methods("GET")
	m.Handle(
		"/",
		prom.InstrumentHandler("EventAdd", http.HandlerFunc(h.HandleAdd)),
	).Methods("POST")
	m.Handle(
		"/{id}",
		prom.InstrumentHandler("EventGet", http.HandlerFunc(h.HandleGet)),
	).Methods("GET")
	m.Handle(
		"/{id}/select",
		prom.InstrumentHandler("EventSelect", http.HandlerFunc(h.HandleSelect)),
	).Methods("POST")
	m.Handle(
		"/{id}",
		prom.InstrumentHandler("EventUpdate", http.HandlerFunc(h.HandleUpdate)),
	).Methods("PATCH")
	m.Handle(
		"/{id}",
		prom.InstrumentHandler("EventDelete", http.HandlerFunc(h.HandleDelete)),
	).Methods("DELETE")

	h.Handler = m

	return h
}

// HandleList wraps Service.EventList in a REST interface
func (h *EventsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	handleJSON(w, r, func(ctx context.Context) (interface{}, error) {
		return h.service.EventList(ctx)
	})
}

// HandleAdd wraps Service.EventAdd in a REST interface
func (h *EventsHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	handleJSON(w, r, func(ctx context.Context) (interface{}, error) {
		var req service.EventRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return h.service.EventAdd(ctx, req)
	})
}

// HandleGet wraps Service.EventGet in a REST interface
func (h *EventsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["id"]

	handleJSON(w, r, func(ctx context.Context) (interface{}, error) {
		return h.service.EventGet(ctx, eventcal.EventID(eventID))
	})
}

// HandleSelect wraps Service.EventSelect in a REST interface
func (h *EventsHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["id"]

	handleJSON(w, r, func(ctx context.Context) (interface{}, error) {
		return h.service.EventSelect(ctx, eventcal.EventID(eventID))
	})
}

// HandleUpdate wraps Service.EventUpdate in a REST interface
func (h *EventsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["id"]

	handleJSON(w, r, func(ctx context.Context) (interface{}, error) {
		var req service.EventRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return h.service.EventUpdate(ctx, eventcal.EventID(eventID), req)
	})
}

// HandleDelete wraps Service.EventDelete in a REST interface
func (h *EventsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["id"]

	handleJSON(w, r, func(ctx context.Context) (interface{}, error) {
		if err := h.service.EventDelete(ctx, eventcal.EventID(eventID)); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// HandleExport wraps Service.EventExport, serving the feed as text/calendar.
func (h *EventsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ics, err := h.service.EventExport(ctx)
	if err != nil {
		errResp := errors.ResponseForError(err)
		log.FromContext(ctx).Warn("export failed", zap.Error(err))
		if auth.User(ctx).IsAdmin {
			errResp.Error += ": " + err.Error()
		}
		writeErrorResp(w, errResp)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="eventcal.ics"`)
	w.Write([]byte(ics))
}
