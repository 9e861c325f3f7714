package rest

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bob-jr-kab/eventcal/prom"
	"github.com/bob-jr-kab/eventcal/service"
)

// CalendarHandler provides a REST interface to the session's calendar view.
type CalendarHandler struct {
	http.Handler // router

	service *service.Service
}

func newCalendarHandler(service *service.Service) *CalendarHandler {
	h := &CalendarHandler{
		service: service,
	}

	m := mux.NewRouter()
	m.Handle(
		"/",
		prom.InstrumentHandler("CalendarView", http.HandlerFunc(h.HandleView)),
	).Methods("GET")
	m.Handle(
		"/date",
		prom.InstrumentHandler("CalendarSelectDate", http.HandlerFunc(h.HandleSelectDate)),
	).Methods("POST")
	m.Handle(
		"/back",
		prom.InstrumentHandler("CalendarBack", http.HandlerFunc(h.HandleBack)),
	).Methods("POST")
	m.Handle(
		"/reload",
		prom.InstrumentHandler("CalendarReload", http.HandlerFunc(h.HandleReload)),
	).Methods("POST")
	h.Handler = m

	return h
}

// HandleView wraps Service.CalendarView in a REST interface
func (h *CalendarHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	handleJSON(w, r, func(ctx context.Context) (interface{}, error) {
		return h.service.CalendarView(ctx)
	})
}

// HandleSelectDate wraps Service.CalendarSelectDate in a REST interface
func (h *CalendarHandler) HandleSelectDate(w http.ResponseWriter, r *http.Request) {
	handleJSON(w, r, func(ctx context.Context) (interface{}, error) {
		var req service.SelectDateRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return h.service.CalendarSelectDate(ctx, req)
	})
}

// HandleBack wraps Service.CalendarBack in a REST interface
func (h *CalendarHandler) HandleBack(w http.ResponseWriter, r *http.Request) {
	handleJSON(w, r, func(ctx context.Context) (interface{}, error) {
		return h.service.CalendarBack(ctx)
	})
}

// HandleReload wraps Service.CalendarReload in a REST interface
func (h *CalendarHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	handleJSON(w, r, func(ctx context.Context) (interface{}, error) {
		return h.service.CalendarReload(ctx)
	})
}
