package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/bob-jr-kab/eventcal/errors"
	"github.com/bob-jr-kab/eventcal/log"
	"github.com/bob-jr-kab/eventcal/prom"
	"github.com/bob-jr-kab/eventcal/service"
)

// SessionHandler reports on the request's session and receives activity
// signals from the browser.
type SessionHandler struct {
	http.Handler // router

	service *service.Service
}

// ActivityRequest reports one kind of user activity, eg "keydown".
type ActivityRequest struct {
	Signal string `json:"signal"`
}

func newSessionHandler(service *service.Service) *SessionHandler {
	h := &SessionHandler{
		service: service,
	}

	m := mux.NewRouter()
	m.Handle(
		"/",
		prom.InstrumentHandler("SessionGet", http.HandlerFunc(h.HandleGet)),
	).Methods("GET")
	m.Handle(
		"/activity",
		prom.InstrumentHandler("SessionActivity", http.HandlerFunc(h.HandleActivity)),
	).Methods("POST")
	m.Handle(
		"/stream",
		prom.InstrumentHandler("SessionStream", http.HandlerFunc(h.HandleStream)),
	).Methods("GET")
	h.Handler = m

	return h
}

// HandleGet wraps Service.SessionGet in a REST interface
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	handleJSON(w, r, func(ctx context.Context) (interface{}, error) {
		return h.service.SessionGet(ctx)
	})
}

// HandleActivity wraps Service.Activity in a REST interface
func (h *SessionHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	handleJSON(w, r, func(ctx context.Context) (interface{}, error) {
		var req ActivityRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return h.service.Activity(ctx, req.Signal)
	})
}

// HandleStream sends the session info as a server-sent event now and after
// every login, logout and expiry, until the client goes away.
func (h *SessionHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorResp(w, errors.Response{
			Error:  "streaming unsupported",
			Status: http.StatusInternalServerError,
		})
		return
	}

	// Slow readers miss intermediate states, never the latest one.
	updates := make(chan service.SessionInfo, 1)
	unwatch, err := h.service.SessionWatch(ctx, func(info service.SessionInfo) {
		for {
			select {
			case updates <- info:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	if err != nil {
		writeErrorResp(w, errors.ResponseForError(err))
		return
	}
	defer unwatch()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case info := <-updates:
			js, err := json.Marshal(info)
			if err != nil {
				logger.Error("marshal session info failed", zap.Error(err))
				return
			}
			if _, err := fmt.Fprintf(w, "event: session\ndata: %s\n\n", js); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
