// Package api exposes dialog sessions over JSON/HTTP.
//
// Routes:
//
//	POST   /v1/sessions               start a session
//	POST   /v1/sessions/{id}/turns    {"utterance": "..."} -> turn result
//	POST   /v1/sessions/{id}/flights  {"options": [...]}   -> turn result
//	GET    /v1/sessions/{id}          session snapshot
//	DELETE /v1/sessions/{id}          end a session
//
// Errors are JSON objects of the form {"error": "..."}.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/MrWong99/flightdesk/internal/booking"
	"github.com/MrWong99/flightdesk/internal/dialog"
	"github.com/MrWong99/flightdesk/internal/observe"
	"github.com/MrWong99/flightdesk/internal/session"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// Sessions is the session registry the handlers drive. [session.Manager]
// implements it.
type Sessions interface {
	Create(ctx context.Context) (session.Info, error)
	Turn(ctx context.Context, id, utterance string) (dialog.TurnResult, error)
	ProvideFlights(ctx context.Context, id string, opts []booking.FlightOption) (dialog.TurnResult, error)
	Get(id string) (session.Snapshot, error)
	End(ctx context.Context, id string) error
}

var _ Sessions = (*session.Manager)(nil)

// TurnRequest is the body of POST /v1/sessions/{id}/turns.
type TurnRequest struct {
	Utterance string `json:"utterance"`
}

// FlightsRequest is the body of POST /v1/sessions/{id}/flights.
type FlightsRequest struct {
	Options []booking.FlightOption `json:"options"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Handler serves the session routes.
type Handler struct {
	sessions Sessions
}

// New returns a Handler backed by s.
func New(s Sessions) *Handler {
	return &Handler{sessions: s}
}

// Register adds the session routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/sessions", h.create)
	mux.HandleFunc("POST /v1/sessions/{id}/turns", h.turn)
	mux.HandleFunc("POST /v1/sessions/{id}/flights", h.flights)
	mux.HandleFunc("GET /v1/sessions/{id}", h.get)
	mux.HandleFunc("DELETE /v1/sessions/{id}", h.end)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	info, err := h.sessions.Create(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+info.ID)
	writeJSON(w, http.StatusCreated, info)
}

func (h *Handler) turn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.sessions.Turn(r.Context(), r.PathValue("id"), req.Utterance)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) flights(w http.ResponseWriter, r *http.Request) {
	var req FlightsRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.sessions.ProvideFlights(r.Context(), r.PathValue("id"), req.Options)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) end(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(r.Context(), r.PathValue("id")); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body into v. On failure it writes a 400 and returns
// false.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, dialog.ErrTurnAbandoned):
		status = http.StatusRequestTimeout
	}
	if status == http.StatusInternalServerError {
		observe.Logger(ctx).Error("api: request failed", "err", err)
	} else {
		observe.Logger(ctx).LogAttrs(ctx, slog.LevelDebug, "api: request rejected",
			slog.Int("status", status), slog.String("err", err.Error()))
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("api: encode response", "err", err)
	}
}
