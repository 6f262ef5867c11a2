package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/flightdesk/internal/booking"
	"github.com/MrWong99/flightdesk/internal/catalog"
	"github.com/MrWong99/flightdesk/internal/contentfilter"
	"github.com/MrWong99/flightdesk/internal/dialog"
	"github.com/MrWong99/flightdesk/internal/intent"
	"github.com/MrWong99/flightdesk/internal/session"
	"github.com/MrWong99/flightdesk/internal/validate"
)

var testNow = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	cat := catalog.Default()
	x := intent.NewExtractor(cat)
	rec := intent.NewRecognizer(contentfilter.New(), intent.NewFallbackClassifier(nil, intent.NewRuleBasedClassifier(x), nil), x, nil)
	now := func() time.Time { return testNow }

	m, err := session.NewManager(session.Config{
		NewEngine: func(id string) (*dialog.Engine, error) {
			return dialog.New(dialog.Config{
				Recognizer:       rec,
				Validator:        validate.New(cat),
				SessionID:        id,
				Now:              now,
				ConfirmationCode: func() string { return "ABC234" },
			})
		},
		Now:   now,
		NewID: func() string { return "sess-1" },
	})
	if err != nil {
		t.Fatal(err)
	}
	mux := http.NewServeMux()
	New(m).Register(mux)
	return mux
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

// turnBody mirrors the JSON of a turn result.
type turnBody struct {
	Response             string         `json:"response"`
	State                string         `json:"state"`
	Intent               string         `json:"intent"`
	Booking              map[string]any `json:"booking"`
	RequiresFlightSearch bool           `json:"requires_flight_search"`
	SearchRequest        map[string]any `json:"flight_search_request"`
}

func decodeTurn(t *testing.T, rec *httptest.ResponseRecorder) turnBody {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var b turnBody
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return b
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()
	mux := newTestMux(t)

	rec := do(t, mux, http.MethodPost, "/v1/sessions", "")
	if rec.Code != http.StatusCreated || rec.Header().Get("Location") != "/v1/sessions/sess-1" {
		t.Fatalf("create: %d %v", rec.Code, rec.Header())
	}
	var info struct {
		ID    string `json:"id"`
		State string `json:"state"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil || info.ID != "sess-1" || info.State != "IDLE" {
		t.Fatalf("create body = %+v, err %v", info, err)
	}

	var tb turnBody
	for _, u := range []string{"My name is Jane Doe", "From Boston to Chicago", "one way", "Next Friday"} {
		tb = decodeTurn(t, do(t, mux, http.MethodPost, "/v1/sessions/sess-1/turns", fmt.Sprintf(`{"utterance":%q}`, u)))
	}
	if tb.State != "PRESENTING_OPTIONS" || !tb.RequiresFlightSearch {
		t.Fatalf("turn = %+v", tb)
	}
	if tb.SearchRequest["departure_date"] != "2026-10-23" || tb.SearchRequest["arrival_city"] != "Chicago" {
		t.Errorf("search request = %v", tb.SearchRequest)
	}

	opts, _ := json.Marshal(FlightsRequest{Options: []booking.FlightOption{{
		FlightNumber:  "B6 101",
		Airline:       "JetBlue",
		DepartureTime: time.Date(2026, time.October, 23, 7, 0, 0, 0, time.UTC),
		ArrivalTime:   time.Date(2026, time.October, 23, 9, 45, 0, 0, time.UTC),
		Price:         129,
	}}})
	tb = decodeTurn(t, do(t, mux, http.MethodPost, "/v1/sessions/sess-1/flights", string(opts)))
	if !strings.Contains(tb.Response, "JetBlue B6 101") {
		t.Errorf("flights response = %q", tb.Response)
	}

	decodeTurn(t, do(t, mux, http.MethodPost, "/v1/sessions/sess-1/turns", `{"utterance":"option 1"}`))
	tb = decodeTurn(t, do(t, mux, http.MethodPost, "/v1/sessions/sess-1/turns", `{"utterance":"yes"}`))
	if tb.State != "BOOKING_COMPLETE" || tb.Booking["confirmation_number"] != "ABC234" {
		t.Errorf("final turn = %+v", tb)
	}

	rec = do(t, mux, http.MethodGet, "/v1/sessions/sess-1", "")
	var snap struct {
		State string            `json:"state"`
		Turns []json.RawMessage `json:"turns"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil || snap.State != "BOOKING_COMPLETE" || len(snap.Turns) != 6 {
		t.Errorf("snapshot = %+v, err %v", snap, err)
	}

	if rec := do(t, mux, http.MethodDelete, "/v1/sessions/sess-1", ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := do(t, mux, http.MethodGet, "/v1/sessions/sess-1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}
}

func TestBadRequests(t *testing.T) {
	t.Parallel()
	mux := newTestMux(t)
	do(t, mux, http.MethodPost, "/v1/sessions", "")

	tests := []struct {
		name, method, path, body string
		want                     int
	}{
		{"malformed json", http.MethodPost, "/v1/sessions/sess-1/turns", `{"utterance":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/v1/sessions/sess-1/turns", `{"text":"hi"}`, http.StatusBadRequest},
		{"oversized body", http.MethodPost, "/v1/sessions/sess-1/turns", `{"utterance":"` + strings.Repeat("a", maxBodyBytes) + `"}`, http.StatusBadRequest},
		{"unknown session turn", http.MethodPost, "/v1/sessions/nope/turns", `{"utterance":"hi"}`, http.StatusNotFound},
		{"unknown session flights", http.MethodPost, "/v1/sessions/nope/flights", `{"options":[]}`, http.StatusNotFound},
		{"unknown session delete", http.MethodDelete, "/v1/sessions/nope", "", http.StatusNotFound},
		{"wrong method", http.MethodPut, "/v1/sessions/sess-1", "", http.StatusMethodNotAllowed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, mux, tc.method, tc.path, tc.body)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body)
			}
		})
	}
}

// stubSessions fails every call with err.
type stubSessions struct{ err error }

func (s stubSessions) Create(context.Context) (session.Info, error) { return session.Info{}, s.err }
func (s stubSessions) Turn(context.Context, string, string) (dialog.TurnResult, error) {
	return dialog.TurnResult{}, s.err
}
func (s stubSessions) ProvideFlights(context.Context, string, []booking.FlightOption) (dialog.TurnResult, error) {
	return dialog.TurnResult{}, s.err
}
func (s stubSessions) Get(string) (session.Snapshot, error) { return session.Snapshot{}, s.err }
func (s stubSessions) End(context.Context, string) error    { return s.err }

func TestErrorMapping(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("session x: %w", dialog.ErrTurnAbandoned), http.StatusRequestTimeout},
		{fmt.Errorf("%w: x", session.ErrNotFound), http.StatusNotFound},
		{errors.New("engine exploded"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		mux := http.NewServeMux()
		New(stubSessions{err: tc.err}).Register(mux)

		rec := do(t, mux, http.MethodPost, "/v1/sessions/x/turns", `{"utterance":"hi"}`)
		if rec.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
		var body errorBody
		if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&body); err != nil || body.Error != tc.err.Error() {
			t.Errorf("%v: body = %s", tc.err, rec.Body)
		}
	}
}
