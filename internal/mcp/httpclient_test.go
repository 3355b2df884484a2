package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/repcounter/internal/models"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestGetHistory verifies the client sends the limit and parses records.
func TestGetHistory(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/history/pushup": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("limit"); got != "5" {
				t.Errorf("limit=%q, want 5", got)
			}
			writeTestJSON(t, w, []models.SessionRecord{
				{ID: "a", Exercise: "pushup", Reps: 12, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
			})
		},
	})
	defer ts.Close()

	records, err := NewHTTPClient(ts.URL).GetHistory(context.Background(), "pushup", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Reps != 12 {
		t.Errorf("records = %+v, want one record of 12", records)
	}
}

// TestGetHistoryNoLimit verifies a zero limit sends no query parameter.
func TestGetHistoryNoLimit(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/history/squat": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.RawQuery != "" {
				t.Errorf("query = %q, want empty", r.URL.RawQuery)
			}
			writeTestJSON(t, w, []models.SessionRecord{})
		},
	})
	defer ts.Close()

	if _, err := NewHTTPClient(ts.URL).GetHistory(context.Background(), "squat", 0); err != nil {
		t.Fatal(err)
	}
}

// TestGetTotals verifies the totals map is decoded.
func TestGetTotals(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/totals": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, map[string]int{"pushup": 40, "squat": 0})
		},
	})
	defer ts.Close()

	totals, err := NewHTTPClient(ts.URL + "/").GetTotals(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if totals["pushup"] != 40 {
		t.Errorf("pushup = %d, want 40", totals["pushup"])
	}
}

// TestGetExerciseStats verifies a single struct response is parsed.
func TestGetExerciseStats(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/totals/curl": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, models.ExerciseStats{Exercise: "curl", Sessions: 2, Total: 30, Mean: 15, BestSession: 18})
		},
	})
	defer ts.Close()

	stats, err := NewHTTPClient(ts.URL).GetExerciseStats(context.Background(), "curl")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 30 || stats.BestSession != 18 {
		t.Errorf("stats = %+v", stats)
	}
}

// TestGetCurrentSessionNone verifies a 404 means no session rather than an error.
func TestGetCurrentSessionNone(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions/current": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"no active session"}`))
		},
	})
	defer ts.Close()

	status, err := NewHTTPClient(ts.URL).GetCurrentSession(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != nil {
		t.Errorf("status = %+v, want nil", status)
	}
}

// TestHTTPClientServerError verifies non-200 responses surface as errors.
func TestHTTPClientServerError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercises": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
	})
	defer ts.Close()

	if _, err := NewHTTPClient(ts.URL).ListExercises(context.Background()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
