package infra

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mandalnilabja/octagram/internal/version"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantState  string
	}{
		{"store up", nil, http.StatusOK, "active"},
		{"store down", errors.New("connection refused"), http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(pinger{err: tt.err}, time.Now())
			rec := httptest.NewRecorder()
			h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["status"] != tt.wantState {
				t.Errorf("status field = %q, want %q", body["status"], tt.wantState)
			}
		})
	}
}

func TestRootStatus(t *testing.T) {
	h := New(pinger{}, time.Now().Add(-90*time.Second))
	rec := httptest.NewRecorder()
	h.RootStatus(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body struct {
		Name    string `json:"name"`
		Version string `json:"version"`
		Uptime  int64  `json:"uptime_seconds"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Name != "octagram" || body.Version != version.Version {
		t.Errorf("body = %+v", body)
	}
	if body.Uptime < 90 {
		t.Errorf("uptime = %d, want >= 90", body.Uptime)
	}
}
