package middleware

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name           string
		existingID     string
		wantPassedThru bool
	}{
		{name: "generates new ID when none provided"},
		{name: "uses existing ID from header", existingID: "existing-request-id", wantPassedThru: true},
		{name: "replaces ID with unsafe characters", existingID: "bad id\nwith newline"},
		{name: "replaces overlong ID", existingID: strings.Repeat("a", maxRequestIDLen+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedID string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				capturedID = GetRequestID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.existingID != "" {
				req.Header.Set(RequestIDHeader, tt.existingID)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			respID := rec.Header().Get(RequestIDHeader)
			if respID == "" {
				t.Fatal("expected X-Request-ID in response header")
			}
			if capturedID != respID {
				t.Errorf("context ID %q != header ID %q", capturedID, respID)
			}
			if tt.wantPassedThru && respID != tt.existingID {
				t.Errorf("expected ID %q, got %q", tt.existingID, respID)
			}
			if !tt.wantPassedThru && respID == tt.existingID {
				t.Errorf("expected a generated ID, got the incoming %q", respID)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("wildcard origin", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CORS("")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Allow-Origin = %q, want *", got)
		}
		if rec.Header().Get("Access-Control-Allow-Credentials") != "" {
			t.Error("credentials allowed with a wildcard origin")
		}
		if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
			t.Error("PATCH missing from allowed methods")
		}
		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
	})

	t.Run("fixed origin allows credentials", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CORS("https://app.example.com")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
			t.Errorf("Allow-Origin = %q", got)
		}
		if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
			t.Error("expected Allow-Credentials")
		}
	})

	t.Run("handles OPTIONS preflight request", func(t *testing.T) {
		called := false
		h := CORS("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/test", nil))

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
		}
		if called {
			t.Error("preflight reached the handler")
		}
	})
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok", http.StatusOK, "level=INFO"},
		{"client error", http.StatusBadRequest, "level=INFO"},
		{"server error", http.StatusBadGateway, "level=WARN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}), RequestID, RequestLogger(logger))

			req := httptest.NewRequest(http.MethodPost, "/api/translate", nil)
			req.Header.Set(RequestIDHeader, "req-1")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			line := buf.String()
			for _, want := range []string{tc.wantLevel, "method=POST", "path=/api/translate", "request_id=req-1"} {
				if !strings.Contains(line, want) {
					t.Errorf("log line %q missing %q", line, want)
				}
			}
			if !strings.Contains(line, fmt.Sprintf("status=%d", tc.status)) {
				t.Errorf("log line %q missing status %d", line, tc.status)
			}
		})
	}
}

func TestRequestLogger_ImplicitOK(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(slog.New(slog.NewTextHandler(&buf, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("hi"))
		}),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "status=200") {
		t.Errorf("log line %q missing status=200", buf.String())
	}
}

func TestResponseWriterUnwrap(t *testing.T) {
	handler := RequestLogger(slog.New(slog.DiscardHandler))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := http.NewResponseController(w).Flush(); err != nil {
				t.Errorf("Flush through wrapper: %v", err)
			}
		}),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
	if !rec.Flushed {
		t.Error("expected the recorder to be flushed")
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "outer,inner,handler" {
		t.Errorf("order = %v", order)
	}
}

func TestGetRequestID_NoContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if id := GetRequestID(req.Context()); id != "" {
		t.Errorf("expected empty ID, got %q", id)
	}
}
