package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusTeapot {
		t.Errorf("expected wrapped status, got %d", rr.Code)
	}
	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"Cache-Control":           "no-store",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	}
	for header, value := range want {
		if got := rr.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
	}))

	t.Run("assigns an id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		id := rr.Header().Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("expected a UUID request id, got %q", id)
		}
		if seen != id {
			t.Errorf("handler saw %q, response carried %q", seen, id)
		}
	})

	t.Run("keeps a valid incoming id", func(t *testing.T) {
		incoming := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, incoming)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if got := rr.Header().Get(RequestIDHeader); got != incoming {
			t.Errorf("expected %q, got %q", incoming, got)
		}
	})

	t.Run("replaces a malformed id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "<script>")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if got := rr.Header().Get(RequestIDHeader); got == "<script>" {
			t.Error("malformed request id must not be echoed")
		}
	})
}

func TestCachedPromHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cached_handler_test_total",
		Help: "test counter",
	})
	reg.MustRegister(counter)
	counter.Inc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewCachedPromHandler(ctx, reg, time.Hour, logger)

	scrape := func() string {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/plain") {
			t.Errorf("unexpected content type %q", rr.Header().Get("Content-Type"))
		}
		return rr.Body.String()
	}

	if body := scrape(); !strings.Contains(body, "cached_handler_test_total 1") {
		t.Fatalf("expected initial exposition, got:\n%s", body)
	}

	counter.Inc()
	if body := scrape(); !strings.Contains(body, "cached_handler_test_total 1") {
		t.Errorf("expected cached value until refresh, got:\n%s", body)
	}

	handler.refresh()
	if body := scrape(); !strings.Contains(body, "cached_handler_test_total 2") {
		t.Errorf("expected refreshed value, got:\n%s", body)
	}
}
