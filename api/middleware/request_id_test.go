package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

func serveWithRequestID(t *testing.T, header string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	handler := RequestID(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logg.Info(r.Context(), "handled")
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, buf.String()
}

func TestRequestIDKeepsForwardedID(t *testing.T) {
	rec, logs := serveWithRequestID(t, "lb-7f3a.01_x")
	if got := rec.Header().Get(RequestIDHeader); got != "lb-7f3a.01_x" {
		t.Fatalf("expected forwarded id to be echoed, got %q", got)
	}
	if !strings.Contains(logs, `"request_id":"lb-7f3a.01_x"`) {
		t.Fatalf("expected request_id in logs; got %s", logs)
	}
}

func TestRequestIDReplacesUnusableIDs(t *testing.T) {
	cases := map[string]string{
		"missing":  "",
		"too long": strings.Repeat("a", maxRequestIDLen+1),
		"forged":   `abc","level":"error`,
		"spaces":   "two words",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec, logs := serveWithRequestID(t, header)
			got := rec.Header().Get(RequestIDHeader)
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("expected a generated uuid, got %q", got)
			}
			if !strings.Contains(logs, `"request_id":"`+got+`"`) {
				t.Fatalf("expected generated id in logs; got %s", logs)
			}
		})
	}
}
