package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/agrostore-bff/api/responses"
	"github.com/angelmondragon/agrostore-bff/pkg/logger"
)

func TestRequestIDKeepsPrintableUpstreamID(t *testing.T) {
	handler := RequestID(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "lb-42.abc", w.Header().Get(responses.RequestIDHeader))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(responses.RequestIDHeader, " lb-42.abc ")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "lb-42.abc", rec.Header().Get(responses.RequestIDHeader))
}

func TestRequestIDReplacesUnsafeID(t *testing.T) {
	handler := RequestID(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	for _, in := range []string{"", "has space", "new\nline", string(make([]byte, 200))} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(responses.RequestIDHeader, in)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		got := rec.Header().Get(responses.RequestIDHeader)
		assert.Len(t, got, 36, "input %q", in)
	}
}
