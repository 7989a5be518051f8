package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestIDPropagatesInboundHeader(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/ratelimit", nil)
	req.Header.Set(RequestIDHeader, "mcp-call-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, "mcp-call-42", seen)
	require.Equal(t, "mcp-call-42", rec.Header().Get(RequestIDHeader))
}

func TestRequestIDReplacesMalformedHeader(t *testing.T) {
	for _, inbound := range []string{"", "has space", strings.Repeat("x", maxRequestIDLength+1), "bad\nid"} {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		if inbound != "" {
			req.Header[RequestIDHeader] = []string{inbound}
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)

		require.NotEqual(t, inbound, seen)
		require.Len(t, seen, 36, "expected a generated UUID for %q", inbound)
	}
}
