package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	gferrors "github.com/fulmenhq/gofulmen/errors"
	"github.com/stretchr/testify/require"

	"github.com/tarkovmcp/tarkovmcp/internal/config"
	"github.com/tarkovmcp/tarkovmcp/internal/core/gateway"
)

func TestFromGatewayMapsKinds(t *testing.T) {
	cases := []struct {
		kind   gateway.Kind
		code   string
		status int
	}{
		{gateway.KindNotInitialized, CodeNotInitialized, http.StatusInternalServerError},
		{gateway.KindTransport, CodeTransportFailure, http.StatusServiceUnavailable},
		{gateway.KindUpstream, CodeUpstreamFailure, http.StatusBadGateway},
		{gateway.KindConfiguration, CodeConfigInvalid, http.StatusInternalServerError},
		{gateway.KindCancelled, CodeTimeout, http.StatusGatewayTimeout},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			err := fmt.Errorf("tool failed: %w", &gateway.Error{
				Kind:      tc.kind,
				Operation: "GetMaps",
				Variables: map[string]any{"limit": 5},
				Err:       errors.New("boom"),
			})

			env := FromGateway(context.Background(), err)
			require.NotNil(t, env)
			require.Equal(t, tc.code, env.Code)
			require.Equal(t, "GetMaps", env.Context["operation"])
			require.NotEmpty(t, env.CorrelationID)
			require.Equal(t, tc.status, HTTPStatusFromEnvelope(env))
		})
	}
}

func TestFromGatewayIgnoresOtherErrors(t *testing.T) {
	require.Nil(t, FromGateway(context.Background(), errors.New("plain")))
}

func TestEnsureEnvelope(t *testing.T) {
	require.Equal(t, CodeInternal, EnsureEnvelope(nil).Code)

	existing := NewNotFoundError("missing")
	require.Same(t, existing, EnsureEnvelope(existing))

	upstream := &gateway.Error{Kind: gateway.KindUpstream, Operation: "GetItem", Err: errors.New("Item not found")}
	require.Equal(t, CodeUpstreamFailure, EnsureEnvelope(upstream).Code)

	invalid := fmt.Errorf("%w: rate_limit.max_requests must be positive", config.ErrInvalid)
	require.Equal(t, CodeConfigInvalid, EnsureEnvelope(invalid).Code)

	require.Equal(t, CodeTimeout, EnsureEnvelope(context.DeadlineExceeded).Code)

	other := EnsureEnvelope(errors.New("surprise"))
	require.Equal(t, CodeInternal, other.Code)
	require.Equal(t, gferrors.SeverityHigh, other.Severity)
}

func TestRespondWithErrorWritesEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, &gateway.Error{
		Kind:       gateway.KindUpstream,
		Operation:  "GetMaps",
		StatusCode: http.StatusBadGateway,
		Err:        errors.New("bad gateway"),
	})

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, CodeUpstreamFailure, body.Error.Code)
	require.Equal(t, "GetMaps", body.Error.Details["operation"])
	require.NotEmpty(t, body.Error.RequestID)
}
