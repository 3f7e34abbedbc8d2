package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/config"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		raw          string
		wantEndpoint string
		wantPath     string
		wantInsecure bool
	}{
		{raw: "", wantEndpoint: "localhost:4318", wantPath: "/v1/traces", wantInsecure: true},
		{raw: "collector:4318", wantEndpoint: "collector:4318", wantPath: "/v1/traces", wantInsecure: true},
		{raw: "http://jaeger:4318/v1/traces", wantEndpoint: "jaeger:4318", wantPath: "/v1/traces", wantInsecure: true},
		{raw: "https://otel.example.com/custom", wantEndpoint: "otel.example.com", wantPath: "/custom", wantInsecure: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			endpoint, path, insecure := ParseEndpoint(tt.raw)
			assert.Equal(t, tt.wantEndpoint, endpoint)
			assert.Equal(t, tt.wantPath, path)
			assert.Equal(t, tt.wantInsecure, insecure)
		})
	}
}

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "bridge", config.TelemetryConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
