package secrets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceFromEnv(t *testing.T) {
	t.Setenv("OPENBAO_ADDR", "")
	_, ok := SourceFromEnv()
	assert.False(t, ok)

	t.Setenv("OPENBAO_ADDR", "http://bao:8200/")
	t.Setenv("OPENBAO_TOKEN", "tok")
	t.Setenv("OPENBAO_SECRET_PATH", "/bridge/")
	t.Setenv("OPENBAO_MOUNT", "")
	t.Setenv("OPENBAO_NAMESPACE", "")
	src, ok := SourceFromEnv()
	require.True(t, ok)
	assert.Equal(t, "http://bao:8200/v1/secret/data/bridge", src.url())
}

func TestFetchAndBootstrap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/kv/data/bridge", r.URL.Path)
		assert.Equal(t, "tok", r.Header.Get("X-Vault-Token"))
		assert.Equal(t, "team", r.Header.Get("X-Vault-Namespace"))
		_, _ = w.Write([]byte(`{"data":{"data":{
			"KAFKA_BROKERS": "kafka-1:9092,kafka-2:9092",
			"BREAKER_FAILURE_THRESHOLD": 3,
			"OTEL_ENABLED": false,
			"LOG_LEVEL": "debug",
			"NESTED": {"ignored": true}
		}}}`))
	}))
	defer srv.Close()

	t.Setenv("OPENBAO_ADDR", srv.URL)
	t.Setenv("OPENBAO_TOKEN", "tok")
	t.Setenv("OPENBAO_SECRET_PATH", "bridge")
	t.Setenv("OPENBAO_MOUNT", "kv")
	t.Setenv("OPENBAO_NAMESPACE", "team")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("BREAKER_FAILURE_THRESHOLD", "")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("LOG_LEVEL", "warn")

	applied, err := Bootstrap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BREAKER_FAILURE_THRESHOLD", "KAFKA_BROKERS", "OTEL_ENABLED"}, applied)
	assert.Equal(t, "warn", os.Getenv("LOG_LEVEL"))
	assert.Equal(t, "3", os.Getenv("BREAKER_FAILURE_THRESHOLD"))
	assert.Equal(t, "false", os.Getenv("OTEL_ENABLED"))
}

func TestFetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Source{Addr: srv.URL, Token: "tok", Mount: "secret", Path: "missing"}.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSecretNotFound))
}

func TestBootstrap_Disabled(t *testing.T) {
	t.Setenv("OPENBAO_ADDR", "")
	applied, err := Bootstrap(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)
}
