package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func ok(context.Context) error { return nil }

func get(t *testing.T, mux *http.ServeMux, path string) (int, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]interface{}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body
}

func TestHealthMux(t *testing.T) {
	t.Run("ready when every check passes", func(t *testing.T) {
		mux := healthMux(map[string]func(context.Context) error{"postgres": ok, "redis": ok})

		code, body := get(t, mux, "/ready")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ready", body["status"])
		assert.Equal(t, map[string]interface{}{"postgres": "ok", "redis": "ok"}, body["dependencies"])
	})

	t.Run("not ready when a dependency is down", func(t *testing.T) {
		mux := healthMux(map[string]func(context.Context) error{
			"postgres": ok,
			"redis":    func(context.Context) error { return stderrors.New("redis ping failed") },
		})

		code, body := get(t, mux, "/ready")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "not ready", body["status"])
		deps := body["dependencies"].(map[string]interface{})
		assert.Equal(t, "redis ping failed", deps["redis"])
	})

	t.Run("liveness ignores dependencies", func(t *testing.T) {
		mux := healthMux(map[string]func(context.Context) error{
			"zeebe": func(context.Context) error { return stderrors.New("down") },
		})

		code, body := get(t, mux, "/health")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", body["status"])
		assert.NotEmpty(t, body["time"])
	})

	t.Run("metrics", func(t *testing.T) {
		code, _ := get(t, healthMux(nil), "/metrics")
		assert.Equal(t, http.StatusOK, code)
	})
}

func TestRetryWithBackoff(t *testing.T) {
	log := zaptest.NewLogger(t)

	calls := 0
	err := retryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return stderrors.New("not yet")
		}
		return nil
	}, 5, time.Millisecond, log, "connect")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = retryWithBackoff(func() error {
		calls++
		return stderrors.New("refused")
	}, 2, time.Millisecond, log, "connect")
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "connect failed after 2 attempts")
}
