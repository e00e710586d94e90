package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

func ok(context.Context) error   { return nil }
func down(context.Context) error { return errors.ErrUnavailable }

func serve(t *testing.T, fn http.HandlerFunc) (int, HealthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	fn(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return rec.Code, status
}

func TestHandleReadiness(t *testing.T) {
	h := New(logger.NewNop(), "finsight", "test",
		Check{Name: "postgres", Fn: ok},
		Check{Name: "kafka", Fn: down, Optional: true},
	)
	code, status := serve(t, h.HandleReadiness)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "unhealthy", status.Checks["kafka"].Status)

	h = New(logger.NewNop(), "finsight", "test", Check{Name: "postgres", Fn: down})
	code, status = serve(t, h.HandleReadiness)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", status.Status)
}

func TestHandleHealth(t *testing.T) {
	h := New(logger.NewNop(), "finsight", "test",
		Check{Name: "postgres", Fn: ok},
		Check{Name: "redis", Fn: down},
	)
	code, status := serve(t, h.HandleHealth)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "finsight", status.Service)

	h = New(logger.NewNop(), "finsight", "test", Check{Name: "redis", Fn: down})
	code, _ = serve(t, h.HandleHealth)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestHandleLiveness(t *testing.T) {
	h := New(logger.NewNop(), "finsight", "test")
	rec := httptest.NewRecorder()
	h.HandleLiveness(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alive")
}
