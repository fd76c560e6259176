package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	err error
}

func (c stubChecker) CheckHealth(ctx context.Context) error {
	return c.err
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthHandler_NoCheckers(t *testing.T) {
	m := NewHealthManager("1.2.3")

	rec := httptest.NewRecorder()
	m.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeHealth(t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestHealthHandler_AllHealthy(t *testing.T) {
	m := NewHealthManager("1.2.3")
	m.RegisterChecker("registry", stubChecker{})
	m.RegisterChecker("provider", stubChecker{})

	rec := httptest.NewRecorder()
	m.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeHealth(t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Checks["registry"])
	assert.Equal(t, "healthy", resp.Checks["provider"])
}

func TestHealthHandler_OneFailing(t *testing.T) {
	m := NewHealthManager("1.2.3")
	m.RegisterChecker("registry", stubChecker{})
	m.RegisterChecker("provider", stubChecker{err: errors.New("endpoint unreachable")})

	rec := httptest.NewRecorder()
	m.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeHealth(t, rec)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "healthy", resp.Checks["registry"])
	assert.Equal(t, "endpoint unreachable", resp.Checks["provider"])
}

func TestLivenessHandler_IgnoresCheckers(t *testing.T) {
	m := NewHealthManager("1.2.3")
	m.RegisterChecker("provider", stubChecker{err: errors.New("down")})

	rec := httptest.NewRecorder()
	m.LivenessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", decodeHealth(t, rec).Status)
}

func TestReadinessHandler_Failing(t *testing.T) {
	m := NewHealthManager("1.2.3")
	m.RegisterChecker("provider", stubChecker{err: errors.New("down")})

	rec := httptest.NewRecorder()
	m.ReadinessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", decodeHealth(t, rec).Status)
}

func TestStartupHandler(t *testing.T) {
	m := NewHealthManager("1.2.3")

	rec := httptest.NewRecorder()
	m.StartupHandler(rec, httptest.NewRequest(http.MethodGet, "/health/startup", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "started", decodeHealth(t, rec).Status)
}

func TestGetHealthManager_InitOverrides(t *testing.T) {
	first := GetHealthManager()
	require.NotNil(t, first)

	replaced := InitHealthManager("9.9.9")
	assert.Same(t, replaced, GetHealthManager())
}
