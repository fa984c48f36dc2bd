package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/opencivic/citizen-reports-sync/auth"
)

func TestHealthCheckHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	healthCheckHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"alive": true}`, rr.Body.String())
}

func TestNewRegistersReportRoutes(t *testing.T) {
	a := App{Session: auth.NewSession(nil, nil)}
	router := a.New()

	paths := map[string]bool{}
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		if tpl, err := route.GetPathTemplate(); err == nil {
			paths[tpl] = true
		}
		return nil
	})
	assert.NoError(t, err)

	assert.True(t, paths["/health"])
	assert.True(t, paths["/api/v1/reports"])
	assert.True(t, paths["/api/v1/reports/{report_id}"])
	assert.True(t, paths["/api/v1/reports/sync"])
	assert.True(t, paths["/api/v1/sync/status"])
	assert.True(t, paths["/api/v1/auth/token"])
}

func TestOpenStoreFallsBackToMemory(t *testing.T) {
	store := openStore("")
	assert.NotNil(t, store)

	err := store.Set("k", "v")
	assert.NoError(t, err)
	v, ok := store.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}
