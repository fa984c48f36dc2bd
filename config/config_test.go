package config

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	os.Setenv("API_BASE_URL", "http://127.0.0.1:3000/api")
	os.Setenv("STORAGE_PATH", "reports.db")
	conf := New()

	assert.NotEmpty(t, conf)
	assert.Equal(t, "http://127.0.0.1:3000/api", conf.APIBaseURL)
}

func TestNewDefaultsProbeSchedule(t *testing.T) {
	os.Unsetenv("PROBE_SCHEDULE")
	conf := New()

	assert.Equal(t, "@every 15s", conf.ProbeSchedule)
}

func TestErrorStatus(t *testing.T) {

	ErrorStatus("error it borked", http.StatusBadRequest, httptest.NewRecorder(), errors.New("bad request"))
	assert.True(t, true)
}
