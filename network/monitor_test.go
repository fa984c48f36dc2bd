package network

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonitorDefaultsToOnlineWithoutProbeURL(t *testing.T) {
	m := NewMonitor("", "", "@every 15s")
	m.Start()

	assert.True(t, m.IsOnline())
}

func TestMonitorSeedsStateFromProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMonitor(srv.URL, "", "@every 1h")
	m.Start()
	defer m.Stop()

	assert.True(t, m.IsOnline())
}

func TestMonitorGoesOfflineWhenProbeFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // unreachable from the start

	m := NewMonitor(srv.URL, "", "@every 1h")
	m.Start()
	defer m.Stop()

	assert.False(t, m.IsOnline())
}

func TestSubscribeReceivesDeduplicatedTransitions(t *testing.T) {
	m := NewMonitor("", "", "@every 15s")
	ch, cancel := m.Subscribe()
	defer cancel()

	m.SetOnline(true) // already online, must not fire
	m.SetOnline(false)
	m.SetOnline(false) // duplicate, must not fire
	m.SetOnline(true)

	var got []bool
	timeout := time.After(time.Second)
	for len(got) < 2 {
		select {
		case v := <-ch:
			got = append(got, v)
		case <-timeout:
			t.Fatalf("expected 2 transitions, got %v", got)
		}
	}
	assert.Equal(t, []bool{false, true}, got)

	select {
	case v := <-ch:
		t.Fatalf("unexpected extra transition: %v", v)
	default:
	}
}

func TestCancelClosesSubscription(t *testing.T) {
	m := NewMonitor("", "", "@every 15s")
	ch, cancel := m.Subscribe()

	cancel()
	_, open := <-ch
	assert.False(t, open)

	// transitions after cancel must not panic
	m.SetOnline(false)
}
