// Package network tracks whether the remote service is reachable and
// publishes online/offline transitions to subscribers. The monitor is the
// only clock that triggers automatic queue replay, so transitions are
// deduplicated: repeated probes that agree with the current state never
// re-fire.
package network

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Monitor holds the current connectivity state and its subscribers
type Monitor struct {
	mu      sync.Mutex
	online  bool
	subs    map[int]chan bool
	nextSub int

	probeURL  string
	eventsURL string
	schedule  string
	client    *http.Client
	cron      *cron.Cron
	stop      chan struct{}
}

// NewMonitor creates a monitor probing probeURL on the given cron schedule.
// An optional eventsURL names a websocket endpoint whose connect/disconnect
// acts as a push-style connectivity signal. With no probe URL the monitor
// reports online forever and never emits a transition: with no way to
// observe the network it fails open, not closed.
func NewMonitor(probeURL, eventsURL, schedule string) *Monitor {
	return &Monitor{
		online:    true,
		subs:      make(map[int]chan bool),
		probeURL:  probeURL,
		eventsURL: eventsURL,
		schedule:  schedule,
		client:    &http.Client{Timeout: 5 * time.Second},
		stop:      make(chan struct{}),
	}
}

// Start seeds the state with an immediate probe and begins the periodic
// probe (and the websocket watcher when configured)
func (m *Monitor) Start() {
	if m.probeURL == "" {
		zap.S().Info("no probe URL configured, assuming online")
		return
	}

	m.setOnline(m.probe())

	m.cron = cron.New()
	_, err := m.cron.AddFunc(m.schedule, func() {
		m.setOnline(m.probe())
	})
	if err != nil {
		zap.S().Errorw("failed to register connectivity probe", "error", err)
		return
	}
	m.cron.Start()

	if m.eventsURL != "" {
		go m.watchEvents()
	}
}

// Stop halts the probe schedule and the websocket watcher
func (m *Monitor) Stop() {
	if m.cron != nil {
		ctx := m.cron.Stop()
		<-ctx.Done()
	}
	close(m.stop)
}

// IsOnline returns the current connectivity snapshot for one-shot decisions
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe returns a channel receiving each connectivity transition and a
// cancel func releasing the subscription. Sends are non-blocking into a
// buffered channel: a subscriber that falls behind misses intermediate
// states, never the deduplication guarantee.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan bool, 8)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// SetOnline forces the connectivity state, mainly useful in tests and for
// environments that learn about connectivity some other way
func (m *Monitor) SetOnline(online bool) {
	m.setOnline(online)
}

func (m *Monitor) setOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online == online {
		return
	}
	m.online = online
	zap.S().Infow("connectivity changed", "online", online)

	for _, ch := range m.subs {
		select {
		case ch <- online:
		default:
		}
	}
}

func (m *Monitor) probe() bool {
	resp, err := m.client.Get(m.probeURL)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

// watchEvents keeps a websocket connection to the backend's event stream. A
// live connection means online; a failed dial or read error means offline
// until the next successful redial.
func (m *Monitor) watchEvents() {
	for {
		select {
		case <-m.stop:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(m.eventsURL, nil)
		if err != nil {
			m.setOnline(false)
			if !m.sleep(5 * time.Second) {
				return
			}
			continue
		}

		m.setOnline(true)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		_ = conn.Close()
		m.setOnline(false)

		if !m.sleep(time.Second) {
			return
		}
	}
}

func (m *Monitor) sleep(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-m.stop:
		return false
	}
}
