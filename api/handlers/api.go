package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/opencivic/citizen-reports-sync/api"
	"github.com/opencivic/citizen-reports-sync/auth"
	"github.com/opencivic/citizen-reports-sync/cache"
	"github.com/opencivic/citizen-reports-sync/config"
	"github.com/opencivic/citizen-reports-sync/models"
	"github.com/opencivic/citizen-reports-sync/network"
	"github.com/opencivic/citizen-reports-sync/remote"
	"github.com/opencivic/citizen-reports-sync/storage"
	syncsvc "github.com/opencivic/citizen-reports-sync/sync"
)

// App stores the router and the sync services, so they can be reused
type App struct {
	Router      *mux.Router
	Config      config.Config
	Store       storage.Storage
	Cache       *cache.ReportCache
	Monitor     *network.Monitor
	Coordinator *syncsvc.Coordinator
	Session     *auth.Session
}

// sessionTokens late-binds the session so the remote client and the session
// can reference each other
type sessionTokens struct {
	session *auth.Session
}

func (t *sessionTokens) Token() string {
	if t.session == nil {
		return ""
	}
	return t.session.Token()
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareAuth{Session: a.Session}
	m.SetupGoGuardian()

	r := mux.NewRouter()
	r.Use(api.LoggingMiddleware)
	r.Use(api.TimeoutMiddleware(30 * time.Second))

	re := Report{Sync: a.Coordinator}
	photo := PhotoHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(m.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/reports", api.Middleware(http.HandlerFunc(re.ReportHandler))).Methods("GET")
	apiCreate.Handle("/reports", api.Middleware(http.HandlerFunc(re.CreateReportHandler))).Methods("POST")
	apiCreate.Handle("/reports/sync", api.Middleware(http.HandlerFunc(re.FlushHandler))).Methods("POST")
	apiCreate.Handle("/reports/{report_id}", api.Middleware(http.HandlerFunc(re.ReportByIDHandler))).Methods("GET")
	apiCreate.Handle("/reports/{report_id}", api.Middleware(http.HandlerFunc(re.UpdateReportHandler))).Methods("PATCH")
	apiCreate.Handle("/reports/{report_id}", api.Middleware(http.HandlerFunc(re.DeleteReportHandler))).Methods("DELETE")

	apiCreate.Handle("/sync/status", api.Middleware(http.HandlerFunc(re.SyncStatusHandler))).Methods("GET")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(photo.GenerateSignature))).Methods("POST")

	return r
}

// Initialize is invoked by main to wire storage, cache, network monitoring,
// the remote client and the sync coordinator, and to create a router
func (a *App) Initialize() error {
	a.Store = openStore(a.Config.StoragePath)

	a.Cache = cache.New(a.Store)
	if a.Config.SeedSampleData {
		a.Cache.SeedSampleData()
	}

	tokens := &sessionTokens{}
	client := remote.NewHTTP(a.Config.APIBaseURL, tokens)
	a.Session = auth.NewSession(a.Store, client)
	tokens.session = a.Session

	probeURL := ""
	if a.Config.APIBaseURL != "" {
		probeURL = a.Config.APIBaseURL + "/health"
	}
	a.Monitor = network.NewMonitor(probeURL, a.Config.EventsURL, a.Config.ProbeSchedule)
	a.Monitor.Start()

	a.Coordinator = syncsvc.New(client, a.Cache, a.Monitor, a.Session)
	a.Coordinator.Start()
	zap.S().Info("citizen-reports-sync services are wired up")

	// initialize api router
	a.initializeRoutes()
	return nil
}

// Shutdown stops the background services
func (a *App) Shutdown() {
	if a.Coordinator != nil {
		a.Coordinator.Close()
	}
	if a.Monitor != nil {
		a.Monitor.Stop()
	}
	if closer, ok := a.Store.(io.Closer); ok {
		_ = closer.Close()
	}
}

// openStore opens the durable store, degrading to memory-only when the
// database cannot be opened
func openStore(path string) storage.Storage {
	if path == "" {
		zap.S().Warn("no storage path configured, using in-memory store")
		return storage.NewMemory()
	}
	store, err := storage.OpenSQLite(path)
	if err != nil {
		zap.S().Warnw("failed to open durable store, using in-memory store", "path", path, "error", err)
		return storage.NewMemory()
	}
	return store
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
