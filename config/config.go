package config

import (
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/opencivic/citizen-reports-sync/logging"
)

// Config holds the project config values
type Config struct {
	APIBaseURL     string
	EventsURL      string
	Port           string
	StoragePath    string
	ProbeSchedule  string
	SeedSampleData bool
}

// New sets up all config related services
func New() *Config {

	// load a local .env if present, real deployments set env vars directly
	_ = godotenv.Load()

	//setup zap logger and replace default logger
	_ = zap.ReplaceGlobals(logging.New().Desugar())

	return &Config{
		APIBaseURL:     os.Getenv("API_BASE_URL"),
		EventsURL:      os.Getenv("EVENTS_URL"),
		Port:           os.Getenv("PORT"),
		StoragePath:    os.Getenv("STORAGE_PATH"),
		ProbeSchedule:  probeSchedule(),
		SeedSampleData: os.Getenv("SEED_SAMPLE_DATA") == "true",
	}

}

func probeSchedule() string {
	if s := os.Getenv("PROBE_SCHEDULE"); s != "" {
		return s
	}
	return "@every 15s"
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}
