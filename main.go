package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/opencivic/citizen-reports-sync/api/handlers"

	"go.uber.org/zap"

	"github.com/opencivic/citizen-reports-sync/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil {
		log.Fatal(err)
	}
	defer a.Shutdown()

	port := a.Config.Port
	if port == "" {
		port = "8080"
	}
	zap.S().Infow("citizen-reports-sync is up and running",
		"port", port,
		"api", a.Config.APIBaseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
