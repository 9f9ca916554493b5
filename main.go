package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/rangerwatch/ranger-report-api/api/handlers"
	"github.com/rangerwatch/ranger-report-api/config"
	"github.com/rangerwatch/ranger-report-api/logging"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize database, image relay and router
		log.Fatal(err)
	}

	a.Scheduler.Start()
	defer a.Scheduler.Stop()

	logger := logging.New()
	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	logger.Infow("ranger-report-api is up and running",
		"port", port,
		"url", baseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
