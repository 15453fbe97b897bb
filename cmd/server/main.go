package main

import (
	"flag"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logger.Debug.Printf("No .env file loaded: %v", err)
	}

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to start service: %v", err)
	}
	defer service.Close()

	userHandler := handlers.NewUserHandler(service)
	submissionHandler := handlers.NewSubmissionHandler(service)
	problemHandler := handlers.NewProblemHandler(service)

	http.HandleFunc("POST /api/v1/signup", userHandler.HandleSignup)
	http.HandleFunc("POST /api/v1/login", userHandler.HandleLogin)
	http.HandleFunc("POST /api/v1/submissions", submissionHandler.HandleSubmit)
	http.HandleFunc("GET /api/v1/leaderboard", submissionHandler.HandleLeaderboard)
	http.HandleFunc("GET /api/v1/problems", problemHandler.HandleListProblems)
	http.HandleFunc("GET /api/v1/problems/{problem_id}", problemHandler.HandleProblemInfo)

	http.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	http.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting semla server on %s", service.Config.Server.Port)
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Semla server failed: %v", err)
	}
}
