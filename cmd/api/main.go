package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/postalhub/letter-dispatch/internal/config"
	"github.com/postalhub/letter-dispatch/internal/database"
	"github.com/postalhub/letter-dispatch/internal/pipeline"
	"github.com/postalhub/letter-dispatch/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	dbpool, err := database.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	defer dbpool.Close()

	repo := database.NewPostgresLetterRepository(context.Background(), dbpool)

	window, err := pipeline.NewDowntimeWindow(cfg.DowntimeStart, cfg.DowntimeEnd, cfg.BusinessTimeZone)
	if err != nil {
		log.Fatalf("Failed to build downtime window: %v", err)
	}
	staleTask := pipeline.NewStaleTask(repo, window, cfg.StaleAfterBusinessDays)

	router := server.SetupRoutes(server.NewLetterService(repo, staleTask))

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", port), router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
