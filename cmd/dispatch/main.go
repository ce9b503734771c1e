package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/postalhub/letter-dispatch/internal/config"
	"github.com/postalhub/letter-dispatch/internal/database"
	"github.com/postalhub/letter-dispatch/internal/ftp"
	"github.com/postalhub/letter-dispatch/internal/pipeline"
	"github.com/postalhub/letter-dispatch/internal/schedule"
)

func setup() (*schedule.Scheduler, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	dbpool, err := database.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	ctx := context.Background()
	repo := database.NewPostgresLetterRepository(ctx, dbpool)
	if err := repo.CreateSchema(); err != nil {
		dbpool.Close()
		return nil, nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	client, err := ftp.NewClient(cfg.SFTP)
	if err != nil {
		dbpool.Close()
		return nil, nil, fmt.Errorf("failed to build sftp client: %w", err)
	}

	window, err := pipeline.NewDowntimeWindow(cfg.DowntimeStart, cfg.DowntimeEnd, cfg.BusinessTimeZone)
	if err != nil {
		dbpool.Close()
		return nil, nil, err
	}

	uploadTask := pipeline.NewUploadTask(repo, client, window,
		cfg.ServiceFolders, cfg.SmokeTestType, cfg.SmokeTestFolder, cfg.UploadBatchSize)
	reconcileTask := pipeline.NewReconcileTask(repo, client, window)
	staleTask := pipeline.NewStaleTask(repo, window, cfg.StaleAfterBusinessDays)

	lock := database.NewTaskLock(ctx, dbpool)

	scheduler := schedule.New()
	if err := scheduler.AddLockedTask("upload", cfg.UploadInterval, lock, database.TaskUpload, uploadTask.Run); err != nil {
		dbpool.Close()
		return nil, nil, err
	}
	if err := scheduler.AddLockedTask("reconcile", cfg.ReconcileInterval, lock, database.TaskReconcile, reconcileTask.Run); err != nil {
		dbpool.Close()
		return nil, nil, err
	}
	if err := scheduler.AddTask("staleness", cfg.StaleInterval, staleTask.Run); err != nil {
		dbpool.Close()
		return nil, nil, err
	}

	cleanupFunc := func() {
		dbpool.Close()
	}

	return scheduler, cleanupFunc, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	scheduler, cleanupFunc, err := setup()
	if err != nil {
		log.Fatal(err)
	}
	defer cleanupFunc()

	scheduler.Start()
	log.Println("Letter dispatch pipeline started.")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down, waiting for running tasks...")
	scheduler.Stop()
	log.Println("Letter dispatch pipeline stopped.")
}
