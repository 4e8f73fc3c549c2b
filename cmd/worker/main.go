package main

import (
	"blobvault/config"
	"blobvault/internal/repo"
	"blobvault/internal/storage"
	"blobvault/internal/worker"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	config.InitConfig()
	repo.InitMysql()
	storage.InitStorage()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go worker.RunSweep(ctx)

	log.Println("gc worker started")
	if err := worker.RunGCWorker(ctx); err != nil {
		log.Fatalf("gc worker stopped: %v", err)
	}
}
