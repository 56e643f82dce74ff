package main

import (
	"context"
	"log"
	"time"

	"opssight/internal/engine/sync"
	"opssight/internal/pkg/logger"
	"opssight/internal/platform/config"
	"opssight/internal/platform/database"
	"opssight/internal/platform/github"
	"opssight/internal/platform/repositories"
	"opssight/internal/workers"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	userRepo := repositories.NewUserRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	deliveryRepo := repositories.NewDeliveryRepository(db)

	ghClient := github.NewClient(cfg.GitHub)
	syncSvc := sync.NewService(userRepo, ghClient, notificationRepo)

	runner := workers.NewRunner(userRepo, notificationRepo, deliveryRepo, syncSvc)

	log.Println("Starting background workers...")

	go runResyncWorker(runner, cfg.Sync)
	go runNotificationCleanupWorker(runner, cfg.Notifications)
	go runDeliveryPruneWorker(runner)

	// Keep process alive
	select {}
}

func runResyncWorker(runner *workers.Runner, cfg config.SyncConfig) {
	ticker := time.NewTicker(cfg.ResyncEvery)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		if err := runner.ResyncStaleProfiles(ctx, cfg.StaleAfter, cfg.ResyncBatch); err != nil {
			log.Printf("Error resyncing stale profiles: %v", err)
		}
		cancel()
	}
}

func runNotificationCleanupWorker(runner *workers.Runner, cfg config.NotificationsConfig) {
	ticker := time.NewTicker(cfg.CleanupEvery)
	defer ticker.Stop()

	for range ticker.C {
		if err := runner.CleanupNotifications(cfg.Retention); err != nil {
			log.Printf("Error cleaning up notifications: %v", err)
		}
	}
}

func runDeliveryPruneWorker(runner *workers.Runner) {
	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := runner.PruneDeliveries(30 * 24 * time.Hour); err != nil {
			log.Printf("Error pruning deliveries: %v", err)
		}
	}
}
