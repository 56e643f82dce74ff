package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"opssight/internal/api"
	"opssight/internal/api/handlers"
	"opssight/internal/api/middleware"
	"opssight/internal/engine/sync"
	"opssight/internal/engine/webhooks"
	"opssight/internal/pkg/logger"
	"opssight/internal/platform/audit"
	"opssight/internal/platform/auth"
	"opssight/internal/platform/config"
	"opssight/internal/platform/database"
	"opssight/internal/platform/github"
	"opssight/internal/platform/repositories"
	"opssight/internal/platform/sso"
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

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	teamRepo := repositories.NewTeamRepository(db)
	inviteRepo := repositories.NewTeamInviteRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	deliveryRepo := repositories.NewDeliveryRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	ghClient := github.NewClient(cfg.GitHub)
	syncSvc := sync.NewService(userRepo, ghClient, notificationRepo)
	auditLog := audit.NewLogger(db)

	stats := webhooks.NewStats()
	processor := webhooks.NewProcessor(cfg.GitHub.WebhookSecret, syncSvc, stats, deliveryRepo)

	// SAML is optional; the server runs without SSO when it cannot be configured.
	var samlSP *sso.ServiceProvider
	if cfg.SAML.IDPMetadataURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		samlSP, err = sso.NewServiceProvider(ctx, cfg.SAML)
		cancel()
		if err != nil {
			log.Printf("SAML disabled: %v", err)
			samlSP = nil
		}
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, teamRepo, inviteRepo, tokenSvc, ghClient, samlSP)
	userHandler := handlers.NewUserHandler(userRepo, syncSvc, auditLog)
	teamHandler := handlers.NewTeamHandler(teamRepo, inviteRepo, auditLog, cfg.Domains.AppBaseURL)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	webhookHandler := handlers.NewWebhookHandler(processor, deliveryRepo)
	auditHandler := handlers.NewAuditHandler(db)
	healthHandler := handlers.NewHealthHandler(db)
	metricsHandler := handlers.NewMetricsHandler(stats)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)

	deps := &api.Dependencies{
		AuthHandler:         authHandler,
		UserHandler:         userHandler,
		TeamHandler:         teamHandler,
		NotificationHandler: notificationHandler,
		WebhookHandler:      webhookHandler,
		AuditHandler:        auditHandler,
		HealthHandler:       healthHandler,
		MetricsHandler:      metricsHandler,
		AuthMiddleware:      authMiddleware,
		RateLimiter:         rateLimiter,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
