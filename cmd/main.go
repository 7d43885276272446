package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/profpulse/profpulse-backend/internal/cache"
	"github.com/profpulse/profpulse-backend/internal/data/repos"
	"github.com/profpulse/profpulse-backend/internal/db"
	"github.com/profpulse/profpulse-backend/internal/identity"
	"github.com/profpulse/profpulse-backend/internal/observability"
	"github.com/profpulse/profpulse-backend/internal/platform/envutil"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
	"github.com/profpulse/profpulse-backend/internal/services"
)

func main() {
	// Logger
	logMode := envutil.Str("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Tracing
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "profpulse-backend",
		Environment: envutil.Str("APP_ENV", "development"),
		Version:     envutil.Str("APP_VERSION", "dev"),
	})
	if shutdownOTel != nil {
		defer func() {
			if err := shutdownOTel(ctx); err != nil {
				log.Warn("OTel shutdown failed", "error", err)
			}
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Stats cache
	statsCache, err := cache.NewStatsCache(log)
	if err != nil {
		log.Warn("Stats cache unavailable, reads fall back to Postgres", "error", err)
		statsCache = nil
	}
	if statsCache != nil {
		defer statsCache.Close()
	}

	// Identity resolution for the transport layer
	jwtSecretKey := envutil.Str("JWT_SECRET_KEY", "defaultsecret")
	resolver := identity.NewJWTResolver(log, jwtSecretKey)

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	professorRepo := repos.NewProfessorRepo(thePG, log)
	followRepo := repos.NewFollowRepo(thePG, log)
	reviewRepo := repos.NewReviewRepo(thePG, log)
	voteRepo := repos.NewVoteRepo(thePG, log)
	flagRepo := repos.NewFlagRepo(thePG, log)
	claimRepo := repos.NewClaimRepo(thePG, log)
	auditRepo := repos.NewAuditRepo(thePG, log)

	_ = userRepo

	// Services
	log.Info("Setting up Services from main...")
	statsService := services.NewStatsService(thePG, log, professorRepo, reviewRepo, voteRepo, flagRepo, statsCache)
	reviewService := services.NewReviewService(thePG, log, reviewRepo, voteRepo, flagRepo, professorRepo, statsService)
	voteService := services.NewVoteService(thePG, log, voteRepo, reviewRepo)
	flagService := services.NewFlagService(thePG, log, flagRepo, reviewRepo)
	claimService := services.NewClaimService(thePG, log, claimRepo, professorRepo, auditRepo)
	moderationService := services.NewModerationService(thePG, log, reviewRepo, voteRepo, flagRepo, auditRepo, statsService)
	professorService := services.NewProfessorService(thePG, log, professorRepo, followRepo, statsCache)

	_ = resolver
	_ = reviewService
	_ = voteService
	_ = flagService
	_ = claimService
	_ = moderationService
	_ = professorService

	if envutil.Bool("REBUILD_STATS_ON_BOOT", false) {
		if err := statsService.Rebuild(ctx); err != nil {
			log.Error("Stats rebuild failed", "error", err)
		}
	}

	log.Info("Core initialized, waiting for shutdown signal...")
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("Shutting down...")
}
