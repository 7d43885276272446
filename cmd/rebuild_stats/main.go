// Command rebuild_stats recomputes every professor's aggregate and every
// review's materialized counters from the ledger rows. It is the offline
// repair path for drift left behind by crashes or manual data edits.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/profpulse/profpulse-backend/internal/cache"
	"github.com/profpulse/profpulse-backend/internal/data/repos"
	"github.com/profpulse/profpulse-backend/internal/db"
	"github.com/profpulse/profpulse-backend/internal/platform/envutil"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
	"github.com/profpulse/profpulse-backend/internal/services"
)

func main() {
	log, err := logger.New(envutil.Str("LOG_MODE", "production"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	thePG := postgresService.DB()

	statsCache, err := cache.NewStatsCache(log)
	if err != nil {
		log.Warn("Stats cache unavailable, skipping invalidation", "error", err)
		statsCache = nil
	}
	if statsCache != nil {
		defer statsCache.Close()
	}

	professorRepo := repos.NewProfessorRepo(thePG, log)
	reviewRepo := repos.NewReviewRepo(thePG, log)
	voteRepo := repos.NewVoteRepo(thePG, log)
	flagRepo := repos.NewFlagRepo(thePG, log)

	statsService := services.NewStatsService(thePG, log, professorRepo, reviewRepo, voteRepo, flagRepo, statsCache)
	if err := statsService.Rebuild(context.Background()); err != nil {
		log.Fatal("Rebuild failed", "error", err)
	}
	log.Info("Rebuild complete")
}
