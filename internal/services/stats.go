package services

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/profpulse/profpulse-backend/internal/cache"
	"github.com/profpulse/profpulse-backend/internal/data/repos"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

// StatsService recomputes professor aggregates from the visible review set.
// Recompute runs inside the caller's transaction so aggregate writes commit
// with the review mutation that made them stale. Rebuild is the offline
// repair path: it recomputes every professor and every review counter from
// the ledgers.
type StatsService interface {
	Recompute(ctx context.Context, tx *gorm.DB, professorID uuid.UUID) error
	InvalidateCache(ctx context.Context, professorID uuid.UUID)
	Rebuild(ctx context.Context) error
}

type statsService struct {
	db            *gorm.DB
	log           *logger.Logger
	professorRepo repos.ProfessorRepo
	reviewRepo    repos.ReviewRepo
	voteRepo      repos.VoteRepo
	flagRepo      repos.FlagRepo
	statsCache    cache.StatsCache
}

func NewStatsService(
	db *gorm.DB,
	baseLog *logger.Logger,
	professorRepo repos.ProfessorRepo,
	reviewRepo repos.ReviewRepo,
	voteRepo repos.VoteRepo,
	flagRepo repos.FlagRepo,
	statsCache cache.StatsCache,
) StatsService {
	return &statsService{
		db:            db,
		log:           baseLog.With("service", "StatsService"),
		professorRepo: professorRepo,
		reviewRepo:    reviewRepo,
		voteRepo:      voteRepo,
		flagRepo:      flagRepo,
		statsCache:    statsCache,
	}
}

func (ss *statsService) Recompute(ctx context.Context, tx *gorm.DB, professorID uuid.UUID) error {
	stats, err := ss.reviewRepo.VisibleStats(ctx, tx, professorID)
	if err != nil {
		return err
	}
	return ss.professorRepo.UpdateStats(ctx, tx, professorID, stats)
}

// InvalidateCache drops the cached stats entry. Callers invoke it after
// commit; a failed invalidation only extends staleness until the TTL, so it
// is logged and swallowed.
func (ss *statsService) InvalidateCache(ctx context.Context, professorID uuid.UUID) {
	if ss.statsCache == nil {
		return
	}
	if err := ss.statsCache.Invalidate(ctx, professorID); err != nil {
		ss.log.Warn("stats cache invalidation failed", "professor_id", professorID, "error", err)
	}
}

const rebuildConcurrency = 8

func (ss *statsService) Rebuild(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "StatsService.Rebuild")
	defer span.End()

	professorIDs, err := ss.professorRepo.ListIDs(ctx, nil)
	if err != nil {
		return err
	}
	ss.log.Info("rebuilding aggregates", "professors", len(professorIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rebuildConcurrency)
	for _, professorID := range professorIDs {
		g.Go(func() error {
			return ss.rebuildProfessor(gctx, professorID)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, professorID := range professorIDs {
		ss.InvalidateCache(ctx, professorID)
	}
	return nil
}

// rebuildProfessor recomputes one professor's review counters and aggregate
// in a single transaction. Counters are rebuilt for hidden reviews too so a
// later unhide starts from correct numbers.
func (ss *statsService) rebuildProfessor(ctx context.Context, professorID uuid.UUID) error {
	return ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviewIDs, err := ss.reviewRepo.IDsByProfessor(ctx, tx, professorID)
		if err != nil {
			return err
		}
		for _, reviewID := range reviewIDs {
			helpful, err := ss.voteRepo.CountByReview(ctx, tx, reviewID)
			if err != nil {
				return err
			}
			flags, err := ss.flagRepo.CountByReview(ctx, tx, reviewID)
			if err != nil {
				return err
			}
			if err := ss.reviewRepo.SetCounters(ctx, tx, reviewID, int(helpful), int(flags)); err != nil {
				return err
			}
		}
		return ss.Recompute(ctx, tx, professorID)
	})
}
