package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/profpulse/profpulse-backend/internal/cache"
	"github.com/profpulse/profpulse-backend/internal/data/repos"
	types "github.com/profpulse/profpulse-backend/internal/domain"
	"github.com/profpulse/profpulse-backend/internal/platform/apierr"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

type ListProfessorsInput struct {
	Search     string
	Department string
	Offset     int
	Limit      int
}

const defaultListLimit = 50

// ProfessorService is the directory: profile CRUD for admins, lookups and
// follows for everyone. Stats reads go through the cache; the stored row is
// the source of truth and cache entries expire on their TTL if an
// invalidation is missed.
type ProfessorService interface {
	Create(ctx context.Context, name, department string) (*types.Professor, error)
	UpdateInfo(ctx context.Context, professorID uuid.UUID, name, department *string) (*types.Professor, error)
	Get(ctx context.Context, professorID uuid.UUID) (*types.Professor, error)
	Stats(ctx context.Context, professorID uuid.UUID) (cache.ProfessorStats, error)
	List(ctx context.Context, input ListProfessorsInput) ([]*types.Professor, error)
	Follow(ctx context.Context, professorID uuid.UUID) error
	Unfollow(ctx context.Context, professorID uuid.UUID) error
	IsFollowing(ctx context.Context, professorID uuid.UUID) (bool, error)
	Following(ctx context.Context) ([]*types.Professor, error)
}

type professorService struct {
	db            *gorm.DB
	log           *logger.Logger
	professorRepo repos.ProfessorRepo
	followRepo    repos.FollowRepo
	statsCache    cache.StatsCache
}

func NewProfessorService(
	db *gorm.DB,
	baseLog *logger.Logger,
	professorRepo repos.ProfessorRepo,
	followRepo repos.FollowRepo,
	statsCache cache.StatsCache,
) ProfessorService {
	return &professorService{
		db:            db,
		log:           baseLog.With("service", "ProfessorService"),
		professorRepo: professorRepo,
		followRepo:    followRepo,
		statsCache:    statsCache,
	}
}

func (ps *professorService) Create(ctx context.Context, name, department string) (*types.Professor, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	department = strings.TrimSpace(department)
	if name == "" || department == "" {
		return nil, apierr.Invalid("name and department are required")
	}
	created, err := ps.professorRepo.Create(ctx, nil, []*types.Professor{{
		Name:       name,
		Department: department,
	}})
	if err != nil {
		return nil, err
	}
	ps.log.Info("professor created", "professor_id", created[0].ID, "name", name)
	return created[0], nil
}

// UpdateInfo edits name and department only. Ownership and stats fields are
// written exclusively by the claim workflow and the recomputation path.
func (ps *professorService) UpdateInfo(ctx context.Context, professorID uuid.UUID, name, department *string) (*types.Professor, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, err
	}
	if name == nil && department == nil {
		return ps.professorRepo.GetByID(ctx, nil, professorID)
	}

	var updated *types.Professor
	err := runInTx(ctx, ps.db, ps.log, "ProfessorService.UpdateInfo", func(ctx context.Context, tx *gorm.DB) error {
		if _, err := ps.professorRepo.GetByID(ctx, tx, professorID); err != nil {
			return notFoundOr(err, "professor not found")
		}
		if err := ps.professorRepo.UpdateInfo(ctx, tx, professorID, name, department); err != nil {
			return err
		}
		var err error
		updated, err = ps.professorRepo.GetByID(ctx, tx, professorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (ps *professorService) Get(ctx context.Context, professorID uuid.UUID) (*types.Professor, error) {
	professor, err := ps.professorRepo.GetByID(ctx, nil, professorID)
	if err != nil {
		return nil, notFoundOr(err, "professor not found")
	}
	return professor, nil
}

// Stats is a read-through: cache hit returns directly, a miss reads the
// stored aggregate and backfills the cache. Cache failures degrade to the
// stored row.
func (ps *professorService) Stats(ctx context.Context, professorID uuid.UUID) (cache.ProfessorStats, error) {
	if ps.statsCache != nil {
		cached, err := ps.statsCache.Get(ctx, professorID)
		if err != nil {
			ps.log.Warn("stats cache read failed", "professor_id", professorID, "error", err)
		} else if cached != nil {
			return *cached, nil
		}
	}

	professor, err := ps.professorRepo.GetByID(ctx, nil, professorID)
	if err != nil {
		return cache.ProfessorStats{}, notFoundOr(err, "professor not found")
	}
	stats := cache.ProfessorStats{
		AvgQuality:    professor.AvgQuality,
		AvgDifficulty: professor.AvgDifficulty,
		ReviewCount:   professor.ReviewCount,
	}
	if ps.statsCache != nil {
		if err := ps.statsCache.Set(ctx, professorID, stats); err != nil {
			ps.log.Warn("stats cache write failed", "professor_id", professorID, "error", err)
		}
	}
	return stats, nil
}

func (ps *professorService) List(ctx context.Context, input ListProfessorsInput) ([]*types.Professor, error) {
	limit := input.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}
	return ps.professorRepo.List(ctx, nil, strings.TrimSpace(input.Search), strings.TrimSpace(input.Department), offset, limit)
}

// Follow is idempotent: following an already-followed professor succeeds
// without adding a second row.
func (ps *professorService) Follow(ctx context.Context, professorID uuid.UUID) error {
	rd, err := requireRole(ctx, types.RoleStudent)
	if err != nil {
		return err
	}
	return runInTx(ctx, ps.db, ps.log, "ProfessorService.Follow", func(ctx context.Context, tx *gorm.DB) error {
		exists, err := ps.professorRepo.Exists(ctx, tx, professorID)
		if err != nil {
			return err
		}
		if !exists {
			return apierr.NotFound("professor not found")
		}
		if _, err := ps.followRepo.Create(ctx, tx, &types.ProfessorFollow{
			UserID:      rd.UserID,
			ProfessorID: professorID,
		}); err != nil {
			if isUniqueViolation(err, "ux_follow_user_professor") {
				return nil
			}
			return err
		}
		return nil
	})
}

func (ps *professorService) Unfollow(ctx context.Context, professorID uuid.UUID) error {
	rd, err := requireIdentity(ctx)
	if err != nil {
		return err
	}
	_, err = ps.followRepo.Delete(ctx, nil, rd.UserID, professorID)
	return err
}

func (ps *professorService) IsFollowing(ctx context.Context, professorID uuid.UUID) (bool, error) {
	rd, err := requireIdentity(ctx)
	if err != nil {
		return false, err
	}
	return ps.followRepo.Exists(ctx, nil, rd.UserID, professorID)
}

func (ps *professorService) Following(ctx context.Context) ([]*types.Professor, error) {
	rd, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	follows, err := ps.followRepo.ListByUser(ctx, nil, rd.UserID)
	if err != nil {
		return nil, err
	}
	if len(follows) == 0 {
		return []*types.Professor{}, nil
	}
	professorIDs := make([]uuid.UUID, 0, len(follows))
	for _, f := range follows {
		professorIDs = append(professorIDs, f.ProfessorID)
	}
	return ps.professorRepo.GetByIDs(ctx, nil, professorIDs)
}
