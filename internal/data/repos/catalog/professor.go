package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/profpulse/profpulse-backend/internal/domain"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

// ProfessorStats is the aggregate over a professor's visible reviews,
// computed in SQL so the recomputation reads one consistent snapshot.
type ProfessorStats struct {
	AvgQuality    float64
	AvgDifficulty float64
	ReviewCount   int
}

type ProfessorRepo interface {
	Create(ctx context.Context, tx *gorm.DB, professors []*types.Professor) ([]*types.Professor, error)
	GetByID(ctx context.Context, tx *gorm.DB, professorID uuid.UUID) (*types.Professor, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, professorIDs []uuid.UUID) ([]*types.Professor, error)
	Exists(ctx context.Context, tx *gorm.DB, professorID uuid.UUID) (bool, error)
	List(ctx context.Context, tx *gorm.DB, search, department string, offset, limit int) ([]*types.Professor, error)
	ListIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error)
	UpdateInfo(ctx context.Context, tx *gorm.DB, professorID uuid.UUID, name, department *string) error
	UpdateStats(ctx context.Context, tx *gorm.DB, professorID uuid.UUID, stats ProfessorStats) error
	SetOwnership(ctx context.Context, tx *gorm.DB, professorID, userID uuid.UUID, claimedAt time.Time) error
}

type professorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfessorRepo(db *gorm.DB, baseLog *logger.Logger) ProfessorRepo {
	repoLog := baseLog.With("repo", "ProfessorRepo")
	return &professorRepo{db: db, log: repoLog}
}

func (pr *professorRepo) Create(ctx context.Context, tx *gorm.DB, professors []*types.Professor) ([]*types.Professor, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if len(professors) == 0 {
		return []*types.Professor{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&professors).Error; err != nil {
		return nil, err
	}
	return professors, nil
}

func (pr *professorRepo) GetByID(ctx context.Context, tx *gorm.DB, professorID uuid.UUID) (*types.Professor, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.Professor
	if err := transaction.WithContext(ctx).
		Where("id = ?", professorID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *professorRepo) GetByIDs(ctx context.Context, tx *gorm.DB, professorIDs []uuid.UUID) ([]*types.Professor, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.Professor
	if len(professorIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", professorIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *professorRepo) Exists(ctx context.Context, tx *gorm.DB, professorID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Professor{}).
		Where("id = ?", professorID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (pr *professorRepo) List(ctx context.Context, tx *gorm.DB, search, department string, offset, limit int) ([]*types.Professor, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	q := transaction.WithContext(ctx).Model(&types.Professor{})
	if search != "" {
		q = q.Where("name ILIKE ?", "%"+search+"%")
	}
	if department != "" {
		q = q.Where("department ILIKE ?", "%"+department+"%")
	}

	var results []*types.Professor
	if err := q.Order("name asc").Offset(offset).Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *professorRepo) ListIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.Professor{}).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (pr *professorRepo) UpdateInfo(ctx context.Context, tx *gorm.DB, professorID uuid.UUID, name, department *string) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	updates := map[string]any{}
	if name != nil {
		updates["name"] = *name
	}
	if department != nil {
		updates["department"] = *department
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Professor{}).
		Where("id = ?", professorID).
		Updates(updates).Error
}

func (pr *professorRepo) UpdateStats(ctx context.Context, tx *gorm.DB, professorID uuid.UUID, stats ProfessorStats) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Professor{}).
		Where("id = ?", professorID).
		Updates(map[string]any{
			"avg_quality":    stats.AvgQuality,
			"avg_difficulty": stats.AvgDifficulty,
			"review_count":   stats.ReviewCount,
		}).Error
}

func (pr *professorRepo) SetOwnership(ctx context.Context, tx *gorm.DB, professorID, userID uuid.UUID, claimedAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Professor{}).
		Where("id = ?", professorID).
		Updates(map[string]any{
			"is_claimed":         true,
			"claimed_by_user_id": userID,
			"claimed_at":         claimedAt,
		}).Error
}
