package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/profpulse/profpulse-backend/internal/domain"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

type FollowRepo interface {
	Create(ctx context.Context, tx *gorm.DB, follow *types.ProfessorFollow) (*types.ProfessorFollow, error)
	Delete(ctx context.Context, tx *gorm.DB, userID, professorID uuid.UUID) (int64, error)
	Exists(ctx context.Context, tx *gorm.DB, userID, professorID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ProfessorFollow, error)
}

type followRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFollowRepo(db *gorm.DB, baseLog *logger.Logger) FollowRepo {
	repoLog := baseLog.With("repo", "FollowRepo")
	return &followRepo{db: db, log: repoLog}
}

func (fr *followRepo) Create(ctx context.Context, tx *gorm.DB, follow *types.ProfessorFollow) (*types.ProfessorFollow, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	if err := transaction.WithContext(ctx).Create(follow).Error; err != nil {
		return nil, err
	}
	return follow, nil
}

func (fr *followRepo) Delete(ctx context.Context, tx *gorm.DB, userID, professorID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	res := transaction.WithContext(ctx).
		Where("user_id = ? AND professor_id = ?", userID, professorID).
		Delete(&types.ProfessorFollow{})
	return res.RowsAffected, res.Error
}

func (fr *followRepo) Exists(ctx context.Context, tx *gorm.DB, userID, professorID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ProfessorFollow{}).
		Where("user_id = ? AND professor_id = ?", userID, professorID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (fr *followRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ProfessorFollow, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	var results []*types.ProfessorFollow
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("followed_at desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
