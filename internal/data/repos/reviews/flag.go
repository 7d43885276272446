package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/profpulse/profpulse-backend/internal/domain"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

type FlagRepo interface {
	Create(ctx context.Context, tx *gorm.DB, flag *types.ReviewFlag) (*types.ReviewFlag, error)
	Exists(ctx context.Context, tx *gorm.DB, userID, reviewID uuid.UUID) (bool, error)
	ListByReview(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) ([]*types.ReviewFlag, error)
	CountByReview(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) (int64, error)
	DeleteByReview(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) error
}

type flagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFlagRepo(db *gorm.DB, baseLog *logger.Logger) FlagRepo {
	repoLog := baseLog.With("repo", "FlagRepo")
	return &flagRepo{db: db, log: repoLog}
}

func (fr *flagRepo) Create(ctx context.Context, tx *gorm.DB, flag *types.ReviewFlag) (*types.ReviewFlag, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	if err := transaction.WithContext(ctx).Create(flag).Error; err != nil {
		return nil, err
	}
	return flag, nil
}

func (fr *flagRepo) Exists(ctx context.Context, tx *gorm.DB, userID, reviewID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ReviewFlag{}).
		Where("user_id = ? AND review_id = ?", userID, reviewID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (fr *flagRepo) ListByReview(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) ([]*types.ReviewFlag, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	var results []*types.ReviewFlag
	if err := transaction.WithContext(ctx).
		Where("review_id = ?", reviewID).
		Order("flagged_at asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (fr *flagRepo) CountByReview(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ReviewFlag{}).
		Where("review_id = ?", reviewID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (fr *flagRepo) DeleteByReview(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	return transaction.WithContext(ctx).
		Where("review_id = ?", reviewID).
		Delete(&types.ReviewFlag{}).Error
}
