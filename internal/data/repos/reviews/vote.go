package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/profpulse/profpulse-backend/internal/domain"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

type VoteRepo interface {
	Create(ctx context.Context, tx *gorm.DB, vote *types.ReviewVote) (*types.ReviewVote, error)
	Delete(ctx context.Context, tx *gorm.DB, userID, reviewID uuid.UUID) (int64, error)
	Exists(ctx context.Context, tx *gorm.DB, userID, reviewID uuid.UUID) (bool, error)
	CountByReview(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) (int64, error)
	DeleteByReview(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) error
	ReviewIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error)
}

type voteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVoteRepo(db *gorm.DB, baseLog *logger.Logger) VoteRepo {
	repoLog := baseLog.With("repo", "VoteRepo")
	return &voteRepo{db: db, log: repoLog}
}

func (vr *voteRepo) Create(ctx context.Context, tx *gorm.DB, vote *types.ReviewVote) (*types.ReviewVote, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	if err := transaction.WithContext(ctx).Create(vote).Error; err != nil {
		return nil, err
	}
	return vote, nil
}

func (vr *voteRepo) Delete(ctx context.Context, tx *gorm.DB, userID, reviewID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	res := transaction.WithContext(ctx).
		Where("user_id = ? AND review_id = ?", userID, reviewID).
		Delete(&types.ReviewVote{})
	return res.RowsAffected, res.Error
}

func (vr *voteRepo) Exists(ctx context.Context, tx *gorm.DB, userID, reviewID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ReviewVote{}).
		Where("user_id = ? AND review_id = ?", userID, reviewID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (vr *voteRepo) CountByReview(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ReviewVote{}).
		Where("review_id = ?", reviewID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (vr *voteRepo) DeleteByReview(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	return transaction.WithContext(ctx).
		Where("review_id = ?", reviewID).
		Delete(&types.ReviewVote{}).Error
}

func (vr *voteRepo) ReviewIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.ReviewVote{}).
		Distinct("review_id").
		Pluck("review_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
