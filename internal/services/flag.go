package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/profpulse/profpulse-backend/internal/data/repos"
	types "github.com/profpulse/profpulse-backend/internal/domain"
	"github.com/profpulse/profpulse-backend/internal/platform/apierr"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

// FlagService maintains the abuse-flag ledger. Raising a flag never changes
// a review's visibility on its own; hiding is a separate moderation action.
type FlagService interface {
	Raise(ctx context.Context, reviewID uuid.UUID, reason *string) error
	HasFlagged(ctx context.Context, reviewID uuid.UUID) (bool, error)
	ListForReview(ctx context.Context, reviewID uuid.UUID) ([]*types.ReviewFlag, error)
}

type flagService struct {
	db         *gorm.DB
	log        *logger.Logger
	flagRepo   repos.FlagRepo
	reviewRepo repos.ReviewRepo
}

func NewFlagService(db *gorm.DB, baseLog *logger.Logger, flagRepo repos.FlagRepo, reviewRepo repos.ReviewRepo) FlagService {
	return &flagService{
		db:         db,
		log:        baseLog.With("service", "FlagService"),
		flagRepo:   flagRepo,
		reviewRepo: reviewRepo,
	}
}

func (fs *flagService) Raise(ctx context.Context, reviewID uuid.UUID, reason *string) error {
	rd, err := requireIdentity(ctx)
	if err != nil {
		return err
	}
	err = runInTx(ctx, fs.db, fs.log, "FlagService.Raise", func(ctx context.Context, tx *gorm.DB) error {
		if _, err := fs.reviewRepo.GetByID(ctx, tx, reviewID); err != nil {
			return notFoundOr(err, "review not found")
		}
		flag := &types.ReviewFlag{
			UserID:   rd.UserID,
			ReviewID: reviewID,
			Reason:   reason,
		}
		if _, err := fs.flagRepo.Create(ctx, tx, flag); err != nil {
			if isUniqueViolation(err, "ux_flag_user_review") {
				return apierr.Conflict("you already flagged this review")
			}
			if isForeignKeyViolation(err, "fk_review_flag_review_id") {
				return apierr.NotFound("review not found")
			}
			return err
		}
		return fs.reviewRepo.IncrementFlags(ctx, tx, reviewID)
	})
	if err != nil {
		return err
	}
	fs.log.Info("review flagged", "review_id", reviewID)
	return nil
}

func (fs *flagService) HasFlagged(ctx context.Context, reviewID uuid.UUID) (bool, error) {
	rd, err := requireIdentity(ctx)
	if err != nil {
		return false, err
	}
	return fs.flagRepo.Exists(ctx, nil, rd.UserID, reviewID)
}

// ListForReview is a moderation view of the raw flag rows.
func (fs *flagService) ListForReview(ctx context.Context, reviewID uuid.UUID) ([]*types.ReviewFlag, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, err
	}
	if _, err := fs.reviewRepo.GetByID(ctx, nil, reviewID); err != nil {
		return nil, notFoundOr(err, "review not found")
	}
	return fs.flagRepo.ListByReview(ctx, nil, reviewID)
}
