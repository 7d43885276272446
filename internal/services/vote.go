package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/profpulse/profpulse-backend/internal/data/repos"
	types "github.com/profpulse/profpulse-backend/internal/domain"
	domainreviews "github.com/profpulse/profpulse-backend/internal/domain/reviews"
	"github.com/profpulse/profpulse-backend/internal/platform/apierr"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

// VoteService maintains the helpful-vote ledger. The ledger row and the
// review's helpful counter always move in the same transaction.
type VoteService interface {
	Cast(ctx context.Context, reviewID uuid.UUID) error
	Retract(ctx context.Context, reviewID uuid.UUID) error
	HasVoted(ctx context.Context, reviewID uuid.UUID) (bool, error)
}

type voteService struct {
	db         *gorm.DB
	log        *logger.Logger
	voteRepo   repos.VoteRepo
	reviewRepo repos.ReviewRepo
}

func NewVoteService(db *gorm.DB, baseLog *logger.Logger, voteRepo repos.VoteRepo, reviewRepo repos.ReviewRepo) VoteService {
	return &voteService{
		db:         db,
		log:        baseLog.With("service", "VoteService"),
		voteRepo:   voteRepo,
		reviewRepo: reviewRepo,
	}
}

func (vs *voteService) Cast(ctx context.Context, reviewID uuid.UUID) error {
	rd, err := requireIdentity(ctx)
	if err != nil {
		return err
	}
	return runInTx(ctx, vs.db, vs.log, "VoteService.Cast", func(ctx context.Context, tx *gorm.DB) error {
		if _, err := vs.reviewRepo.GetByID(ctx, tx, reviewID); err != nil {
			return notFoundOr(err, "review not found")
		}
		vote := &types.ReviewVote{
			UserID:   rd.UserID,
			ReviewID: reviewID,
			VoteType: domainreviews.VoteTypeHelpful,
		}
		if _, err := vs.voteRepo.Create(ctx, tx, vote); err != nil {
			if isUniqueViolation(err, "ux_vote_user_review") {
				return apierr.Conflict("you already voted on this review")
			}
			if isForeignKeyViolation(err, "fk_review_vote_review_id") {
				return apierr.NotFound("review not found")
			}
			return err
		}
		return vs.reviewRepo.IncrementHelpful(ctx, tx, reviewID)
	})
}

func (vs *voteService) Retract(ctx context.Context, reviewID uuid.UUID) error {
	rd, err := requireIdentity(ctx)
	if err != nil {
		return err
	}
	return runInTx(ctx, vs.db, vs.log, "VoteService.Retract", func(ctx context.Context, tx *gorm.DB) error {
		deleted, err := vs.voteRepo.Delete(ctx, tx, rd.UserID, reviewID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return apierr.NotFound("no vote to retract")
		}
		// Decrement is floored at zero in SQL.
		return vs.reviewRepo.DecrementHelpful(ctx, tx, reviewID)
	})
}

func (vs *voteService) HasVoted(ctx context.Context, reviewID uuid.UUID) (bool, error) {
	rd, err := requireIdentity(ctx)
	if err != nil {
		return false, err
	}
	return vs.voteRepo.Exists(ctx, nil, rd.UserID, reviewID)
}
