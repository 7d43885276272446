package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/profpulse/profpulse-backend/internal/data/repos"
	types "github.com/profpulse/profpulse-backend/internal/domain"
	domainmod "github.com/profpulse/profpulse-backend/internal/domain/moderation"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

// ModerationService holds the admin-only composite operations. Each one
// writes its audit entry in the same transaction as the action itself, so
// the trail can never show an action that did not happen or miss one that
// did.
type ModerationService interface {
	DeleteReview(ctx context.Context, reviewID uuid.UUID) error
	DismissFlags(ctx context.Context, reviewID uuid.UUID) error
	HideReview(ctx context.Context, reviewID uuid.UUID) error
	UnhideReview(ctx context.Context, reviewID uuid.UUID) error
	FlaggedReviews(ctx context.Context) ([]*types.Review, error)
	AuditTrail(ctx context.Context, subjectID uuid.UUID) ([]*types.AuditLog, error)
	RecentActions(ctx context.Context, limit int) ([]*types.AuditLog, error)
}

type moderationService struct {
	db         *gorm.DB
	log        *logger.Logger
	reviewRepo repos.ReviewRepo
	voteRepo   repos.VoteRepo
	flagRepo   repos.FlagRepo
	auditRepo  repos.AuditRepo
	stats      StatsService
}

func NewModerationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	reviewRepo repos.ReviewRepo,
	voteRepo repos.VoteRepo,
	flagRepo repos.FlagRepo,
	auditRepo repos.AuditRepo,
	stats StatsService,
) ModerationService {
	return &moderationService{
		db:         db,
		log:        baseLog.With("service", "ModerationService"),
		reviewRepo: reviewRepo,
		voteRepo:   voteRepo,
		flagRepo:   flagRepo,
		auditRepo:  auditRepo,
		stats:      stats,
	}
}

func (ms *moderationService) DeleteReview(ctx context.Context, reviewID uuid.UUID) error {
	rd, err := requireRole(ctx, types.RoleAdmin)
	if err != nil {
		return err
	}

	var professorID uuid.UUID
	err = runInTx(ctx, ms.db, ms.log, "ModerationService.DeleteReview", func(ctx context.Context, tx *gorm.DB) error {
		review, err := ms.reviewRepo.GetByID(ctx, tx, reviewID)
		if err != nil {
			return notFoundOr(err, "review not found")
		}
		professorID = review.ProfessorID

		if err := ms.voteRepo.DeleteByReview(ctx, tx, reviewID); err != nil {
			return err
		}
		if err := ms.flagRepo.DeleteByReview(ctx, tx, reviewID); err != nil {
			return err
		}
		if err := ms.reviewRepo.Delete(ctx, tx, reviewID); err != nil {
			return err
		}
		if err := ms.writeAudit(ctx, tx, rd.UserID, domainmod.ActionDeleteReview, reviewID, map[string]any{
			"professor_id": professorID,
			"author_id":    review.StudentID,
			"flag_count":   review.FlagCount,
		}); err != nil {
			return err
		}
		return ms.stats.Recompute(ctx, tx, professorID)
	})
	if err != nil {
		return err
	}
	ms.stats.InvalidateCache(ctx, professorID)
	ms.log.Info("review deleted by moderator", "review_id", reviewID, "professor_id", professorID)
	return nil
}

// DismissFlags clears the review's entire flag ledger and resets the
// materialized counter and flagged marker in one transaction.
func (ms *moderationService) DismissFlags(ctx context.Context, reviewID uuid.UUID) error {
	rd, err := requireRole(ctx, types.RoleAdmin)
	if err != nil {
		return err
	}
	return runInTx(ctx, ms.db, ms.log, "ModerationService.DismissFlags", func(ctx context.Context, tx *gorm.DB) error {
		review, err := ms.reviewRepo.GetByID(ctx, tx, reviewID)
		if err != nil {
			return notFoundOr(err, "review not found")
		}
		if err := ms.flagRepo.DeleteByReview(ctx, tx, reviewID); err != nil {
			return err
		}
		if err := ms.reviewRepo.ResetFlags(ctx, tx, reviewID); err != nil {
			return err
		}
		return ms.writeAudit(ctx, tx, rd.UserID, domainmod.ActionDismissFlags, reviewID, map[string]any{
			"dismissed_count": review.FlagCount,
		})
	})
}

// HideReview removes a review from the visible set without deleting it. The
// operation is idempotent; hiding an already-hidden review only refreshes
// the aggregate.
func (ms *moderationService) HideReview(ctx context.Context, reviewID uuid.UUID) error {
	return ms.setHidden(ctx, reviewID, true, domainmod.ActionHideReview)
}

func (ms *moderationService) UnhideReview(ctx context.Context, reviewID uuid.UUID) error {
	return ms.setHidden(ctx, reviewID, false, domainmod.ActionUnhideReview)
}

func (ms *moderationService) setHidden(ctx context.Context, reviewID uuid.UUID, hidden bool, action string) error {
	rd, err := requireRole(ctx, types.RoleAdmin)
	if err != nil {
		return err
	}

	var professorID uuid.UUID
	err = runInTx(ctx, ms.db, ms.log, "ModerationService."+action, func(ctx context.Context, tx *gorm.DB) error {
		review, err := ms.reviewRepo.GetByID(ctx, tx, reviewID)
		if err != nil {
			return notFoundOr(err, "review not found")
		}
		professorID = review.ProfessorID
		if review.Hidden == hidden {
			return nil
		}
		if err := ms.reviewRepo.SetHidden(ctx, tx, reviewID, hidden); err != nil {
			return err
		}
		if err := ms.writeAudit(ctx, tx, rd.UserID, action, reviewID, map[string]any{
			"professor_id": professorID,
		}); err != nil {
			return err
		}
		return ms.stats.Recompute(ctx, tx, professorID)
	})
	if err != nil {
		return err
	}
	ms.stats.InvalidateCache(ctx, professorID)
	return nil
}

func (ms *moderationService) FlaggedReviews(ctx context.Context) ([]*types.Review, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, err
	}
	return ms.reviewRepo.ListFlagged(ctx, nil)
}

func (ms *moderationService) AuditTrail(ctx context.Context, subjectID uuid.UUID) ([]*types.AuditLog, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, err
	}
	return ms.auditRepo.ListBySubject(ctx, nil, subjectID)
}

func (ms *moderationService) RecentActions(ctx context.Context, limit int) ([]*types.AuditLog, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, err
	}
	return ms.auditRepo.ListRecent(ctx, nil, limit)
}

func (ms *moderationService) writeAudit(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, action string, reviewID uuid.UUID, detail map[string]any) error {
	payload, err := json.Marshal(detail)
	if err != nil {
		return err
	}
	_, err = ms.auditRepo.Create(ctx, tx, &types.AuditLog{
		ActorID:     actorID,
		Action:      action,
		SubjectType: domainmod.SubjectReview,
		SubjectID:   reviewID,
		Detail:      datatypes.JSON(payload),
	})
	return err
}
