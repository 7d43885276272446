package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/profpulse/profpulse-backend/internal/data/repos"
	types "github.com/profpulse/profpulse-backend/internal/domain"
	domainmod "github.com/profpulse/profpulse-backend/internal/domain/moderation"
	"github.com/profpulse/profpulse-backend/internal/platform/apierr"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

// ClaimService runs the profile-ownership state machine. A claim request is
// pending until an admin approves or rejects it; both outcomes are terminal.
// Approval flips the professor's ownership fields in the same transaction
// that transitions the request.
type ClaimService interface {
	Submit(ctx context.Context, professorID uuid.UUID, message *string) (*types.ClaimRequest, error)
	Approve(ctx context.Context, claimID uuid.UUID) (*types.ClaimRequest, error)
	Reject(ctx context.Context, claimID uuid.UUID, reason *string) (*types.ClaimRequest, error)
	Cancel(ctx context.Context, claimID uuid.UUID) error
	Status(ctx context.Context) (*types.ClaimRequest, error)
	ClaimedProfile(ctx context.Context) (*types.Professor, error)
	ListPending(ctx context.Context) ([]*types.ClaimRequest, error)
}

type claimService struct {
	db            *gorm.DB
	log           *logger.Logger
	claimRepo     repos.ClaimRepo
	professorRepo repos.ProfessorRepo
	auditRepo     repos.AuditRepo
	now           func() time.Time
}

func NewClaimService(
	db *gorm.DB,
	baseLog *logger.Logger,
	claimRepo repos.ClaimRepo,
	professorRepo repos.ProfessorRepo,
	auditRepo repos.AuditRepo,
) ClaimService {
	return &claimService{
		db:            db,
		log:           baseLog.With("service", "ClaimService"),
		claimRepo:     claimRepo,
		professorRepo: professorRepo,
		auditRepo:     auditRepo,
		now:           time.Now,
	}
}

// Submit checks the claim preconditions inside the transaction and relies on
// the partial unique indexes to close the check-then-insert race: a
// concurrent submission that slips past the reads still fails on insert and
// is mapped to the same Conflict the read path would have produced.
func (cs *claimService) Submit(ctx context.Context, professorID uuid.UUID, message *string) (*types.ClaimRequest, error) {
	rd, err := requireRole(ctx, types.RoleProfessor)
	if err != nil {
		return nil, err
	}

	var created *types.ClaimRequest
	err = runInTx(ctx, cs.db, cs.log, "ClaimService.Submit", func(ctx context.Context, tx *gorm.DB) error {
		professor, err := cs.professorRepo.GetByID(ctx, tx, professorID)
		if err != nil {
			return notFoundOr(err, "professor not found")
		}
		if professor.IsClaimed {
			return apierr.Conflict("this profile is already claimed")
		}
		approvedForProfessor, err := cs.claimRepo.ByProfessorAndStatus(ctx, tx, professorID, types.ClaimApproved)
		if err != nil {
			return err
		}
		if approvedForProfessor != nil {
			return apierr.Conflict("this profile is already claimed")
		}
		approvedByUser, err := cs.claimRepo.ByUserAndStatus(ctx, tx, rd.UserID, types.ClaimApproved)
		if err != nil {
			return err
		}
		if approvedByUser != nil {
			return apierr.Conflict("you already own a claimed profile")
		}
		pendingByUser, err := cs.claimRepo.ByUserAndStatus(ctx, tx, rd.UserID, types.ClaimPending)
		if err != nil {
			return err
		}
		if pendingByUser != nil {
			return apierr.Conflict("you already have a pending claim")
		}
		// First come first served: a pending claim from someone else blocks
		// new submissions for the same professor.
		pendingForProfessor, err := cs.claimRepo.ByProfessorAndStatus(ctx, tx, professorID, types.ClaimPending)
		if err != nil {
			return err
		}
		if pendingForProfessor != nil {
			return apierr.Conflict("another claim for this profile is already under review")
		}

		claim := &types.ClaimRequest{
			UserID:      rd.UserID,
			ProfessorID: professorID,
			Status:      types.ClaimPending,
			Message:     message,
			RequestedAt: cs.now(),
		}
		created, err = cs.claimRepo.Create(ctx, tx, claim)
		if err != nil {
			switch {
			case isUniqueViolation(err, "ux_claim_user_pending"):
				return apierr.Conflict("you already have a pending claim")
			case isUniqueViolation(err, "ux_claim_professor_pending"):
				return apierr.Conflict("another claim for this profile is already under review")
			case isUniqueViolation(err, "ux_claim_user_professor"):
				return apierr.Conflict("you already submitted a claim for this profile")
			case isUniqueViolation(err, ""):
				return apierr.Conflict("claim conflicts with an existing request")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cs.log.Info("claim submitted", "claim_id", created.ID, "professor_id", professorID)
	return created, nil
}

func (cs *claimService) Approve(ctx context.Context, claimID uuid.UUID) (*types.ClaimRequest, error) {
	rd, err := requireRole(ctx, types.RoleAdmin)
	if err != nil {
		return nil, err
	}

	var approved *types.ClaimRequest
	err = runInTx(ctx, cs.db, cs.log, "ClaimService.Approve", func(ctx context.Context, tx *gorm.DB) error {
		claim, err := cs.claimRepo.GetByID(ctx, tx, claimID)
		if err != nil {
			return notFoundOr(err, "claim request not found")
		}
		if claim.Status != types.ClaimPending {
			return apierr.Conflict("claim request is not pending")
		}
		existing, err := cs.claimRepo.ByProfessorAndStatus(ctx, tx, claim.ProfessorID, types.ClaimApproved)
		if err != nil {
			return err
		}
		if existing != nil {
			return apierr.Conflict("this profile already has an approved claim")
		}

		reviewedAt := cs.now()
		// MarkReviewed only transitions rows still pending, so a racing
		// approval of the same claim loses cleanly.
		if err := cs.claimRepo.MarkReviewed(ctx, tx, claimID, types.ClaimApproved, rd.UserID, reviewedAt, nil); err != nil {
			switch {
			case isUniqueViolation(err, "ux_claim_professor_approved"):
				return apierr.Conflict("this profile already has an approved claim")
			case isUniqueViolation(err, "ux_claim_user_approved"):
				return apierr.Conflict("the requester already owns a claimed profile")
			}
			return notFoundOr(err, "claim request is not pending")
		}
		if err := cs.professorRepo.SetOwnership(ctx, tx, claim.ProfessorID, claim.UserID, reviewedAt); err != nil {
			return err
		}
		if err := cs.writeAudit(ctx, tx, rd.UserID, domainmod.ActionApproveClaim, claimID, map[string]any{
			"professor_id": claim.ProfessorID,
			"requester_id": claim.UserID,
		}); err != nil {
			return err
		}
		approved, err = cs.claimRepo.GetByID(ctx, tx, claimID)
		return err
	})
	if err != nil {
		return nil, err
	}
	cs.log.Info("claim approved", "claim_id", claimID, "professor_id", approved.ProfessorID)
	return approved, nil
}

func (cs *claimService) Reject(ctx context.Context, claimID uuid.UUID, reason *string) (*types.ClaimRequest, error) {
	rd, err := requireRole(ctx, types.RoleAdmin)
	if err != nil {
		return nil, err
	}

	var rejected *types.ClaimRequest
	err = runInTx(ctx, cs.db, cs.log, "ClaimService.Reject", func(ctx context.Context, tx *gorm.DB) error {
		claim, err := cs.claimRepo.GetByID(ctx, tx, claimID)
		if err != nil {
			return notFoundOr(err, "claim request not found")
		}
		if claim.Status != types.ClaimPending {
			return apierr.Conflict("claim request is not pending")
		}
		if err := cs.claimRepo.MarkReviewed(ctx, tx, claimID, types.ClaimRejected, rd.UserID, cs.now(), reason); err != nil {
			return notFoundOr(err, "claim request is not pending")
		}
		if err := cs.writeAudit(ctx, tx, rd.UserID, domainmod.ActionRejectClaim, claimID, map[string]any{
			"professor_id": claim.ProfessorID,
			"requester_id": claim.UserID,
		}); err != nil {
			return err
		}
		rejected, err = cs.claimRepo.GetByID(ctx, tx, claimID)
		return err
	})
	if err != nil {
		return nil, err
	}
	cs.log.Info("claim rejected", "claim_id", claimID)
	return rejected, nil
}

// Cancel deletes the caller's own pending claim. Reviewed claims are part of
// the audit trail and cannot be withdrawn.
func (cs *claimService) Cancel(ctx context.Context, claimID uuid.UUID) error {
	rd, err := requireIdentity(ctx)
	if err != nil {
		return err
	}
	return runInTx(ctx, cs.db, cs.log, "ClaimService.Cancel", func(ctx context.Context, tx *gorm.DB) error {
		claim, err := cs.claimRepo.GetByID(ctx, tx, claimID)
		if err != nil {
			return notFoundOr(err, "claim request not found")
		}
		if claim.UserID != rd.UserID {
			return apierr.Forbidden("only the requester may cancel this claim")
		}
		if claim.Status != types.ClaimPending {
			return apierr.Conflict("only pending claims can be cancelled")
		}
		return cs.claimRepo.Delete(ctx, tx, claimID)
	})
}

// Status surfaces at most one of the caller's claims, in priority order:
// pending, then approved, then the most recently reviewed rejection.
func (cs *claimService) Status(ctx context.Context) (*types.ClaimRequest, error) {
	rd, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	for _, status := range []types.ClaimStatus{types.ClaimPending, types.ClaimApproved, types.ClaimRejected} {
		claim, err := cs.claimRepo.ByUserAndStatus(ctx, nil, rd.UserID, status)
		if err != nil {
			return nil, err
		}
		if claim != nil {
			return claim, nil
		}
	}
	return nil, nil
}

func (cs *claimService) ClaimedProfile(ctx context.Context) (*types.Professor, error) {
	rd, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	claim, err := cs.claimRepo.ByUserAndStatus(ctx, nil, rd.UserID, types.ClaimApproved)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, apierr.NotFound("you have not claimed a profile")
	}
	professor, err := cs.professorRepo.GetByID(ctx, nil, claim.ProfessorID)
	if err != nil {
		return nil, notFoundOr(err, "professor not found")
	}
	return professor, nil
}

func (cs *claimService) ListPending(ctx context.Context) ([]*types.ClaimRequest, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, err
	}
	return cs.claimRepo.ListPending(ctx, nil)
}

func (cs *claimService) writeAudit(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, action string, claimID uuid.UUID, detail map[string]any) error {
	payload, err := json.Marshal(detail)
	if err != nil {
		return err
	}
	_, err = cs.auditRepo.Create(ctx, tx, &types.AuditLog{
		ActorID:     actorID,
		Action:      action,
		SubjectType: domainmod.SubjectClaim,
		SubjectID:   claimID,
		Detail:      datatypes.JSON(payload),
	})
	return err
}
