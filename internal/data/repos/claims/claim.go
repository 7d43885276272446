package claims

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/profpulse/profpulse-backend/internal/domain"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

type ClaimRepo interface {
	Create(ctx context.Context, tx *gorm.DB, claim *types.ClaimRequest) (*types.ClaimRequest, error)
	GetByID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (*types.ClaimRequest, error)
	Delete(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) error

	// ByUserAndStatus returns at most one row for pending/approved (the
	// partial unique indexes guarantee that); for rejected it returns the
	// most recently reviewed one.
	ByUserAndStatus(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status types.ClaimStatus) (*types.ClaimRequest, error)
	ByProfessorAndStatus(ctx context.Context, tx *gorm.DB, professorID uuid.UUID, status types.ClaimStatus) (*types.ClaimRequest, error)
	ListPending(ctx context.Context, tx *gorm.DB) ([]*types.ClaimRequest, error)

	MarkReviewed(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, status types.ClaimStatus, reviewedBy uuid.UUID, reviewedAt time.Time, rejectionReason *string) error
}

type claimRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClaimRepo(db *gorm.DB, baseLog *logger.Logger) ClaimRepo {
	repoLog := baseLog.With("repo", "ClaimRepo")
	return &claimRepo{db: db, log: repoLog}
}

func (cr *claimRepo) Create(ctx context.Context, tx *gorm.DB, claim *types.ClaimRequest) (*types.ClaimRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if err := transaction.WithContext(ctx).Create(claim).Error; err != nil {
		return nil, err
	}
	return claim, nil
}

func (cr *claimRepo) GetByID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (*types.ClaimRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.ClaimRequest
	if err := transaction.WithContext(ctx).
		Where("id = ?", claimID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *claimRepo) Delete(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	return transaction.WithContext(ctx).
		Where("id = ?", claimID).
		Delete(&types.ClaimRequest{}).Error
}

func (cr *claimRepo) ByUserAndStatus(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status types.ClaimStatus) (*types.ClaimRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	q := transaction.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, status)
	if status == types.ClaimRejected {
		q = q.Order("reviewed_at desc")
	}

	var result types.ClaimRequest
	if err := q.First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (cr *claimRepo) ByProfessorAndStatus(ctx context.Context, tx *gorm.DB, professorID uuid.UUID, status types.ClaimStatus) (*types.ClaimRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.ClaimRequest
	if err := transaction.WithContext(ctx).
		Where("professor_id = ? AND status = ?", professorID, status).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (cr *claimRepo) ListPending(ctx context.Context, tx *gorm.DB) ([]*types.ClaimRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.ClaimRequest
	if err := transaction.WithContext(ctx).
		Where("status = ?", types.ClaimPending).
		Order("requested_at desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// MarkReviewed transitions a pending claim to approved or rejected. The
// status guard in the WHERE clause makes the transition race-safe: a second
// concurrent reviewer matches zero rows.
func (cr *claimRepo) MarkReviewed(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, status types.ClaimStatus, reviewedBy uuid.UUID, reviewedAt time.Time, rejectionReason *string) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	updates := map[string]any{
		"status":      status,
		"reviewed_at": reviewedAt,
		"reviewed_by": reviewedBy,
	}
	if rejectionReason != nil {
		updates["rejection_reason"] = *rejectionReason
	}
	res := transaction.WithContext(ctx).
		Model(&types.ClaimRequest{}).
		Where("id = ? AND status = ?", claimID, types.ClaimPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
