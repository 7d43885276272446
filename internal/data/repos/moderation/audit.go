package moderation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/profpulse/profpulse-backend/internal/domain"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

type AuditRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *types.AuditLog) (*types.AuditLog, error)
	ListBySubject(ctx context.Context, tx *gorm.DB, subjectID uuid.UUID) ([]*types.AuditLog, error)
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.AuditLog, error)
}

type auditRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditRepo(db *gorm.DB, baseLog *logger.Logger) AuditRepo {
	repoLog := baseLog.With("repo", "AuditRepo")
	return &auditRepo{db: db, log: repoLog}
}

func (ar *auditRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.AuditLog) (*types.AuditLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (ar *auditRepo) ListBySubject(ctx context.Context, tx *gorm.DB, subjectID uuid.UUID) ([]*types.AuditLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.AuditLog
	if err := transaction.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *auditRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.AuditLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if limit <= 0 {
		limit = 50
	}
	var results []*types.AuditLog
	if err := transaction.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
