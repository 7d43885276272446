package moderation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ActionDeleteReview = "delete_review"
	ActionDismissFlags = "dismiss_flags"
	ActionHideReview   = "hide_review"
	ActionUnhideReview = "unhide_review"
	ActionApproveClaim = "approve_claim"
	ActionRejectClaim  = "reject_claim"
)

const (
	SubjectReview = "review"
	SubjectClaim  = "claim_request"
)

// AuditLog records every moderation action, written in the same transaction
// as the action itself.
type AuditLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ActorID     uuid.UUID      `gorm:"type:uuid;not null;index;column:actor_id" json:"actor_id"`
	Action      string         `gorm:"not null;column:action" json:"action"`
	SubjectType string         `gorm:"not null;column:subject_type" json:"subject_type"`
	SubjectID   uuid.UUID      `gorm:"type:uuid;not null;index;column:subject_id" json:"subject_id"`
	Detail      datatypes.JSON `gorm:"column:detail" json:"detail,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (AuditLog) TableName() string { return "moderation_audit_log" }
