package claims

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ClaimRequest is a professor-role user's request to own a professor profile.
// pending -> approved and pending -> rejected are the only transitions; both
// are terminal. Uniqueness (one row per (user, professor), one approved per
// professor, one approved per user, one pending per user) is enforced by
// database indexes, not application checks alone.
type ClaimRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	ProfessorID uuid.UUID `gorm:"type:uuid;not null;index;column:professor_id" json:"professor_id"`
	Status      Status    `gorm:"not null;default:'pending';column:status" json:"status"`
	Message     *string   `gorm:"column:message" json:"message,omitempty"`

	RequestedAt     time.Time  `gorm:"not null;default:now();column:requested_at" json:"requested_at"`
	ReviewedAt      *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy      *uuid.UUID `gorm:"type:uuid;column:reviewed_by" json:"reviewed_by,omitempty"`
	RejectionReason *string    `gorm:"column:rejection_reason" json:"rejection_reason,omitempty"`
}

func (ClaimRequest) TableName() string { return "claim_request" }
