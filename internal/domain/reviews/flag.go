package reviews

import (
	"time"

	"github.com/google/uuid"
)

// ReviewFlag is one ledger row per (user, review) pair. The review's
// flag_count is the materialized count of these rows; is_flagged is true
// whenever at least one row exists.
type ReviewFlag struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_flag_user_review;column:user_id" json:"user_id"`
	ReviewID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_flag_user_review;index;column:review_id" json:"review_id"`
	Reason   *string   `gorm:"column:reason" json:"reason,omitempty"`

	FlaggedAt time.Time `gorm:"not null;default:now();column:flagged_at" json:"flagged_at"`
}

func (ReviewFlag) TableName() string { return "review_flag" }
