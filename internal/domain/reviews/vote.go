package reviews

import (
	"time"

	"github.com/google/uuid"
)

const VoteTypeHelpful = "helpful"

// ReviewVote is one ledger row per (user, review) pair. The review's
// helpful_count is the materialized count of these rows.
type ReviewVote struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_vote_user_review;column:user_id" json:"user_id"`
	ReviewID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_vote_user_review;index;column:review_id" json:"review_id"`
	VoteType string    `gorm:"not null;default:'helpful';column:vote_type" json:"vote_type"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ReviewVote) TableName() string { return "review_vote" }
