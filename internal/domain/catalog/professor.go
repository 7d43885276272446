package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Professor carries denormalized aggregate stats. The stats columns are owned
// by the recomputation path: they always equal the aggregate over the
// professor's currently visible reviews, or zero values when none exist.
type Professor struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name       string    `gorm:"not null;index;column:name" json:"name"`
	Department string    `gorm:"not null;column:department" json:"department"`

	AvgQuality    float64 `gorm:"not null;default:0;column:avg_quality" json:"avg_quality"`
	AvgDifficulty float64 `gorm:"not null;default:0;column:avg_difficulty" json:"avg_difficulty"`
	ReviewCount   int     `gorm:"not null;default:0;column:review_count" json:"review_count"`

	// Ownership fields are written only by claim approval, never by profile edits.
	IsClaimed       bool       `gorm:"not null;default:false;column:is_claimed" json:"is_claimed"`
	ClaimedByUserID *uuid.UUID `gorm:"type:uuid;column:claimed_by_user_id" json:"claimed_by_user_id,omitempty"`
	ClaimedAt       *time.Time `gorm:"column:claimed_at" json:"claimed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Professor) TableName() string { return "professor" }
