package catalog

import (
	"time"

	"github.com/google/uuid"
)

type ProfessorFollow struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_follow_user_professor;column:user_id" json:"user_id"`
	ProfessorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_follow_user_professor;index;column:professor_id" json:"professor_id"`

	FollowedAt time.Time `gorm:"not null;default:now();column:followed_at" json:"followed_at"`
}

func (ProfessorFollow) TableName() string { return "professor_follow" }
