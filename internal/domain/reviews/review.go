package reviews

import (
	"time"

	"github.com/google/uuid"
)

type Grade string

const (
	GradeA      Grade = "A"
	GradeAMinus Grade = "A-"
	GradeBPlus  Grade = "B+"
	GradeB      Grade = "B"
	GradeBMinus Grade = "B-"
	GradeCPlus  Grade = "C+"
	GradeC      Grade = "C"
	GradeCMinus Grade = "C-"
	GradeD      Grade = "D"
	GradeF      Grade = "F"
	GradeW      Grade = "W" // withdrawn
)

// GradeOrder is the display order for grade distributions, best to worst.
var GradeOrder = []Grade{
	GradeA, GradeAMinus, GradeBPlus, GradeB, GradeBMinus,
	GradeCPlus, GradeC, GradeCMinus, GradeD, GradeF, GradeW,
}

func ValidGrade(g Grade) bool {
	for _, k := range GradeOrder {
		if g == k {
			return true
		}
	}
	return false
}

const (
	RatingMin = 1
	RatingMax = 5
)

// Review is one student's rating of a professor for one semester. At most one
// review exists per (professor, student, semester); the same student may
// review the same professor again only under a different semester label.
type Review struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProfessorID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_review_prof_student_semester;column:professor_id" json:"professor_id"`
	StudentID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_review_prof_student_semester;column:student_id" json:"student_id"`

	RatingQuality    int     `gorm:"not null;column:rating_quality" json:"rating_quality"`
	RatingDifficulty int     `gorm:"not null;column:rating_difficulty" json:"rating_difficulty"`
	Grade            Grade   `gorm:"not null;column:grade" json:"grade"`
	Comment          *string `gorm:"column:comment" json:"comment,omitempty"`
	CourseCode       *string `gorm:"column:course_code" json:"course_code,omitempty"`
	Semester         string  `gorm:"not null;uniqueIndex:ux_review_prof_student_semester;column:semester" json:"semester"`

	// Hidden reviews are excluded from aggregation. Only moderation toggles it.
	Hidden bool `gorm:"not null;default:false;column:hidden" json:"hidden"`

	IsFlagged    bool `gorm:"not null;default:false;column:is_flagged" json:"is_flagged"`
	FlagCount    int  `gorm:"not null;default:0;column:flag_count" json:"flag_count"`
	HelpfulCount int  `gorm:"not null;default:0;column:helpful_count" json:"helpful_count"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Review) TableName() string { return "review" }
