package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/profpulse/profpulse-backend/internal/contentfilter"
	"github.com/profpulse/profpulse-backend/internal/data/repos"
	types "github.com/profpulse/profpulse-backend/internal/domain"
	domainreviews "github.com/profpulse/profpulse-backend/internal/domain/reviews"
	"github.com/profpulse/profpulse-backend/internal/platform/apierr"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

type CreateReviewInput struct {
	ProfessorID      uuid.UUID
	RatingQuality    int
	RatingDifficulty int
	Grade            types.Grade
	Comment          *string
	CourseCode       *string
	Semester         string
}

// UpdateReviewInput carries only the fields being changed; nil means leave
// the stored value alone.
type UpdateReviewInput struct {
	RatingQuality    *int
	RatingDifficulty *int
	Grade            *types.Grade
	Comment          *string
	CourseCode       *string
}

type GradeBucket struct {
	Grade types.Grade `json:"grade"`
	Count int         `json:"count"`
}

// ReviewService owns the review lifecycle. Every mutation that changes the
// visible-review set recomputes the professor's aggregate inside the same
// transaction, then invalidates the stats cache after commit.
type ReviewService interface {
	Create(ctx context.Context, input CreateReviewInput) (*types.Review, error)
	Update(ctx context.Context, reviewID uuid.UUID, input UpdateReviewInput) (*types.Review, error)
	Delete(ctx context.Context, reviewID uuid.UUID) error
	Get(ctx context.Context, reviewID uuid.UUID) (*types.Review, error)
	ForProfessor(ctx context.Context, professorID uuid.UUID) ([]*types.Review, error)
	Mine(ctx context.Context) ([]*types.Review, error)
	GradeDistribution(ctx context.Context, professorID uuid.UUID) ([]GradeBucket, error)
}

type reviewService struct {
	db            *gorm.DB
	log           *logger.Logger
	reviewRepo    repos.ReviewRepo
	voteRepo      repos.VoteRepo
	flagRepo      repos.FlagRepo
	professorRepo repos.ProfessorRepo
	stats         StatsService
	now           func() time.Time
}

func NewReviewService(
	db *gorm.DB,
	baseLog *logger.Logger,
	reviewRepo repos.ReviewRepo,
	voteRepo repos.VoteRepo,
	flagRepo repos.FlagRepo,
	professorRepo repos.ProfessorRepo,
	stats StatsService,
) ReviewService {
	return &reviewService{
		db:            db,
		log:           baseLog.With("service", "ReviewService"),
		reviewRepo:    reviewRepo,
		voteRepo:      voteRepo,
		flagRepo:      flagRepo,
		professorRepo: professorRepo,
		stats:         stats,
		now:           time.Now,
	}
}

func validRating(r int) bool {
	return r >= domainreviews.RatingMin && r <= domainreviews.RatingMax
}

// screenComment rejects any comment the content filter finds offensive,
// regardless of tier. The filter runs before anything is persisted.
func screenComment(comment *string) error {
	if comment == nil {
		return nil
	}
	if offensive, severity := contentfilter.Evaluate(*comment); offensive {
		return apierr.ContentRejected(fmt.Sprintf("comment contains %s profanity", severity))
	}
	return nil
}

func (rs *reviewService) Create(ctx context.Context, input CreateReviewInput) (*types.Review, error) {
	rd, err := requireRole(ctx, types.RoleStudent)
	if err != nil {
		return nil, err
	}
	if !validRating(input.RatingQuality) || !validRating(input.RatingDifficulty) {
		return nil, apierr.Invalid("ratings must be between 1 and 5")
	}
	if !domainreviews.ValidGrade(input.Grade) {
		return nil, apierr.Invalid("unrecognized grade " + string(input.Grade))
	}
	semester, err := domainreviews.ParseSemester(input.Semester)
	if err != nil {
		return nil, apierr.Invalid(err.Error())
	}
	if err := screenComment(input.Comment); err != nil {
		return nil, err
	}

	var created *types.Review
	err = runInTx(ctx, rs.db, rs.log, "ReviewService.Create", func(ctx context.Context, tx *gorm.DB) error {
		exists, err := rs.professorRepo.Exists(ctx, tx, input.ProfessorID)
		if err != nil {
			return err
		}
		if !exists {
			return apierr.NotFound("professor not found")
		}
		review := &types.Review{
			ProfessorID:      input.ProfessorID,
			StudentID:        rd.UserID,
			RatingQuality:    input.RatingQuality,
			RatingDifficulty: input.RatingDifficulty,
			Grade:            input.Grade,
			Comment:          input.Comment,
			CourseCode:       input.CourseCode,
			Semester:         semester.String(),
		}
		created, err = rs.reviewRepo.Create(ctx, tx, review)
		if err != nil {
			if isUniqueViolation(err, "ux_review_prof_student_semester") {
				return apierr.Conflict("you already reviewed this professor for this semester")
			}
			if isForeignKeyViolation(err, "fk_review_professor_id") {
				return apierr.NotFound("professor not found")
			}
			return err
		}
		return rs.stats.Recompute(ctx, tx, input.ProfessorID)
	})
	if err != nil {
		return nil, err
	}
	rs.stats.InvalidateCache(ctx, input.ProfessorID)
	rs.log.Info("review created", "review_id", created.ID, "professor_id", created.ProfessorID)
	return created, nil
}

func (rs *reviewService) Update(ctx context.Context, reviewID uuid.UUID, input UpdateReviewInput) (*types.Review, error) {
	rd, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if input.RatingQuality != nil && !validRating(*input.RatingQuality) {
		return nil, apierr.Invalid("ratings must be between 1 and 5")
	}
	if input.RatingDifficulty != nil && !validRating(*input.RatingDifficulty) {
		return nil, apierr.Invalid("ratings must be between 1 and 5")
	}
	if input.Grade != nil && !domainreviews.ValidGrade(*input.Grade) {
		return nil, apierr.Invalid("unrecognized grade " + string(*input.Grade))
	}
	if err := screenComment(input.Comment); err != nil {
		return nil, err
	}

	var updated *types.Review
	err = runInTx(ctx, rs.db, rs.log, "ReviewService.Update", func(ctx context.Context, tx *gorm.DB) error {
		review, err := rs.reviewRepo.GetByID(ctx, tx, reviewID)
		if err != nil {
			return notFoundOr(err, "review not found")
		}
		isAdmin := types.Role(rd.Role) == types.RoleAdmin
		if review.StudentID != rd.UserID && !isAdmin {
			return apierr.Forbidden("only the author may edit this review")
		}
		if !isAdmin && domainreviews.SemesterLocked(review.Semester, rs.now()) {
			return apierr.LockedState("the semester for this review has closed")
		}

		updates := map[string]any{}
		ratingsChanged := false
		if input.RatingQuality != nil {
			updates["rating_quality"] = *input.RatingQuality
			ratingsChanged = ratingsChanged || *input.RatingQuality != review.RatingQuality
		}
		if input.RatingDifficulty != nil {
			updates["rating_difficulty"] = *input.RatingDifficulty
			ratingsChanged = ratingsChanged || *input.RatingDifficulty != review.RatingDifficulty
		}
		if input.Grade != nil {
			updates["grade"] = string(*input.Grade)
		}
		if input.Comment != nil {
			updates["comment"] = *input.Comment
		}
		if input.CourseCode != nil {
			updates["course_code"] = *input.CourseCode
		}
		if len(updates) == 0 {
			updated = review
			return nil
		}
		updates["updated_at"] = rs.now()
		if err := rs.reviewRepo.UpdateFields(ctx, tx, reviewID, updates); err != nil {
			return err
		}
		if ratingsChanged && !review.Hidden {
			if err := rs.stats.Recompute(ctx, tx, review.ProfessorID); err != nil {
				return err
			}
		}
		updated, err = rs.reviewRepo.GetByID(ctx, tx, reviewID)
		return err
	})
	if err != nil {
		return nil, err
	}
	rs.stats.InvalidateCache(ctx, updated.ProfessorID)
	return updated, nil
}

// Delete removes a review along with its vote and flag ledger rows, then
// recomputes the professor's aggregate. Authors are bound by the semester
// lock; admins are not.
func (rs *reviewService) Delete(ctx context.Context, reviewID uuid.UUID) error {
	rd, err := requireIdentity(ctx)
	if err != nil {
		return err
	}

	var professorID uuid.UUID
	err = runInTx(ctx, rs.db, rs.log, "ReviewService.Delete", func(ctx context.Context, tx *gorm.DB) error {
		review, err := rs.reviewRepo.GetByID(ctx, tx, reviewID)
		if err != nil {
			return notFoundOr(err, "review not found")
		}
		isAdmin := types.Role(rd.Role) == types.RoleAdmin
		if review.StudentID != rd.UserID && !isAdmin {
			return apierr.Forbidden("only the author may delete this review")
		}
		if !isAdmin && domainreviews.SemesterLocked(review.Semester, rs.now()) {
			return apierr.LockedState("the semester for this review has closed")
		}
		professorID = review.ProfessorID

		if err := rs.voteRepo.DeleteByReview(ctx, tx, reviewID); err != nil {
			return err
		}
		if err := rs.flagRepo.DeleteByReview(ctx, tx, reviewID); err != nil {
			return err
		}
		if err := rs.reviewRepo.Delete(ctx, tx, reviewID); err != nil {
			return err
		}
		return rs.stats.Recompute(ctx, tx, professorID)
	})
	if err != nil {
		return err
	}
	rs.stats.InvalidateCache(ctx, professorID)
	rs.log.Info("review deleted", "review_id", reviewID, "professor_id", professorID)
	return nil
}

// Get returns a review. Hidden reviews are visible only to their author and
// to admins; everyone else sees NotFound.
func (rs *reviewService) Get(ctx context.Context, reviewID uuid.UUID) (*types.Review, error) {
	rd, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	review, err := rs.reviewRepo.GetByID(ctx, nil, reviewID)
	if err != nil {
		return nil, notFoundOr(err, "review not found")
	}
	if review.Hidden && review.StudentID != rd.UserID && types.Role(rd.Role) != types.RoleAdmin {
		return nil, apierr.NotFound("review not found")
	}
	return review, nil
}

func (rs *reviewService) ForProfessor(ctx context.Context, professorID uuid.UUID) ([]*types.Review, error) {
	exists, err := rs.professorRepo.Exists(ctx, nil, professorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apierr.NotFound("professor not found")
	}
	return rs.reviewRepo.VisibleByProfessor(ctx, nil, professorID)
}

func (rs *reviewService) Mine(ctx context.Context) ([]*types.Review, error) {
	rd, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	return rs.reviewRepo.ByStudent(ctx, nil, rd.UserID)
}

// GradeDistribution returns one bucket per known grade in display order,
// counting visible reviews only. Grades with no reviews appear with a zero
// count.
func (rs *reviewService) GradeDistribution(ctx context.Context, professorID uuid.UUID) ([]GradeBucket, error) {
	exists, err := rs.professorRepo.Exists(ctx, nil, professorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apierr.NotFound("professor not found")
	}
	counts, err := rs.reviewRepo.GradeCounts(ctx, nil, professorID)
	if err != nil {
		return nil, err
	}
	byGrade := make(map[types.Grade]int, len(counts))
	for _, c := range counts {
		byGrade[c.Grade] = c.Count
	}
	buckets := make([]GradeBucket, 0, len(domainreviews.GradeOrder))
	for _, g := range domainreviews.GradeOrder {
		buckets = append(buckets, GradeBucket{Grade: g, Count: byGrade[g]})
	}
	return buckets, nil
}
