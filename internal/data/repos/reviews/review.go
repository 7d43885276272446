package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	repocatalog "github.com/profpulse/profpulse-backend/internal/data/repos/catalog"
	types "github.com/profpulse/profpulse-backend/internal/domain"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

type GradeCount struct {
	Grade types.Grade
	Count int
}

type ReviewRepo interface {
	Create(ctx context.Context, tx *gorm.DB, review *types.Review) (*types.Review, error)
	GetByID(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) (*types.Review, error)
	VisibleByProfessor(ctx context.Context, tx *gorm.DB, professorID uuid.UUID) ([]*types.Review, error)
	IDsByProfessor(ctx context.Context, tx *gorm.DB, professorID uuid.UUID) ([]uuid.UUID, error)
	ByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.Review, error)
	ListFlagged(ctx context.Context, tx *gorm.DB) ([]*types.Review, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) error
	SetHidden(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID, hidden bool) error

	// VisibleStats aggregates the professor's visible reviews in one query.
	VisibleStats(ctx context.Context, tx *gorm.DB, professorID uuid.UUID) (repocatalog.ProfessorStats, error)
	GradeCounts(ctx context.Context, tx *gorm.DB, professorID uuid.UUID) ([]GradeCount, error)

	IncrementHelpful(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) error
	DecrementHelpful(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) error
	IncrementFlags(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) error
	ResetFlags(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) error
	SetCounters(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID, helpfulCount, flagCount int) error
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	repoLog := baseLog.With("repo", "ReviewRepo")
	return &reviewRepo{db: db, log: repoLog}
}

func (rr *reviewRepo) Create(ctx context.Context, tx *gorm.DB, review *types.Review) (*types.Review, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if err := transaction.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (rr *reviewRepo) GetByID(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) (*types.Review, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var result types.Review
	if err := transaction.WithContext(ctx).
		Where("id = ?", reviewID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (rr *reviewRepo) VisibleByProfessor(ctx context.Context, tx *gorm.DB, professorID uuid.UUID) ([]*types.Review, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.Review
	if err := transaction.WithContext(ctx).
		Where("professor_id = ? AND hidden = false", professorID).
		Order("created_at desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// IDsByProfessor includes hidden reviews; the counter rebuild path needs
// every review, not just the visible set.
func (rr *reviewRepo) IDsByProfessor(ctx context.Context, tx *gorm.DB, professorID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.Review{}).
		Where("professor_id = ?", professorID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (rr *reviewRepo) ByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.Review, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.Review
	if err := transaction.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *reviewRepo) ListFlagged(ctx context.Context, tx *gorm.DB) ([]*types.Review, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.Review
	if err := transaction.WithContext(ctx).
		Where("is_flagged = true").
		Order("flag_count desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *reviewRepo) UpdateFields(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Review{}).
		Where("id = ?", reviewID).
		Updates(updates).Error
}

func (rr *reviewRepo) Delete(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	return transaction.WithContext(ctx).
		Where("id = ?", reviewID).
		Delete(&types.Review{}).Error
}

func (rr *reviewRepo) SetHidden(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID, hidden bool) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Review{}).
		Where("id = ?", reviewID).
		Update("hidden", hidden).Error
}

func (rr *reviewRepo) VisibleStats(ctx context.Context, tx *gorm.DB, professorID uuid.UUID) (repocatalog.ProfessorStats, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var row struct {
		AvgQuality    float64
		AvgDifficulty float64
		ReviewCount   int
	}
	if err := transaction.WithContext(ctx).
		Model(&types.Review{}).
		Select(`COALESCE(AVG(rating_quality), 0)    AS avg_quality,
			COALESCE(AVG(rating_difficulty), 0) AS avg_difficulty,
			COUNT(*)                            AS review_count`).
		Where("professor_id = ? AND hidden = false", professorID).
		Scan(&row).Error; err != nil {
		return repocatalog.ProfessorStats{}, err
	}
	return repocatalog.ProfessorStats{
		AvgQuality:    row.AvgQuality,
		AvgDifficulty: row.AvgDifficulty,
		ReviewCount:   row.ReviewCount,
	}, nil
}

func (rr *reviewRepo) GradeCounts(ctx context.Context, tx *gorm.DB, professorID uuid.UUID) ([]GradeCount, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var rows []struct {
		Grade types.Grade
		Count int
	}
	if err := transaction.WithContext(ctx).
		Model(&types.Review{}).
		Select("grade, COUNT(*) AS count").
		Where("professor_id = ? AND hidden = false", professorID).
		Group("grade").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]GradeCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, GradeCount{Grade: r.Grade, Count: r.Count})
	}
	return out, nil
}

func (rr *reviewRepo) IncrementHelpful(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Review{}).
		Where("id = ?", reviewID).
		Update("helpful_count", gorm.Expr("helpful_count + 1")).Error
}

// DecrementHelpful floors at zero in SQL so a lost-update race can never
// drive the counter negative.
func (rr *reviewRepo) DecrementHelpful(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Review{}).
		Where("id = ? AND helpful_count > 0", reviewID).
		Update("helpful_count", gorm.Expr("helpful_count - 1")).Error
}

func (rr *reviewRepo) IncrementFlags(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Review{}).
		Where("id = ?", reviewID).
		Updates(map[string]any{
			"flag_count": gorm.Expr("flag_count + 1"),
			"is_flagged": true,
		}).Error
}

func (rr *reviewRepo) ResetFlags(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Review{}).
		Where("id = ?", reviewID).
		Updates(map[string]any{
			"flag_count": 0,
			"is_flagged": false,
		}).Error
}

func (rr *reviewRepo) SetCounters(ctx context.Context, tx *gorm.DB, reviewID uuid.UUID, helpfulCount, flagCount int) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Review{}).
		Where("id = ?", reviewID).
		Updates(map[string]any{
			"helpful_count": helpfulCount,
			"flag_count":    flagCount,
			"is_flagged":    flagCount > 0,
		}).Error
}
