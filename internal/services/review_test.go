package services

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/profpulse/profpulse-backend/internal/domain"
	"github.com/profpulse/profpulse-backend/internal/platform/apierr"
)

func TestReviewLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.fixedNow(time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC))

	professor := env.seedProfessor("Dr. Lifecycle")
	alice := env.seedUser("alice-svc@example.com", types.RoleStudent)
	bob := env.seedUser("bob-svc@example.com", types.RoleStudent)

	created, err := env.reviews.Create(env.as(alice), CreateReviewInput{
		ProfessorID:      professor.ID,
		RatingQuality:    4,
		RatingDifficulty: 3,
		Grade:            "A",
		Semester:         "Fall 2024",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	stats := env.professorStats(professor.ID)
	if stats.ReviewCount != 1 || math.Abs(stats.AvgQuality-4.0) > 1e-9 {
		t.Fatalf("stats after create: %+v", stats)
	}

	// Same professor, same semester: the uniqueness invariant rejects it.
	_, err = env.reviews.Create(env.as(alice), CreateReviewInput{
		ProfessorID:      professor.ID,
		RatingQuality:    5,
		RatingDifficulty: 1,
		Grade:            "A",
		Semester:         "Fall 2024",
	})
	if !apierr.IsKind(err, apierr.KindConflict) {
		t.Fatalf("duplicate semester: expected Conflict, got %v", err)
	}

	// A different semester is a fresh review.
	second, err := env.reviews.Create(env.as(alice), CreateReviewInput{
		ProfessorID:      professor.ID,
		RatingQuality:    2,
		RatingDifficulty: 5,
		Grade:            "B-",
		Semester:         "Spring 2025",
	})
	if err != nil {
		t.Fatalf("Create (different semester): %v", err)
	}

	stats = env.professorStats(professor.ID)
	if stats.ReviewCount != 2 || math.Abs(stats.AvgQuality-3.0) > 1e-9 || math.Abs(stats.AvgDifficulty-4.0) > 1e-9 {
		t.Fatalf("stats after second create: %+v", stats)
	}

	if _, err := env.reviews.Create(env.as(bob), CreateReviewInput{
		ProfessorID:      professor.ID,
		RatingQuality:    3,
		RatingDifficulty: 3,
		Grade:            "C+",
		Semester:         "Fall 2024",
	}); err != nil {
		t.Fatalf("Create (other student, same semester): %v", err)
	}

	mine, err := env.reviews.Mine(env.as(alice))
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("Mine: expected 2, got %d", len(mine))
	}

	// Fall 2024 closed in December 2024, so the author cannot delete it.
	if err := env.reviews.Delete(env.as(alice), created.ID); !apierr.IsKind(err, apierr.KindLockedState) {
		t.Fatalf("delete locked review: expected LockedState, got %v", err)
	}

	// Spring 2025 is also closed by mid June; Summer or Fall 2025 stay open.
	if _, err := env.reviews.Update(env.as(alice), second.ID, UpdateReviewInput{
		RatingQuality: intPtr(5),
	}); !apierr.IsKind(err, apierr.KindLockedState) {
		t.Fatalf("update locked review: expected LockedState, got %v", err)
	}

	open, err := env.reviews.Create(env.as(alice), CreateReviewInput{
		ProfessorID:      professor.ID,
		RatingQuality:    1,
		RatingDifficulty: 1,
		Grade:            "W",
		Semester:         "Fall 2025",
	})
	if err != nil {
		t.Fatalf("Create (open semester): %v", err)
	}
	updated, err := env.reviews.Update(env.as(alice), open.ID, UpdateReviewInput{
		RatingQuality: intPtr(3),
	})
	if err != nil {
		t.Fatalf("Update (open semester): %v", err)
	}
	if updated.RatingQuality != 3 {
		t.Fatalf("Update: rating not applied: %+v", updated)
	}
	if err := env.reviews.Delete(env.as(alice), open.ID); err != nil {
		t.Fatalf("Delete (open semester): %v", err)
	}

	stats = env.professorStats(professor.ID)
	if stats.ReviewCount != 3 {
		t.Fatalf("stats after delete: %+v", stats)
	}
}

func TestReviewCreateValidation(t *testing.T) {
	env := newTestEnv(t)

	professor := env.seedProfessor("Dr. Validation")
	student := env.seedUser("validation@example.com", types.RoleStudent)
	prof := env.seedUser("prof-validation@example.com", types.RoleProfessor)

	base := CreateReviewInput{
		ProfessorID:      professor.ID,
		RatingQuality:    4,
		RatingDifficulty: 3,
		Grade:            "A",
		Semester:         "Fall 2024",
	}

	// Only students write reviews.
	if _, err := env.reviews.Create(env.as(prof), base); !apierr.IsKind(err, apierr.KindForbidden) {
		t.Fatalf("professor author: expected Forbidden, got %v", err)
	}

	bad := base
	bad.RatingQuality = 6
	if _, err := env.reviews.Create(env.as(student), bad); !apierr.IsKind(err, apierr.KindInvalid) {
		t.Fatalf("rating out of range: expected Invalid, got %v", err)
	}

	bad = base
	bad.Grade = "Z"
	if _, err := env.reviews.Create(env.as(student), bad); !apierr.IsKind(err, apierr.KindInvalid) {
		t.Fatalf("bad grade: expected Invalid, got %v", err)
	}

	bad = base
	bad.Semester = "sometime 2024"
	if _, err := env.reviews.Create(env.as(student), bad); !apierr.IsKind(err, apierr.KindInvalid) {
		t.Fatalf("bad semester: expected Invalid, got %v", err)
	}

	bad = base
	comment := "You are a kamina professor"
	bad.Comment = &comment
	if _, err := env.reviews.Create(env.as(student), bad); !apierr.IsKind(err, apierr.KindContentRejected) {
		t.Fatalf("profane comment: expected ContentRejected, got %v", err)
	}

	// Nothing was persisted by any of the rejected submissions.
	stats := env.professorStats(professor.ID)
	if stats.ReviewCount != 0 {
		t.Fatalf("rejected submissions leaked state: %+v", stats)
	}
}

func TestGradeDistribution(t *testing.T) {
	env := newTestEnv(t)

	professor := env.seedProfessor("Dr. Grades")
	a := env.seedUser("grades-a@example.com", types.RoleStudent)
	b := env.seedUser("grades-b@example.com", types.RoleStudent)
	c := env.seedUser("grades-c@example.com", types.RoleStudent)

	for _, seed := range []struct {
		user     *types.User
		grade    types.Grade
		semester string
	}{
		{a, "A", "Fall 2024"},
		{b, "A", "Fall 2024"},
		{c, "B+", "Fall 2024"},
	} {
		if _, err := env.reviews.Create(env.as(seed.user), CreateReviewInput{
			ProfessorID:      professor.ID,
			RatingQuality:    4,
			RatingDifficulty: 3,
			Grade:            seed.grade,
			Semester:         seed.semester,
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	buckets, err := env.reviews.GradeDistribution(env.as(a), professor.ID)
	if err != nil {
		t.Fatalf("GradeDistribution: %v", err)
	}
	if len(buckets) != 11 {
		t.Fatalf("expected one bucket per grade, got %d", len(buckets))
	}
	if buckets[0].Grade != "A" || buckets[0].Count != 2 {
		t.Fatalf("bucket A: %+v", buckets[0])
	}
	if buckets[2].Grade != "B+" || buckets[2].Count != 1 {
		t.Fatalf("bucket B+: %+v", buckets[2])
	}
	if buckets[9].Grade != "F" || buckets[9].Count != 0 {
		t.Fatalf("bucket F: %+v", buckets[9])
	}
}

// A professor deleted between the existence check and the insert surfaces as
// a foreign key violation; the service maps that to NotFound rather than
// leaking a raw storage error.
func TestReviewInsertAfterProfessorDeleted(t *testing.T) {
	env := newTestEnv(t)
	author := env.seedUser("vanished-prof-author@example.com", types.RoleStudent)

	_, err := env.reviewRepo.Create(env.ctx, nil, &types.Review{
		ProfessorID:      uuid.New(),
		StudentID:        author.ID,
		RatingQuality:    4,
		RatingDifficulty: 3,
		Grade:            "A",
		Semester:         "Fall 2030",
	})
	if err == nil {
		t.Fatal("expected foreign key violation for missing professor")
	}
	if !isForeignKeyViolation(err, "fk_review_professor_id") {
		t.Fatalf("violation not recognized: %v", err)
	}
	if isUniqueViolation(err, "") {
		t.Fatalf("misclassified as unique violation: %v", err)
	}
}

func intPtr(v int) *int { return &v }
