package reviews

import (
	"context"
	"testing"

	"github.com/profpulse/profpulse-backend/internal/data/repos/testutil"
	types "github.com/profpulse/profpulse-backend/internal/domain"
	"gorm.io/gorm"
)

func TestFlagRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewFlagRepo(db, testutil.Logger(t))
	ctx := context.Background()

	professor := testutil.SeedProfessor(t, ctx, tx, "Dr. Flag")
	author := testutil.SeedUser(t, ctx, tx, "flag-author@example.com", types.RoleStudent)
	flaggerA := testutil.SeedUser(t, ctx, tx, "flagger-a@example.com", types.RoleStudent)
	flaggerB := testutil.SeedUser(t, ctx, tx, "flagger-b@example.com", types.RoleStudent)
	review := testutil.SeedReview(t, ctx, tx, professor.ID, author.ID, "Fall 2024")

	reason := "spam"
	if _, err := repo.Create(ctx, tx, &types.ReviewFlag{
		UserID:   flaggerA.ID,
		ReviewID: review.ID,
		Reason:   &reason,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Create(ctx, tx, &types.ReviewFlag{
		UserID:   flaggerB.ID,
		ReviewID: review.ID,
	}); err != nil {
		t.Fatalf("Create (second flagger): %v", err)
	}

	dupErr := tx.Transaction(func(inner *gorm.DB) error {
		_, err := repo.Create(ctx, inner, &types.ReviewFlag{
			UserID:   flaggerA.ID,
			ReviewID: review.ID,
		})
		return err
	})
	if dupErr == nil {
		t.Fatal("Create (duplicate): expected unique violation")
	}

	exists, err := repo.Exists(ctx, tx, flaggerA.ID, review.ID)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Fatal("Exists: expected true")
	}

	flags, err := repo.ListByReview(ctx, tx, review.ID)
	if err != nil {
		t.Fatalf("ListByReview: %v", err)
	}
	if len(flags) != 2 {
		t.Fatalf("ListByReview: expected 2, got %d", len(flags))
	}
	var sawReason bool
	for _, f := range flags {
		if f.Reason != nil && *f.Reason == reason {
			sawReason = true
		}
	}
	if !sawReason {
		t.Fatalf("ListByReview: reason not persisted: %+v", flags)
	}

	count, err := repo.CountByReview(ctx, tx, review.ID)
	if err != nil {
		t.Fatalf("CountByReview: %v", err)
	}
	if count != 2 {
		t.Fatalf("CountByReview = %d, want 2", count)
	}

	if err := repo.DeleteByReview(ctx, tx, review.ID); err != nil {
		t.Fatalf("DeleteByReview: %v", err)
	}
	count, err = repo.CountByReview(ctx, tx, review.ID)
	if err != nil {
		t.Fatalf("CountByReview (after delete): %v", err)
	}
	if count != 0 {
		t.Fatalf("CountByReview after delete = %d, want 0", count)
	}
}
