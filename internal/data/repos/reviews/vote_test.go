package reviews

import (
	"context"
	"testing"

	"github.com/profpulse/profpulse-backend/internal/data/repos/testutil"
	types "github.com/profpulse/profpulse-backend/internal/domain"
	domainreviews "github.com/profpulse/profpulse-backend/internal/domain/reviews"
	"gorm.io/gorm"
)

func TestVoteRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewVoteRepo(db, testutil.Logger(t))
	ctx := context.Background()

	professor := testutil.SeedProfessor(t, ctx, tx, "Dr. Vote")
	author := testutil.SeedUser(t, ctx, tx, "vote-author@example.com", types.RoleStudent)
	voter := testutil.SeedUser(t, ctx, tx, "voter@example.com", types.RoleStudent)
	review := testutil.SeedReview(t, ctx, tx, professor.ID, author.ID, "Fall 2024")

	if _, err := repo.Create(ctx, tx, &types.ReviewVote{
		UserID:   voter.ID,
		ReviewID: review.ID,
		VoteType: domainreviews.VoteTypeHelpful,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A second vote from the same user hits the unique index. The insert
	// runs in a savepoint so the violation does not poison the outer tx.
	dupErr := tx.Transaction(func(inner *gorm.DB) error {
		_, err := repo.Create(ctx, inner, &types.ReviewVote{
			UserID:   voter.ID,
			ReviewID: review.ID,
			VoteType: domainreviews.VoteTypeHelpful,
		})
		return err
	})
	if dupErr == nil {
		t.Fatal("Create (duplicate): expected unique violation")
	}

	exists, err := repo.Exists(ctx, tx, voter.ID, review.ID)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Fatal("Exists: expected true")
	}

	count, err := repo.CountByReview(ctx, tx, review.ID)
	if err != nil {
		t.Fatalf("CountByReview: %v", err)
	}
	if count != 1 {
		t.Fatalf("CountByReview = %d, want 1", count)
	}

	deleted, err := repo.Delete(ctx, tx, voter.ID, review.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("Delete: expected 1 row, got %d", deleted)
	}

	deleted, err = repo.Delete(ctx, tx, voter.ID, review.ID)
	if err != nil {
		t.Fatalf("Delete (again): %v", err)
	}
	if deleted != 0 {
		t.Fatalf("Delete (again): expected 0 rows, got %d", deleted)
	}
}
