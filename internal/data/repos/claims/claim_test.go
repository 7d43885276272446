package claims

import (
	"context"
	"testing"
	"time"

	"github.com/profpulse/profpulse-backend/internal/data/repos/testutil"
	types "github.com/profpulse/profpulse-backend/internal/domain"
	"gorm.io/gorm"
)

func TestClaimRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewClaimRepo(db, testutil.Logger(t))
	ctx := context.Background()

	requester := testutil.SeedUser(t, ctx, tx, "claimer@example.com", types.RoleProfessor)
	admin := testutil.SeedUser(t, ctx, tx, "claim-admin@example.com", types.RoleAdmin)
	professor := testutil.SeedProfessor(t, ctx, tx, "Dr. Claim")

	message := "I teach this course"
	created, err := repo.Create(ctx, tx, &types.ClaimRequest{
		UserID:      requester.ID,
		ProfessorID: professor.ID,
		Status:      types.ClaimPending,
		Message:     &message,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	pending, err := repo.ByUserAndStatus(ctx, tx, requester.ID, types.ClaimPending)
	if err != nil {
		t.Fatalf("ByUserAndStatus: %v", err)
	}
	if pending == nil || pending.ID != created.ID {
		t.Fatalf("ByUserAndStatus: unexpected %+v", pending)
	}

	approved, err := repo.ByUserAndStatus(ctx, tx, requester.ID, types.ClaimApproved)
	if err != nil {
		t.Fatalf("ByUserAndStatus (approved): %v", err)
	}
	if approved != nil {
		t.Fatalf("ByUserAndStatus (approved): expected nil, got %+v", approved)
	}

	byProfessor, err := repo.ByProfessorAndStatus(ctx, tx, professor.ID, types.ClaimPending)
	if err != nil {
		t.Fatalf("ByProfessorAndStatus: %v", err)
	}
	if byProfessor == nil || byProfessor.ID != created.ID {
		t.Fatalf("ByProfessorAndStatus: unexpected %+v", byProfessor)
	}

	list, err := repo.ListPending(ctx, tx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListPending: expected 1, got %d", len(list))
	}

	if err := repo.MarkReviewed(ctx, tx, created.ID, types.ClaimApproved, admin.ID, time.Now().UTC(), nil); err != nil {
		t.Fatalf("MarkReviewed: %v", err)
	}
	got, err := repo.GetByID(ctx, tx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.ClaimApproved || got.ReviewedAt == nil || got.ReviewedBy == nil || *got.ReviewedBy != admin.ID {
		t.Fatalf("MarkReviewed: unexpected %+v", got)
	}

	// The transition guard only moves pending rows; reviewing twice fails.
	if err := repo.MarkReviewed(ctx, tx, created.ID, types.ClaimRejected, admin.ID, time.Now().UTC(), nil); err == nil {
		t.Fatal("MarkReviewed (already reviewed): expected error")
	}
}

func TestClaimRepoPartialUniqueIndexes(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewClaimRepo(db, testutil.Logger(t))
	ctx := context.Background()

	requester := testutil.SeedUser(t, ctx, tx, "claim-unique@example.com", types.RoleProfessor)
	profA := testutil.SeedProfessor(t, ctx, tx, "Dr. Unique A")
	profB := testutil.SeedProfessor(t, ctx, tx, "Dr. Unique B")

	testutil.SeedClaim(t, ctx, tx, requester.ID, profA.ID, types.ClaimPending)

	// One pending claim per requester, system wide.
	err := tx.Transaction(func(inner *gorm.DB) error {
		_, err := repo.Create(ctx, inner, &types.ClaimRequest{
			UserID:      requester.ID,
			ProfessorID: profB.ID,
			Status:      types.ClaimPending,
			RequestedAt: time.Now().UTC(),
		})
		return err
	})
	if err == nil {
		t.Fatal("expected ux_claim_user_pending violation")
	}

	// One row per (requester, professor) pair regardless of status.
	err = tx.Transaction(func(inner *gorm.DB) error {
		_, err := repo.Create(ctx, inner, &types.ClaimRequest{
			UserID:      requester.ID,
			ProfessorID: profA.ID,
			Status:      types.ClaimRejected,
			RequestedAt: time.Now().UTC(),
		})
		return err
	})
	if err == nil {
		t.Fatal("expected ux_claim_user_professor violation")
	}

	// One approved claim per professor.
	other := testutil.SeedUser(t, ctx, tx, "claim-unique-2@example.com", types.RoleProfessor)
	third := testutil.SeedUser(t, ctx, tx, "claim-unique-3@example.com", types.RoleProfessor)
	testutil.SeedClaim(t, ctx, tx, other.ID, profB.ID, types.ClaimApproved)
	err = tx.Transaction(func(inner *gorm.DB) error {
		_, err := repo.Create(ctx, inner, &types.ClaimRequest{
			UserID:      third.ID,
			ProfessorID: profB.ID,
			Status:      types.ClaimApproved,
			RequestedAt: time.Now().UTC(),
		})
		return err
	})
	if err == nil {
		t.Fatal("expected ux_claim_professor_approved violation")
	}

	// One pending claim per professor: a contested profile rejects the
	// second requester at the store even if the application checks raced.
	err = tx.Transaction(func(inner *gorm.DB) error {
		_, err := repo.Create(ctx, inner, &types.ClaimRequest{
			UserID:      third.ID,
			ProfessorID: profA.ID,
			Status:      types.ClaimPending,
			RequestedAt: time.Now().UTC(),
		})
		return err
	})
	if err == nil {
		t.Fatal("expected ux_claim_professor_pending violation")
	}
}
