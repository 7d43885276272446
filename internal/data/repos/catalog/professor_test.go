package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/profpulse/profpulse-backend/internal/data/repos/testutil"
	types "github.com/profpulse/profpulse-backend/internal/domain"
)

func TestProfessorRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewProfessorRepo(db, testutil.Logger(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, tx, []*types.Professor{
		{Name: "Ada Lovelace", Department: "Computer Science"},
		{Name: "Grace Hopper", Department: "Computer Science"},
		{Name: "Marie Curie", Department: "Physics"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("Create: expected 3, got %d", len(created))
	}

	got, err := repo.GetByID(ctx, tx, created[0].ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Ada Lovelace" {
		t.Fatalf("GetByID: unexpected %+v", got)
	}

	batch, err := repo.GetByIDs(ctx, tx, []uuid.UUID{created[0].ID, created[2].ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("GetByIDs: expected 2, got %d", len(batch))
	}

	exists, err := repo.Exists(ctx, tx, created[1].ID)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Fatal("Exists: expected true")
	}
	exists, err = repo.Exists(ctx, tx, uuid.New())
	if err != nil {
		t.Fatalf("Exists (missing): %v", err)
	}
	if exists {
		t.Fatal("Exists (missing): expected false")
	}

	bySearch, err := repo.List(ctx, tx, "hopper", "", 0, 10)
	if err != nil {
		t.Fatalf("List (search): %v", err)
	}
	if len(bySearch) != 1 || bySearch[0].Name != "Grace Hopper" {
		t.Fatalf("List (search): unexpected %+v", bySearch)
	}

	byDept, err := repo.List(ctx, tx, "", "Physics", 0, 10)
	if err != nil {
		t.Fatalf("List (department): %v", err)
	}
	if len(byDept) != 1 || byDept[0].Name != "Marie Curie" {
		t.Fatalf("List (department): unexpected %+v", byDept)
	}

	newName := "Ada King"
	if err := repo.UpdateInfo(ctx, tx, created[0].ID, &newName, nil); err != nil {
		t.Fatalf("UpdateInfo: %v", err)
	}
	got, err = repo.GetByID(ctx, tx, created[0].ID)
	if err != nil {
		t.Fatalf("GetByID (after update): %v", err)
	}
	if got.Name != newName || got.Department != "Computer Science" {
		t.Fatalf("UpdateInfo: unexpected %+v", got)
	}

	if err := repo.UpdateStats(ctx, tx, created[0].ID, ProfessorStats{
		AvgQuality:    4.5,
		AvgDifficulty: 2.5,
		ReviewCount:   2,
	}); err != nil {
		t.Fatalf("UpdateStats: %v", err)
	}
	got, err = repo.GetByID(ctx, tx, created[0].ID)
	if err != nil {
		t.Fatalf("GetByID (after stats): %v", err)
	}
	if got.AvgQuality != 4.5 || got.AvgDifficulty != 2.5 || got.ReviewCount != 2 {
		t.Fatalf("UpdateStats: unexpected %+v", got)
	}

	owner := testutil.SeedUser(t, ctx, tx, "owner@example.com", types.RoleProfessor)
	claimedAt := time.Now().UTC()
	if err := repo.SetOwnership(ctx, tx, created[0].ID, owner.ID, claimedAt); err != nil {
		t.Fatalf("SetOwnership: %v", err)
	}
	got, err = repo.GetByID(ctx, tx, created[0].ID)
	if err != nil {
		t.Fatalf("GetByID (after ownership): %v", err)
	}
	if !got.IsClaimed || got.ClaimedByUserID == nil || *got.ClaimedByUserID != owner.ID || got.ClaimedAt == nil {
		t.Fatalf("SetOwnership: unexpected %+v", got)
	}
}
