package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/profpulse/profpulse-backend/internal/domain"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string, role types.Role) *types.User {
	tb.Helper()
	u := &types.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedProfessor(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Professor {
	tb.Helper()
	p := &types.Professor{
		ID:         uuid.New(),
		Name:       name,
		Department: "Computer Science",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed professor: %v", err)
	}
	return p
}

func SeedReview(tb testing.TB, ctx context.Context, tx *gorm.DB, professorID, studentID uuid.UUID, semester string) *types.Review {
	tb.Helper()
	r := &types.Review{
		ID:               uuid.New(),
		ProfessorID:      professorID,
		StudentID:        studentID,
		RatingQuality:    4,
		RatingDifficulty: 3,
		Grade:            "A",
		Semester:         semester,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed review: %v", err)
	}
	return r
}

func SeedClaim(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, professorID uuid.UUID, status types.ClaimStatus) *types.ClaimRequest {
	tb.Helper()
	c := &types.ClaimRequest{
		ID:          uuid.New(),
		UserID:      userID,
		ProfessorID: professorID,
		Status:      status,
		RequestedAt: time.Now().UTC(),
	}
	if status != types.ClaimPending {
		now := time.Now().UTC()
		reviewer := uuid.New()
		c.ReviewedAt = &now
		c.ReviewedBy = &reviewer
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed claim: %v", err)
	}
	return c
}
