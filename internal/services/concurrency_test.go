package services

import (
	"fmt"
	"sync"
	"testing"

	types "github.com/profpulse/profpulse-backend/internal/domain"
	"github.com/profpulse/profpulse-backend/internal/platform/apierr"
)

// The stored aggregate must reflect a complete snapshot of visible reviews
// after interleaved writers commit, not a snapshot missing a concurrent
// insert. Four authors review the same professor at once; the committed
// stats row must equal the ledger-derived values.
func TestConcurrentReviewCreates(t *testing.T) {
	env := newTestEnv(t)
	prof := env.seedProfessor("Dr. Contended")

	qualities := []int{1, 2, 4, 5}
	authors := make([]*types.User, len(qualities))
	for i := range authors {
		authors[i] = env.seedUser(fmt.Sprintf("concurrent-author-%d@example.com", i), types.RoleStudent)
	}

	errs := make([]error, len(authors))
	var wg sync.WaitGroup
	for i, author := range authors {
		wg.Add(1)
		go func(i int, author *types.User) {
			defer wg.Done()
			_, errs[i] = env.reviews.Create(env.as(author), CreateReviewInput{
				ProfessorID:      prof.ID,
				RatingQuality:    qualities[i],
				RatingDifficulty: 3,
				Grade:            "A",
				Semester:         "Fall 2030",
			})
		}(i, author)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	visible, err := env.reviews.ForProfessor(env.ctx, prof.ID)
	if err != nil {
		t.Fatalf("list reviews: %v", err)
	}
	if len(visible) != len(authors) {
		t.Fatalf("expected %d committed reviews, got %d", len(authors), len(visible))
	}

	stats := env.professorStats(prof.ID)
	if stats.ReviewCount != len(authors) {
		t.Fatalf("review_count = %d, want %d", stats.ReviewCount, len(authors))
	}
	if stats.AvgQuality != 3.0 {
		t.Fatalf("avg_quality = %v, want 3.0", stats.AvgQuality)
	}
	if stats.AvgDifficulty != 3.0 {
		t.Fatalf("avg_difficulty = %v, want 3.0", stats.AvgDifficulty)
	}
}

// The helpful counter must equal the number of vote rows after concurrent
// casts, and again after concurrent retractions.
func TestConcurrentVoteTraffic(t *testing.T) {
	env := newTestEnv(t)
	prof := env.seedProfessor("Dr. Voted On")
	author := env.seedUser("concurrent-vote-author@example.com", types.RoleStudent)

	review, err := env.reviews.Create(env.as(author), CreateReviewInput{
		ProfessorID:      prof.ID,
		RatingQuality:    4,
		RatingDifficulty: 2,
		Grade:            "B",
		Semester:         "Spring 2030",
	})
	if err != nil {
		t.Fatalf("create review: %v", err)
	}

	voters := make([]*types.User, 4)
	for i := range voters {
		voters[i] = env.seedUser(fmt.Sprintf("concurrent-voter-%d@example.com", i), types.RoleStudent)
	}

	errs := make([]error, len(voters))
	var wg sync.WaitGroup
	for i, voter := range voters {
		wg.Add(1)
		go func(i int, voter *types.User) {
			defer wg.Done()
			errs[i] = env.votes.Cast(env.as(voter), review.ID)
		}(i, voter)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("cast %d: %v", i, err)
		}
	}

	got, err := env.reviewRepo.GetByID(env.ctx, nil, review.ID)
	if err != nil {
		t.Fatalf("load review: %v", err)
	}
	rows, err := env.voteRepo.CountByReview(env.ctx, nil, review.ID)
	if err != nil {
		t.Fatalf("count votes: %v", err)
	}
	if int64(got.HelpfulCount) != rows || got.HelpfulCount != len(voters) {
		t.Fatalf("helpful_count = %d, vote rows = %d, want both %d", got.HelpfulCount, rows, len(voters))
	}

	for i, voter := range voters {
		wg.Add(1)
		go func(i int, voter *types.User) {
			defer wg.Done()
			errs[i] = env.votes.Retract(env.as(voter), review.ID)
		}(i, voter)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("retract %d: %v", i, err)
		}
	}

	got, err = env.reviewRepo.GetByID(env.ctx, nil, review.ID)
	if err != nil {
		t.Fatalf("reload review: %v", err)
	}
	rows, err = env.voteRepo.CountByReview(env.ctx, nil, review.ID)
	if err != nil {
		t.Fatalf("recount votes: %v", err)
	}
	if got.HelpfulCount != 0 || rows != 0 {
		t.Fatalf("after retractions helpful_count = %d, vote rows = %d, want both 0", got.HelpfulCount, rows)
	}
}

// Two professors racing to claim the same unclaimed profile: exactly one
// pending request may exist afterwards, the loser gets a conflict.
func TestContestedClaimSubmissions(t *testing.T) {
	env := newTestEnv(t)
	prof := env.seedProfessor("Dr. Contested Claim")
	first := env.seedUser("contested-claimant-1@example.com", types.RoleProfessor)
	second := env.seedUser("contested-claimant-2@example.com", types.RoleProfessor)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, claimant := range []*types.User{first, second} {
		wg.Add(1)
		go func(i int, claimant *types.User) {
			defer wg.Done()
			_, errs[i] = env.claims.Submit(env.as(claimant), prof.ID, nil)
		}(i, claimant)
	}
	wg.Wait()

	var succeeded, conflicted int
	for i, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apierr.IsKind(err, apierr.KindConflict):
			conflicted++
		default:
			t.Fatalf("submit %d: unexpected error %v", i, err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Fatalf("got %d successes and %d conflicts, want exactly one of each", succeeded, conflicted)
	}

	pending, err := env.claimRepo.ListPending(env.ctx, nil)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	var forProfessor int
	for _, c := range pending {
		if c.ProfessorID == prof.ID {
			forProfessor++
		}
	}
	if forProfessor != 1 {
		t.Fatalf("found %d pending claims for the professor, want 1", forProfessor)
	}
}
