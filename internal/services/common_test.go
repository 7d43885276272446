package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/profpulse/profpulse-backend/internal/data/repos"
	"github.com/profpulse/profpulse-backend/internal/data/repos/testutil"
	types "github.com/profpulse/profpulse-backend/internal/domain"
	"github.com/profpulse/profpulse-backend/internal/platform/ctxutil"
)

// Service tests run against the real test database because every operation
// owns its transactions. Each env cleans up the rows it committed; deleting
// the professor cascades to reviews, votes, flags, and claims.
type testEnv struct {
	t   *testing.T
	db  *gorm.DB
	ctx context.Context

	professorRepo repos.ProfessorRepo
	followRepo    repos.FollowRepo
	reviewRepo    repos.ReviewRepo
	voteRepo      repos.VoteRepo
	flagRepo      repos.FlagRepo
	claimRepo     repos.ClaimRepo
	auditRepo     repos.AuditRepo

	stats      StatsService
	reviews    ReviewService
	votes      VoteService
	flags      FlagService
	claims     ClaimService
	moderation ModerationService
	professors ProfessorService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	env := &testEnv{
		t:             t,
		db:            db,
		ctx:           context.Background(),
		professorRepo: repos.NewProfessorRepo(db, log),
		followRepo:    repos.NewFollowRepo(db, log),
		reviewRepo:    repos.NewReviewRepo(db, log),
		voteRepo:      repos.NewVoteRepo(db, log),
		flagRepo:      repos.NewFlagRepo(db, log),
		claimRepo:     repos.NewClaimRepo(db, log),
		auditRepo:     repos.NewAuditRepo(db, log),
	}
	env.stats = NewStatsService(db, log, env.professorRepo, env.reviewRepo, env.voteRepo, env.flagRepo, nil)
	env.reviews = NewReviewService(db, log, env.reviewRepo, env.voteRepo, env.flagRepo, env.professorRepo, env.stats)
	env.votes = NewVoteService(db, log, env.voteRepo, env.reviewRepo)
	env.flags = NewFlagService(db, log, env.flagRepo, env.reviewRepo)
	env.claims = NewClaimService(db, log, env.claimRepo, env.professorRepo, env.auditRepo)
	env.moderation = NewModerationService(db, log, env.reviewRepo, env.voteRepo, env.flagRepo, env.auditRepo, env.stats)
	env.professors = NewProfessorService(db, log, env.professorRepo, env.followRepo, nil)
	return env
}

func (e *testEnv) seedUser(email string, role types.Role) *types.User {
	e.t.Helper()
	u := &types.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
	}
	if err := e.db.Create(u).Error; err != nil {
		e.t.Fatalf("seed user: %v", err)
	}
	e.t.Cleanup(func() {
		e.db.Where("actor_id = ?", u.ID).Delete(&types.AuditLog{})
		e.db.Where("user_id = ?", u.ID).Delete(&types.ProfessorFollow{})
		e.db.Delete(&types.User{}, "id = ?", u.ID)
	})
	return u
}

func (e *testEnv) seedProfessor(name string) *types.Professor {
	e.t.Helper()
	p := &types.Professor{ID: uuid.New(), Name: name, Department: "Test Department"}
	if err := e.db.Create(p).Error; err != nil {
		e.t.Fatalf("seed professor: %v", err)
	}
	e.t.Cleanup(func() {
		e.db.Delete(&types.Professor{}, "id = ?", p.ID)
	})
	return p
}

func (e *testEnv) as(u *types.User) context.Context {
	return ctxutil.WithRequestData(e.ctx, &ctxutil.RequestData{
		UserID: u.ID,
		Role:   string(u.Role),
	})
}

func (e *testEnv) professorStats(professorID uuid.UUID) repos.ProfessorStats {
	e.t.Helper()
	p, err := e.professorRepo.GetByID(e.ctx, nil, professorID)
	if err != nil {
		e.t.Fatalf("load professor: %v", err)
	}
	return repos.ProfessorStats{
		AvgQuality:    p.AvgQuality,
		AvgDifficulty: p.AvgDifficulty,
		ReviewCount:   p.ReviewCount,
	}
}

// fixedNow pins the clock services consult for semester locking.
func (e *testEnv) fixedNow(t time.Time) {
	e.t.Helper()
	rs, ok := e.reviews.(*reviewService)
	if !ok {
		e.t.Fatal("unexpected review service implementation")
	}
	rs.now = func() time.Time { return t }
}
