package repos

import (
	"gorm.io/gorm"

	"github.com/profpulse/profpulse-backend/internal/data/repos/catalog"
	"github.com/profpulse/profpulse-backend/internal/data/repos/claims"
	"github.com/profpulse/profpulse-backend/internal/data/repos/identity"
	"github.com/profpulse/profpulse-backend/internal/data/repos/moderation"
	"github.com/profpulse/profpulse-backend/internal/data/repos/reviews"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

type UserRepo = identity.UserRepo

type ProfessorRepo = catalog.ProfessorRepo
type ProfessorStats = catalog.ProfessorStats
type FollowRepo = catalog.FollowRepo

type ReviewRepo = reviews.ReviewRepo
type GradeCount = reviews.GradeCount
type VoteRepo = reviews.VoteRepo
type FlagRepo = reviews.FlagRepo

type ClaimRepo = claims.ClaimRepo

type AuditRepo = moderation.AuditRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return identity.NewUserRepo(db, log) }

func NewProfessorRepo(db *gorm.DB, log *logger.Logger) ProfessorRepo {
	return catalog.NewProfessorRepo(db, log)
}
func NewFollowRepo(db *gorm.DB, log *logger.Logger) FollowRepo { return catalog.NewFollowRepo(db, log) }

func NewReviewRepo(db *gorm.DB, log *logger.Logger) ReviewRepo { return reviews.NewReviewRepo(db, log) }
func NewVoteRepo(db *gorm.DB, log *logger.Logger) VoteRepo     { return reviews.NewVoteRepo(db, log) }
func NewFlagRepo(db *gorm.DB, log *logger.Logger) FlagRepo     { return reviews.NewFlagRepo(db, log) }

func NewClaimRepo(db *gorm.DB, log *logger.Logger) ClaimRepo { return claims.NewClaimRepo(db, log) }

func NewAuditRepo(db *gorm.DB, log *logger.Logger) AuditRepo {
	return moderation.NewAuditRepo(db, log)
}
