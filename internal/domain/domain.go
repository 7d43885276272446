package domain

import (
	"github.com/profpulse/profpulse-backend/internal/domain/catalog"
	"github.com/profpulse/profpulse-backend/internal/domain/claims"
	"github.com/profpulse/profpulse-backend/internal/domain/identity"
	"github.com/profpulse/profpulse-backend/internal/domain/moderation"
	"github.com/profpulse/profpulse-backend/internal/domain/reviews"
)

type User = identity.User
type Role = identity.Role

const (
	RoleStudent   = identity.RoleStudent
	RoleProfessor = identity.RoleProfessor
	RoleAdmin     = identity.RoleAdmin
)

var RoleValid = identity.ValidRole

type Professor = catalog.Professor
type ProfessorFollow = catalog.ProfessorFollow

type Review = reviews.Review
type ReviewVote = reviews.ReviewVote
type ReviewFlag = reviews.ReviewFlag
type Grade = reviews.Grade
type Semester = reviews.Semester

type ClaimRequest = claims.ClaimRequest
type ClaimStatus = claims.Status

const (
	ClaimPending  = claims.StatusPending
	ClaimApproved = claims.StatusApproved
	ClaimRejected = claims.StatusRejected
)

type AuditLog = moderation.AuditLog
