// Package services implements the review integrity and aggregation engine:
// review lifecycle, vote and flag ledgers, claim workflow, moderation
// actions, and professor aggregate recomputation. Services own transaction
// boundaries; every multi-row contract commits or rolls back as one unit.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	types "github.com/profpulse/profpulse-backend/internal/domain"
	"github.com/profpulse/profpulse-backend/internal/platform/apierr"
	"github.com/profpulse/profpulse-backend/internal/platform/ctxutil"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

var tracer = otel.Tracer("github.com/profpulse/profpulse-backend/internal/services")

// Transient serialization and deadlock failures are retried this many times
// before the operation fails for the caller. Serializable isolation makes
// these failures an expected cost of contended recomputes, so the budget is
// sized for several writers hitting the same professor at once.
const txMaxRetries = 5

var serializableTx = sql.TxOptions{Isolation: sql.LevelSerializable}

func requireIdentity(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return nil, apierr.Forbidden("not authenticated")
	}
	return rd, nil
}

// requireRole is the single capability check every operation entry point
// runs, parameterized by the roles the operation demands.
func requireRole(ctx context.Context, roles ...types.Role) (*ctxutil.RequestData, error) {
	rd, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	for _, role := range roles {
		if types.Role(rd.Role) == role {
			return rd, nil
		}
	}
	return nil, apierr.Forbidden("operation not permitted for role " + rd.Role)
}

// runInTx executes fn inside a serializable transaction, retrying bounded
// times on serialization/deadlock failures. Read-then-write contracts (vote
// casting, claim approval, aggregate recomputation) rely on this isolation
// level: a concurrent writer that would invalidate a read aborts one of the
// transactions with SQLSTATE 40001 instead of letting both commit. Typed
// apierr failures pass through untouched so the transaction rolls back and
// the caller sees the verdict.
func runInTx(ctx context.Context, db *gorm.DB, log *logger.Logger, op string, fn func(ctx context.Context, tx *gorm.DB) error) error {
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= txMaxRetries; attempt++ {
		lastErr = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(ctx, tx)
		}, &serializableTx)
		if lastErr == nil || !isRetryableTxError(lastErr) {
			return lastErr
		}
		log.Warn("retrying transaction after transient failure",
			"op", op, "attempt", attempt, "error", lastErr)
		time.Sleep(time.Duration(attempt) * 20 * time.Millisecond)
	}
	return apierr.Internal("transaction retries exhausted", lastErr)
}

// isUniqueViolation reports whether err is a Postgres unique violation,
// optionally scoped to one constraint name. Store-enforced uniqueness turns
// the check-then-insert race into this error, which services surface as
// Conflict.
func isUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			if strings.TrimSpace(constraint) == "" {
				return true
			}
			return strings.EqualFold(strings.TrimSpace(pgErr.ConstraintName), strings.TrimSpace(constraint))
		}
	}

	// Fallback: string match (covers wrapped errors that lose type info).
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "sqlstate 23505") {
		if strings.TrimSpace(constraint) == "" {
			return true
		}
		return strings.Contains(msg, strings.ToLower(strings.TrimSpace(constraint)))
	}
	return false
}

// isForeignKeyViolation reports whether err is a Postgres foreign key
// violation, optionally scoped to one constraint name. A referenced row
// deleted between an existence check and the insert surfaces here instead of
// as a stale read.
func isForeignKeyViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23503" {
			if strings.TrimSpace(constraint) == "" {
				return true
			}
			return strings.EqualFold(strings.TrimSpace(pgErr.ConstraintName), strings.TrimSpace(constraint))
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "sqlstate 23503") {
		if strings.TrimSpace(constraint) == "" {
			return true
		}
		return strings.Contains(msg, strings.ToLower(strings.TrimSpace(constraint)))
	}
	return false
}

func isRetryableTxError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sqlstate 40001") || strings.Contains(msg, "sqlstate 40p01")
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierr.NotFound(msg)
	}
	return err
}
