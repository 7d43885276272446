package testutil

import (
	"errors"
	"os"
	"sync"
	"testing"

	types "github.com/profpulse/profpulse-backend/internal/domain"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var errMissingDSN = errors.New("missing TEST_POSTGRES_DSN")

var (
	dbOnce sync.Once
	db     *gorm.DB
	dbErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			dbErr = errMissingDSN
			return
		}

		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			dbErr = err
			return
		}

		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
			dbErr = err
			return
		}

		if err := autoMigrateAll(db); err != nil {
			dbErr = err
			return
		}
	})

	if errors.Is(dbErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run repo integration tests")
	}
	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return db
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func autoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.User{},
		&types.Professor{},
		&types.ProfessorFollow{},
		&types.Review{},
		&types.ReviewVote{},
		&types.ReviewFlag{},
		&types.ClaimRequest{},
		&types.AuditLog{},
	); err != nil {
		return err
	}

	// The claim state machine needs the partial unique indexes too, so the
	// test database enforces the same constraints production does.
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_claim_user_professor
		   ON claim_request (user_id, professor_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_claim_professor_approved
		   ON claim_request (professor_id) WHERE status = 'approved'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_claim_user_approved
		   ON claim_request (user_id) WHERE status = 'approved'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_claim_user_pending
		   ON claim_request (user_id) WHERE status = 'pending'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_claim_professor_pending
		   ON claim_request (professor_id) WHERE status = 'pending'`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	// The foreign keys matter to tests as well: service tests clean up by
	// deleting the professor and letting the cascade remove dependents, and
	// missing-parent inserts must fail the way production fails.
	fks := []struct {
		name string
		stmt string
	}{
		{"fk_review_professor_id", `
			ALTER TABLE "review"
			ADD CONSTRAINT "fk_review_professor_id"
			FOREIGN KEY ("professor_id") REFERENCES "professor"("id")
			ON DELETE CASCADE`},
		{"fk_review_vote_review_id", `
			ALTER TABLE "review_vote"
			ADD CONSTRAINT "fk_review_vote_review_id"
			FOREIGN KEY ("review_id") REFERENCES "review"("id")
			ON DELETE CASCADE`},
		{"fk_review_flag_review_id", `
			ALTER TABLE "review_flag"
			ADD CONSTRAINT "fk_review_flag_review_id"
			FOREIGN KEY ("review_id") REFERENCES "review"("id")
			ON DELETE CASCADE`},
		{"fk_claim_request_professor_id", `
			ALTER TABLE "claim_request"
			ADD CONSTRAINT "fk_claim_request_professor_id"
			FOREIGN KEY ("professor_id") REFERENCES "professor"("id")
			ON DELETE CASCADE`},
		{"fk_professor_follow_professor_id", `
			ALTER TABLE "professor_follow"
			ADD CONSTRAINT "fk_professor_follow_professor_id"
			FOREIGN KEY ("professor_id") REFERENCES "professor"("id")
			ON DELETE CASCADE`},
	}
	for _, fk := range fks {
		var exists bool
		if err := db.Raw(
			`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)`, fk.name,
		).Scan(&exists).Error; err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := db.Exec(fk.stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
