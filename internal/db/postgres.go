package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	types "github.com/profpulse/profpulse-backend/internal/domain"
	"github.com/profpulse/profpulse-backend/internal/platform/envutil"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := envutil.Str("POSTGRES_HOST", "localhost")
	postgresPort := envutil.Str("POSTGRES_PORT", "5432")
	postgresUser := envutil.Str("POSTGRES_USER", "postgres")
	postgresPassword := envutil.Str("POSTGRES_PASSWORD", "")
	postgresName := envutil.Str("POSTGRES_NAME", "profpulse")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.Professor{},
		&types.ProfessorFollow{},
		&types.Review{},
		&types.ReviewVote{},
		&types.ReviewFlag{},
		&types.ClaimRequest{},
		&types.AuditLog{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	if err := s.applyConstraints(); err != nil {
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	return s.applyForeignKeys()
}

// applyConstraints creates the partial unique indexes the claim state machine
// relies on. AutoMigrate handles the plain composite unique indexes from the
// model tags; partial indexes need raw SQL.
func (s *PostgresService) applyConstraints() error {
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
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create claim index: %w", err)
		}
	}
	return nil
}

func (s *PostgresService) applyForeignKeys() error {
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
		if err := s.db.Raw(
			`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)`, fk.name,
		).Scan(&exists).Error; err != nil {
			return fmt.Errorf("failed to check constraint %s: %w", fk.name, err)
		}
		if exists {
			continue
		}
		if err := s.db.Exec(fk.stmt).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", fk.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
