package database

import (
	"context"
	"database/sql"
	"time"

	"fcmanager/internal/platform/config"
	"fcmanager/internal/platform/logging"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"go.uber.org/zap"
)

var DB *sql.DB

func Connect() {
	var err error
	DB, err = sql.Open("pgx", config.AppConfig.DBConnStr)
	if err != nil {
		logging.L.Fatal("Error opening database", zap.Error(err))
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err = DB.Ping(); err != nil {
		logging.L.Fatal("Error connecting to database", zap.Error(err))
	}

	logging.L.Info("Connected to PostgreSQL database")
}

func Close() {
	if DB != nil {
		DB.Close()
		logging.L.Info("Database connection closed")
	}
}

// InitSchema creates the three tables and the supporting task indexes if
// they do not exist yet. Status and role columns are constrained to their
// enumerated values at the schema level.
func InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			hashed_password TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			role TEXT NOT NULL DEFAULT 'user',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			approved_at TIMESTAMPTZ,
			approved_by TEXT REFERENCES accounts(id),
			reject_reason TEXT,
			CONSTRAINT valid_account_status CHECK (status IN ('pending', 'approved', 'rejected')),
			CONSTRAINT valid_account_role CHECK (role IN ('user', 'admin'))
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY REFERENCES accounts(id),
			nickname TEXT,
			name TEXT,
			department TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			applicant_id TEXT NOT NULL REFERENCES accounts(id),
			reviewer_id TEXT REFERENCES accounts(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			approved_at TIMESTAMPTZ,
			name TEXT NOT NULL,
			description TEXT,
			category TEXT,
			site_url TEXT,
			schedule TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			fc_task_id TEXT,
			CONSTRAINT valid_task_status CHECK (status IN ('pending', 'approved', 'rejected'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_applicant ON tasks(applicant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_reviewer ON tasks(reviewer_id)`,
	}

	for _, stmt := range statements {
		if _, err := DB.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	logging.L.Info("Database schema initialized")
	return nil
}
