package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fcmanager/internal/common"
	"fcmanager/internal/domain/model"
)

type ProfileRepository interface {
	// Upsert inserts or overwrites the profile in a single atomic
	// statement keyed on user_id; no read-then-write race.
	Upsert(ctx context.Context, profile *model.Profile) error
	GetWithRole(ctx context.Context, userID string) (*model.Profile, string, error)
	DeleteByUserID(ctx context.Context, tx *sql.Tx, userID string) error
}

type pgProfileRepository struct {
	db *sql.DB
}

func NewPgProfileRepository(db *sql.DB) ProfileRepository {
	return &pgProfileRepository{db: db}
}

func (r *pgProfileRepository) Upsert(ctx context.Context, p *model.Profile) error {
	// Every value is a bound parameter, department included.
	query := `INSERT INTO profiles (user_id, nickname, name, department)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (user_id) DO UPDATE SET
	              nickname = EXCLUDED.nickname,
	              name = EXCLUDED.name,
	              department = EXCLUDED.department,
	              updated_at = CURRENT_TIMESTAMP`
	_, err := r.db.ExecContext(ctx, query, p.UserID, p.Nickname, p.Name, p.Department)
	if err != nil {
		return fmt.Errorf("pgProfileRepository.Upsert: %w", err)
	}
	return nil
}

// GetWithRole returns the profile joined with the owning account's role.
func (r *pgProfileRepository) GetWithRole(ctx context.Context, userID string) (*model.Profile, string, error) {
	query := `SELECT p.user_id, p.nickname, p.name, p.department, p.created_at, p.updated_at, a.role
	          FROM profiles p
	          JOIN accounts a ON p.user_id = a.id
	          WHERE p.user_id = $1`
	profile := &model.Profile{}
	var role string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID, &profile.Nickname, &profile.Name, &profile.Department,
		&profile.CreatedAt, &profile.UpdatedAt, &role,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", common.ErrNotFound
		}
		return nil, "", fmt.Errorf("pgProfileRepository.GetWithRole: %w", err)
	}
	return profile, role, nil
}

func (r *pgProfileRepository) DeleteByUserID(ctx context.Context, tx *sql.Tx, userID string) error {
	query := `DELETE FROM profiles WHERE user_id = $1`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, userID)
	} else {
		_, err = r.db.ExecContext(ctx, query, userID)
	}
	if err != nil {
		return fmt.Errorf("pgProfileRepository.DeleteByUserID: %w", err)
	}
	return nil
}
