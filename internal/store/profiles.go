package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/luckyrocket0125/studycare-be/internal/model"
)

const profileColumns = `id, email, full_name, role, language, simplified_mode, created_at, updated_at`

func scanProfile(row pgx.Row) (model.Profile, error) {
	var p model.Profile
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.FullName,
		&p.Role,
		&p.Language,
		&p.SimplifiedMode,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (s *Store) GetProfileByID(ctx context.Context, userID string) (model.Profile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id = $1
	`, userID)
	return scanProfile(row)
}

// GetProfileByEmail matches case-insensitively; emails are stored as entered
// at registration but compared lowercased.
func (s *Store) GetProfileByEmail(ctx context.Context, email string) (model.Profile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE lower(email) = lower($1)
	`, email)
	return scanProfile(row)
}

func (s *Store) InsertProfile(ctx context.Context, p model.Profile) (model.Profile, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO profiles (id, email, full_name, role, language, simplified_mode, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING `+profileColumns+`
	`, p.ID, p.Email, p.FullName, p.Role, p.Language, p.SimplifiedMode)
	return scanProfile(row)
}

// CreateProfilePrivileged calls the create_user_profile database function,
// which inserts on behalf of another identity past row-level restrictions.
func (s *Store) CreateProfilePrivileged(ctx context.Context, p model.Profile) (model.Profile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM create_user_profile($1, $2, $3, $4)
	`, p.ID, p.Email, p.FullName, p.Role)
	return scanProfile(row)
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, fullName, language *string, simplified *bool) (model.Profile, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE profiles
		SET full_name = COALESCE($2, full_name),
		    language = COALESCE($3, language),
		    simplified_mode = COALESCE($4, simplified_mode),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+profileColumns+`
	`, userID, fullName, language, simplified)
	return scanProfile(row)
}
