package store

import (
	"context"

	"github.com/luckyrocket0125/studycare-be/internal/model"
)

func (s *Store) CaregiverLinkExists(ctx context.Context, caregiverID, childID string) (bool, error) {
	return exists(ctx, s.pool, `
		SELECT 1 FROM caregiver_children
		WHERE caregiver_id = $1 AND child_id = $2
	`, caregiverID, childID)
}

func (s *Store) InsertCaregiverLink(ctx context.Context, caregiverID, childID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO caregiver_children (caregiver_id, child_id, created_at)
		VALUES ($1, $2, now())
	`, caregiverID, childID)
	return err
}

// LinkCaregiverChildPrivileged performs the same insert through the
// link_caregiver_child database function. Used as the fallback when the
// direct insert is rejected by row-level restrictions.
func (s *Store) LinkCaregiverChildPrivileged(ctx context.Context, caregiverID, childID string) error {
	_, err := s.pool.Exec(ctx, `SELECT link_caregiver_child($1, $2)`, caregiverID, childID)
	return err
}

func (s *Store) DeleteCaregiverLink(ctx context.Context, caregiverID, childID string) error {
	// Deleting zero rows is not distinguished from deleting one.
	_, err := s.pool.Exec(ctx, `
		DELETE FROM caregiver_children
		WHERE caregiver_id = $1 AND child_id = $2
	`, caregiverID, childID)
	return err
}

func (s *Store) ListLinkedChildren(ctx context.Context, caregiverID string) ([]model.Profile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.email, p.full_name, p.role, p.language, p.simplified_mode, p.created_at, p.updated_at
		FROM caregiver_children cc
		JOIN profiles p ON p.id = cc.child_id
		WHERE cc.caregiver_id = $1
		ORDER BY cc.created_at
	`, caregiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []model.Profile
	for rows.Next() {
		child, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, rows.Err()
}

func (s *Store) CountClassesForStudent(ctx context.Context, studentID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM class_students WHERE student_id = $1
	`, studentID).Scan(&count)
	return count, err
}

func (s *Store) CountNotesForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notes WHERE user_id = $1
	`, userID).Scan(&count)
	return count, err
}

func (s *Store) CountSessionsForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM study_sessions WHERE user_id = $1
	`, userID).Scan(&count)
	return count, err
}
