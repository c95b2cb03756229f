package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/luckyrocket0125/studycare-be/internal/model"
)

const noteColumns = `id, user_id, class_id, title, content, summary, explanation, tags, created_at, updated_at`

func scanNote(row pgx.Row) (model.Note, error) {
	var n model.Note
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.ClassID,
		&n.Title,
		&n.Content,
		&n.Summary,
		&n.Explanation,
		&n.Tags,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	return n, err
}

func (s *Store) InsertNote(ctx context.Context, n model.Note) (model.Note, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO notes (id, user_id, class_id, title, content, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING `+noteColumns+`
	`, n.ID, n.UserID, n.ClassID, n.Title, n.Content, n.Tags)
	return scanNote(row)
}

func (s *Store) GetNote(ctx context.Context, noteID string) (model.Note, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE id = $1
	`, noteID)
	return scanNote(row)
}

func (s *Store) ListNotes(ctx context.Context, userID string, classID *string) ([]model.Note, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE user_id = $1 AND ($2::text IS NULL OR class_id = $2)
		ORDER BY updated_at DESC
	`, userID, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNotes(rows)
}

func (s *Store) RecentNotes(ctx context.Context, userID string, limit int) ([]model.Note, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNotes(rows)
}

func collectNotes(rows pgx.Rows) ([]model.Note, error) {
	var notes []model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *Store) UpdateNote(ctx context.Context, noteID string, title, content *string, classID *string, tags []string) (model.Note, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE notes
		SET title = COALESCE($2, title),
		    content = COALESCE($3, content),
		    class_id = COALESCE($4, class_id),
		    tags = COALESCE($5, tags),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+noteColumns+`
	`, noteID, title, content, classID, tags)
	return scanNote(row)
}

func (s *Store) SetNoteSummary(ctx context.Context, noteID, summary string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notes SET summary = $2, updated_at = now() WHERE id = $1
	`, noteID, summary)
	return err
}

func (s *Store) SetNoteExplanation(ctx context.Context, noteID, explanation string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notes SET explanation = $2, updated_at = now() WHERE id = $1
	`, noteID, explanation)
	return err
}

func (s *Store) DeleteNote(ctx context.Context, noteID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, noteID)
	return err
}
