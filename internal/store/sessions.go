package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/luckyrocket0125/studycare-be/internal/model"
)

const sessionColumns = `id, user_id, session_type, title, created_at, updated_at`

func scanSession(row pgx.Row) (model.StudySession, error) {
	var sess model.StudySession
	err := row.Scan(&sess.ID, &sess.UserID, &sess.SessionType, &sess.Title, &sess.CreatedAt, &sess.UpdatedAt)
	return sess, err
}

func (s *Store) InsertSession(ctx context.Context, sess model.StudySession) (model.StudySession, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO study_sessions (id, user_id, session_type, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING `+sessionColumns+`
	`, sess.ID, sess.UserID, sess.SessionType, sess.Title)
	return scanSession(row)
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (model.StudySession, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM study_sessions
		WHERE id = $1
	`, sessionID)
	return scanSession(row)
}

func (s *Store) ListSessions(ctx context.Context, userID, sessionType string) ([]model.StudySession, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM study_sessions
		WHERE user_id = $1 AND session_type = $2
		ORDER BY updated_at DESC
	`, userID, sessionType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.StudySession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *Store) RecentSessions(ctx context.Context, userID string, limit int) ([]model.StudySession, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM study_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.StudySession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *Store) TouchSession(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE study_sessions SET updated_at = now() WHERE id = $1`, sessionID)
	return err
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM chat_messages WHERE session_id = $1`, sessionID); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM study_sessions WHERE id = $1`, sessionID)
	return err
}

func (s *Store) InsertChatMessage(ctx context.Context, msg model.ChatMessage) (model.ChatMessage, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO chat_messages (id, session_id, sender, content, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, session_id, sender, content, created_at
	`, msg.ID, msg.SessionID, msg.Sender, msg.Content)
	var out model.ChatMessage
	err := row.Scan(&out.ID, &out.SessionID, &out.Sender, &out.Content, &out.CreatedAt)
	return out, err
}

func (s *Store) ListChatMessages(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error) {
	// Newest window, returned oldest-first for display and prompting.
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, sender, content, created_at
		FROM (
			SELECT id, session_id, sender, content, created_at
			FROM chat_messages
			WHERE session_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.ChatMessage
	for rows.Next() {
		var msg model.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Sender, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
