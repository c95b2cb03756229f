package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/luckyrocket0125/studycare-be/internal/model"
)

const classColumns = `id, teacher_id, name, subject, join_code, created_at`

func scanClass(row pgx.Row) (model.Class, error) {
	var c model.Class
	err := row.Scan(&c.ID, &c.TeacherID, &c.Name, &c.Subject, &c.JoinCode, &c.CreatedAt)
	return c, err
}

func (s *Store) InsertClass(ctx context.Context, c model.Class) (model.Class, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO classes (id, teacher_id, name, subject, join_code, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING `+classColumns+`
	`, c.ID, c.TeacherID, c.Name, c.Subject, c.JoinCode)
	return scanClass(row)
}

func (s *Store) GetClass(ctx context.Context, classID string) (model.Class, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+classColumns+`
		FROM classes
		WHERE id = $1
	`, classID)
	return scanClass(row)
}

func (s *Store) GetClassByJoinCode(ctx context.Context, joinCode string) (model.Class, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+classColumns+`
		FROM classes
		WHERE join_code = $1
	`, joinCode)
	return scanClass(row)
}

func (s *Store) ListClassesByTeacher(ctx context.Context, teacherID string) ([]model.Class, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+classColumns+`
		FROM classes
		WHERE teacher_id = $1
		ORDER BY created_at DESC
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectClasses(rows)
}

func (s *Store) ListClassesByStudent(ctx context.Context, studentID string) ([]model.Class, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.teacher_id, c.name, c.subject, c.join_code, c.created_at
		FROM class_students cs
		JOIN classes c ON c.id = cs.class_id
		WHERE cs.student_id = $1
		ORDER BY c.created_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectClasses(rows)
}

func collectClasses(rows pgx.Rows) ([]model.Class, error) {
	var classes []model.Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (s *Store) DeleteClass(ctx context.Context, classID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM class_students WHERE class_id = $1`, classID); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM classes WHERE id = $1`, classID)
	return err
}

func (s *Store) EnrollStudent(ctx context.Context, classID, studentID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO class_students (class_id, student_id, created_at)
		VALUES ($1, $2, now())
	`, classID, studentID)
	return err
}

func (s *Store) UnenrollStudent(ctx context.Context, classID, studentID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM class_students WHERE class_id = $1 AND student_id = $2
	`, classID, studentID)
	return err
}

func (s *Store) IsStudentEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	return exists(ctx, s.pool, `
		SELECT 1 FROM class_students WHERE class_id = $1 AND student_id = $2
	`, classID, studentID)
}

func (s *Store) ListClassStudents(ctx context.Context, classID string) ([]model.Profile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.email, p.full_name, p.role, p.language, p.simplified_mode, p.created_at, p.updated_at
		FROM class_students cs
		JOIN profiles p ON p.id = cs.student_id
		WHERE cs.class_id = $1
		ORDER BY p.full_name
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, p)
	}
	return students, rows.Err()
}
