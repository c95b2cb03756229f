package service

import (
	"context"
	"crypto/rand"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/luckyrocket0125/studycare-be/internal/apperr"
	"github.com/luckyrocket0125/studycare-be/internal/model"
	"github.com/luckyrocket0125/studycare-be/internal/store"
)

// joinCodeAlphabet avoids 0/O and 1/I lookalikes.
const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const joinCodeLength = 6

type ClassStore interface {
	InsertClass(ctx context.Context, c model.Class) (model.Class, error)
	GetClass(ctx context.Context, classID string) (model.Class, error)
	GetClassByJoinCode(ctx context.Context, joinCode string) (model.Class, error)
	ListClassesByTeacher(ctx context.Context, teacherID string) ([]model.Class, error)
	ListClassesByStudent(ctx context.Context, studentID string) ([]model.Class, error)
	DeleteClass(ctx context.Context, classID string) error
	EnrollStudent(ctx context.Context, classID, studentID string) error
	UnenrollStudent(ctx context.Context, classID, studentID string) error
	IsStudentEnrolled(ctx context.Context, classID, studentID string) (bool, error)
	ListClassStudents(ctx context.Context, classID string) ([]model.Profile, error)
}

type Teacher struct {
	store  ClassStore
	logger *zap.Logger
}

func NewTeacher(store ClassStore, logger *zap.Logger) *Teacher {
	return &Teacher{store: store, logger: logger}
}

func (s *Teacher) CreateClass(ctx context.Context, teacherID, name, subject string) (model.Class, error) {
	if name == "" {
		return model.Class{}, apperr.Validation("missing_name", "class name is required")
	}

	// Join codes are random; on the rare collision generate a fresh one.
	for attempt := 0; attempt < 5; attempt++ {
		class, err := s.store.InsertClass(ctx, model.Class{
			ID:        newID(),
			TeacherID: teacherID,
			Name:      name,
			Subject:   subject,
			JoinCode:  newJoinCode(),
		})
		if err == nil {
			return class, nil
		}
		if !store.IsUniqueViolation(err) {
			return model.Class{}, err
		}
	}
	return model.Class{}, apperr.Upstream("join_code_exhausted", "could not allocate a join code")
}

func (s *Teacher) ListClasses(ctx context.Context, teacherID string) ([]model.Class, error) {
	return s.store.ListClassesByTeacher(ctx, teacherID)
}

func (s *Teacher) ListStudents(ctx context.Context, teacherID, classID string) ([]model.Profile, error) {
	if _, err := s.ownedClass(ctx, teacherID, classID); err != nil {
		return nil, err
	}
	return s.store.ListClassStudents(ctx, classID)
}

func (s *Teacher) DeleteClass(ctx context.Context, teacherID, classID string) error {
	if _, err := s.ownedClass(ctx, teacherID, classID); err != nil {
		return err
	}
	return s.store.DeleteClass(ctx, classID)
}

func (s *Teacher) RemoveStudent(ctx context.Context, teacherID, classID, studentID string) error {
	if _, err := s.ownedClass(ctx, teacherID, classID); err != nil {
		return err
	}
	enrolled, err := s.store.IsStudentEnrolled(ctx, classID, studentID)
	if err != nil {
		return err
	}
	if !enrolled {
		return apperr.NotFound("student_not_enrolled", "student is not in this class")
	}
	return s.store.UnenrollStudent(ctx, classID, studentID)
}

func (s *Teacher) ownedClass(ctx context.Context, teacherID, classID string) (model.Class, error) {
	class, err := s.store.GetClass(ctx, classID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Class{}, apperr.NotFound("class_not_found", "class not found")
		}
		return model.Class{}, err
	}
	if class.TeacherID != teacherID {
		return model.Class{}, apperr.Forbidden("not_class_owner", "class belongs to another teacher")
	}
	return class, nil
}

func newJoinCode() string {
	buf := make([]byte, joinCodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic("join code entropy unavailable: " + err.Error())
	}
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf)
}
