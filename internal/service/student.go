package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/luckyrocket0125/studycare-be/internal/apperr"
	"github.com/luckyrocket0125/studycare-be/internal/model"
	"github.com/luckyrocket0125/studycare-be/internal/store"
)

type Student struct {
	store  ClassStore
	logger *zap.Logger
}

func NewStudent(store ClassStore, logger *zap.Logger) *Student {
	return &Student{store: store, logger: logger}
}

// JoinClass enrolls the student in the class behind a join code.
func (s *Student) JoinClass(ctx context.Context, studentID, joinCode string) (model.Class, error) {
	joinCode = strings.ToUpper(strings.TrimSpace(joinCode))
	if joinCode == "" {
		return model.Class{}, apperr.Validation("missing_join_code", "join code is required")
	}

	class, err := s.store.GetClassByJoinCode(ctx, joinCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Class{}, apperr.NotFound("class_not_found", "no class exists for this code")
		}
		return model.Class{}, err
	}

	if err := s.store.EnrollStudent(ctx, class.ID, studentID); err != nil {
		if store.IsUniqueViolation(err) {
			return model.Class{}, apperr.Conflict("already_enrolled", "you are already in this class")
		}
		return model.Class{}, err
	}
	return class, nil
}

func (s *Student) ListClasses(ctx context.Context, studentID string) ([]model.Class, error) {
	return s.store.ListClassesByStudent(ctx, studentID)
}

func (s *Student) LeaveClass(ctx context.Context, studentID, classID string) error {
	enrolled, err := s.store.IsStudentEnrolled(ctx, classID, studentID)
	if err != nil {
		return err
	}
	if !enrolled {
		return apperr.NotFound("not_enrolled", "you are not in this class")
	}
	return s.store.UnenrollStudent(ctx, classID, studentID)
}
