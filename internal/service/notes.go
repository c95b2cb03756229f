package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/luckyrocket0125/studycare-be/internal/ai"
	"github.com/luckyrocket0125/studycare-be/internal/apperr"
	"github.com/luckyrocket0125/studycare-be/internal/model"
)

type NoteStore interface {
	InsertNote(ctx context.Context, n model.Note) (model.Note, error)
	GetNote(ctx context.Context, noteID string) (model.Note, error)
	ListNotes(ctx context.Context, userID string, classID *string) ([]model.Note, error)
	UpdateNote(ctx context.Context, noteID string, title, content *string, classID *string, tags []string) (model.Note, error)
	SetNoteSummary(ctx context.Context, noteID, summary string) error
	SetNoteExplanation(ctx context.Context, noteID, explanation string) error
	DeleteNote(ctx context.Context, noteID string) error
	IsStudentEnrolled(ctx context.Context, classID, studentID string) (bool, error)
}

type Notes struct {
	store     NoteStore
	completer Completer
	logger    *zap.Logger
}

func NewNotes(store NoteStore, completer Completer, logger *zap.Logger) *Notes {
	return &Notes{store: store, completer: completer, logger: logger}
}

type NoteInput struct {
	Title   string
	Content string
	ClassID *string
	Tags    []string
}

func (s *Notes) Create(ctx context.Context, userID string, in NoteInput) (model.Note, error) {
	if in.Title == "" || in.Content == "" {
		return model.Note{}, apperr.Validation("missing_fields", "title and content are required")
	}
	if err := s.checkEnrollment(ctx, userID, in.ClassID); err != nil {
		return model.Note{}, err
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	return s.store.InsertNote(ctx, model.Note{
		ID:      newID(),
		UserID:  userID,
		ClassID: in.ClassID,
		Title:   in.Title,
		Content: in.Content,
		Tags:    in.Tags,
	})
}

func (s *Notes) List(ctx context.Context, userID string, classID *string) ([]model.Note, error) {
	return s.store.ListNotes(ctx, userID, classID)
}

func (s *Notes) Get(ctx context.Context, userID, noteID string) (model.Note, error) {
	return s.ownedNote(ctx, userID, noteID)
}

type NoteUpdate struct {
	Title   *string
	Content *string
	ClassID *string
	Tags    []string
}

func (s *Notes) Update(ctx context.Context, userID, noteID string, update NoteUpdate) (model.Note, error) {
	if _, err := s.ownedNote(ctx, userID, noteID); err != nil {
		return model.Note{}, err
	}
	if err := s.checkEnrollment(ctx, userID, update.ClassID); err != nil {
		return model.Note{}, err
	}
	return s.store.UpdateNote(ctx, noteID, update.Title, update.Content, update.ClassID, update.Tags)
}

func (s *Notes) Delete(ctx context.Context, userID, noteID string) error {
	if _, err := s.ownedNote(ctx, userID, noteID); err != nil {
		return err
	}
	return s.store.DeleteNote(ctx, noteID)
}

// Summarize generates and stores an AI summary for the note.
func (s *Notes) Summarize(ctx context.Context, caller model.Profile, noteID string) (model.Note, error) {
	note, err := s.ownedNote(ctx, caller.ID, noteID)
	if err != nil {
		return model.Note{}, err
	}

	summary, err := s.completer.ChatCompletion(ctx, []ai.Message{
		ai.TextMessage("system", summaryPrompt(caller)),
		ai.TextMessage("user", note.Title+"\n\n"+note.Content),
	})
	if err != nil {
		s.logger.Error("note summary failed", zap.String("note_id", noteID), zap.Error(err))
		return model.Note{}, apperr.Upstream("ai_unavailable", "summarization is temporarily unavailable")
	}

	if err := s.store.SetNoteSummary(ctx, noteID, summary); err != nil {
		return model.Note{}, err
	}
	note.Summary = &summary
	return note, nil
}

// Explain generates and stores a plain-language explanation for the note.
func (s *Notes) Explain(ctx context.Context, caller model.Profile, noteID string) (model.Note, error) {
	note, err := s.ownedNote(ctx, caller.ID, noteID)
	if err != nil {
		return model.Note{}, err
	}

	explanation, err := s.completer.ChatCompletion(ctx, []ai.Message{
		ai.TextMessage("system", explanationPrompt(caller)),
		ai.TextMessage("user", note.Title+"\n\n"+note.Content),
	})
	if err != nil {
		s.logger.Error("note explanation failed", zap.String("note_id", noteID), zap.Error(err))
		return model.Note{}, apperr.Upstream("ai_unavailable", "explanation is temporarily unavailable")
	}

	if err := s.store.SetNoteExplanation(ctx, noteID, explanation); err != nil {
		return model.Note{}, err
	}
	note.Explanation = &explanation
	return note, nil
}

func (s *Notes) ownedNote(ctx context.Context, userID, noteID string) (model.Note, error) {
	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Note{}, apperr.NotFound("note_not_found", "note not found")
		}
		return model.Note{}, err
	}
	if note.UserID != userID {
		return model.Note{}, apperr.Forbidden("not_note_owner", "note belongs to another user")
	}
	return note, nil
}

func (s *Notes) checkEnrollment(ctx context.Context, userID string, classID *string) error {
	if classID == nil || *classID == "" {
		return nil
	}
	enrolled, err := s.store.IsStudentEnrolled(ctx, *classID, userID)
	if err != nil {
		return err
	}
	if !enrolled {
		return apperr.Forbidden("not_enrolled", "you are not enrolled in this class")
	}
	return nil
}
