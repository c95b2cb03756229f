package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/luckyrocket0125/studycare-be/internal/ai"
	"github.com/luckyrocket0125/studycare-be/internal/apperr"
	"github.com/luckyrocket0125/studycare-be/internal/model"
)

type Symptom struct {
	store     SessionStore
	completer Completer
	logger    *zap.Logger
}

func NewSymptom(store SessionStore, completer Completer, logger *zap.Logger) *Symptom {
	return &Symptom{store: store, completer: completer, logger: logger}
}

type SymptomGuidance struct {
	SessionID string `json:"session_id"`
	Guidance  string `json:"guidance"`
}

// Check produces non-diagnostic guidance for a described concern and records
// the exchange as a symptom session.
func (s *Symptom) Check(ctx context.Context, caller model.Profile, description string) (SymptomGuidance, error) {
	if description == "" {
		return SymptomGuidance{}, apperr.Validation("missing_description", "a description of the concern is required")
	}

	guidance, err := s.completer.ChatCompletion(ctx, []ai.Message{
		ai.TextMessage("system", symptomPrompt(caller)),
		ai.TextMessage("user", description),
	})
	if err != nil {
		s.logger.Error("symptom guidance failed", zap.String("user_id", caller.ID), zap.Error(err))
		return SymptomGuidance{}, apperr.Upstream("ai_unavailable", "guidance is temporarily unavailable")
	}

	sess, err := s.store.InsertSession(ctx, model.StudySession{
		ID:          newID(),
		UserID:      caller.ID,
		SessionType: model.SessionTypeSymptom,
		Title:       "Symptom check",
	})
	if err != nil {
		return SymptomGuidance{}, err
	}
	for _, msg := range []model.ChatMessage{
		{ID: newID(), SessionID: sess.ID, Sender: model.SenderUser, Content: description},
		{ID: newID(), SessionID: sess.ID, Sender: model.SenderAssistant, Content: guidance},
	} {
		if _, err := s.store.InsertChatMessage(ctx, msg); err != nil {
			s.logger.Warn("symptom exchange record failed", zap.String("session_id", sess.ID), zap.Error(err))
			break
		}
	}

	return SymptomGuidance{SessionID: sess.ID, Guidance: guidance}, nil
}
