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

const historyWindow = 20

type SessionStore interface {
	InsertSession(ctx context.Context, sess model.StudySession) (model.StudySession, error)
	GetSession(ctx context.Context, sessionID string) (model.StudySession, error)
	ListSessions(ctx context.Context, userID, sessionType string) ([]model.StudySession, error)
	DeleteSession(ctx context.Context, sessionID string) error
	TouchSession(ctx context.Context, sessionID string) error
	InsertChatMessage(ctx context.Context, msg model.ChatMessage) (model.ChatMessage, error)
	ListChatMessages(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error)
}

// Completer is the slice of the AI client used for plain chat completions.
type Completer interface {
	ChatCompletion(ctx context.Context, messages []ai.Message) (string, error)
}

type Chat struct {
	store     SessionStore
	completer Completer
	logger    *zap.Logger
}

func NewChat(store SessionStore, completer Completer, logger *zap.Logger) *Chat {
	return &Chat{store: store, completer: completer, logger: logger}
}

func (s *Chat) CreateSession(ctx context.Context, userID, title string) (model.StudySession, error) {
	if title == "" {
		title = "New chat"
	}
	return s.store.InsertSession(ctx, model.StudySession{
		ID:          newID(),
		UserID:      userID,
		SessionType: model.SessionTypeChat,
		Title:       title,
	})
}

func (s *Chat) ListSessions(ctx context.Context, userID string) ([]model.StudySession, error) {
	return s.store.ListSessions(ctx, userID, model.SessionTypeChat)
}

func (s *Chat) ListMessages(ctx context.Context, userID, sessionID string) ([]model.ChatMessage, error) {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.store.ListChatMessages(ctx, sessionID, 200)
}

func (s *Chat) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.store.DeleteSession(ctx, sessionID)
}

type ChatExchange struct {
	UserMessage      model.ChatMessage `json:"user_message"`
	AssistantMessage model.ChatMessage `json:"assistant_message"`
}

// SendMessage persists the user's turn, completes against the recent history
// and persists the assistant's turn.
func (s *Chat) SendMessage(ctx context.Context, caller model.Profile, sessionID, content string) (ChatExchange, error) {
	if content == "" {
		return ChatExchange{}, apperr.Validation("missing_message", "message content is required")
	}
	if _, err := s.ownedSession(ctx, caller.ID, sessionID); err != nil {
		return ChatExchange{}, err
	}

	history, err := s.store.ListChatMessages(ctx, sessionID, historyWindow)
	if err != nil {
		return ChatExchange{}, err
	}

	userMsg, err := s.store.InsertChatMessage(ctx, model.ChatMessage{
		ID:        newID(),
		SessionID: sessionID,
		Sender:    model.SenderUser,
		Content:   content,
	})
	if err != nil {
		return ChatExchange{}, err
	}

	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.TextMessage("system", tutorPrompt(caller)))
	for _, msg := range history {
		role := "user"
		if msg.Sender == model.SenderAssistant {
			role = "assistant"
		}
		messages = append(messages, ai.TextMessage(role, msg.Content))
	}
	messages = append(messages, ai.TextMessage("user", content))

	reply, err := s.completer.ChatCompletion(ctx, messages)
	if err != nil {
		s.logger.Error("chat completion failed", zap.String("session_id", sessionID), zap.Error(err))
		return ChatExchange{}, apperr.Upstream("ai_unavailable", "the tutor is temporarily unavailable")
	}

	assistantMsg, err := s.store.InsertChatMessage(ctx, model.ChatMessage{
		ID:        newID(),
		SessionID: sessionID,
		Sender:    model.SenderAssistant,
		Content:   reply,
	})
	if err != nil {
		return ChatExchange{}, err
	}
	if err := s.store.TouchSession(ctx, sessionID); err != nil {
		s.logger.Warn("session touch failed", zap.String("session_id", sessionID), zap.Error(err))
	}

	return ChatExchange{UserMessage: userMsg, AssistantMessage: assistantMsg}, nil
}

func (s *Chat) ownedSession(ctx context.Context, userID, sessionID string) (model.StudySession, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.StudySession{}, apperr.NotFound("session_not_found", "session not found")
		}
		return model.StudySession{}, err
	}
	if sess.UserID != userID {
		return model.StudySession{}, apperr.Forbidden("not_session_owner", "session belongs to another user")
	}
	return sess, nil
}
