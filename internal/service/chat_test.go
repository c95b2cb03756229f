package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/luckyrocket0125/studycare-be/internal/ai"
	"github.com/luckyrocket0125/studycare-be/internal/apperr"
	"github.com/luckyrocket0125/studycare-be/internal/model"
)

type fakeSessionStore struct {
	sessions map[string]model.StudySession
	messages map[string][]model.ChatMessage
	touched  []string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions: map[string]model.StudySession{},
		messages: map[string][]model.ChatMessage{},
	}
}

func (f *fakeSessionStore) InsertSession(_ context.Context, sess model.StudySession) (model.StudySession, error) {
	f.sessions[sess.ID] = sess
	return sess, nil
}

func (f *fakeSessionStore) GetSession(_ context.Context, sessionID string) (model.StudySession, error) {
	sess, ok := f.sessions[sessionID]
	if !ok {
		return model.StudySession{}, pgx.ErrNoRows
	}
	return sess, nil
}

func (f *fakeSessionStore) ListSessions(_ context.Context, userID, sessionType string) ([]model.StudySession, error) {
	var out []model.StudySession
	for _, sess := range f.sessions {
		if sess.UserID == userID && sess.SessionType == sessionType {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) DeleteSession(_ context.Context, sessionID string) error {
	delete(f.sessions, sessionID)
	delete(f.messages, sessionID)
	return nil
}

func (f *fakeSessionStore) TouchSession(_ context.Context, sessionID string) error {
	f.touched = append(f.touched, sessionID)
	return nil
}

func (f *fakeSessionStore) InsertChatMessage(_ context.Context, msg model.ChatMessage) (model.ChatMessage, error) {
	f.messages[msg.SessionID] = append(f.messages[msg.SessionID], msg)
	return msg, nil
}

func (f *fakeSessionStore) ListChatMessages(_ context.Context, sessionID string, limit int) ([]model.ChatMessage, error) {
	msgs := f.messages[sessionID]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

type recordingCompleter struct {
	reply string
	err   error
	got   []ai.Message
}

func (c *recordingCompleter) ChatCompletion(_ context.Context, messages []ai.Message) (string, error) {
	c.got = messages
	return c.reply, c.err
}

func TestCreateSessionDefaultTitle(t *testing.T) {
	st := newFakeSessionStore()
	svc := NewChat(st, &recordingCompleter{}, zap.NewNop())

	sess, err := svc.CreateSession(context.Background(), "u-1", "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.Title != "New chat" {
		t.Fatalf("title = %q, want default", sess.Title)
	}
	if sess.SessionType != model.SessionTypeChat {
		t.Fatalf("type = %q", sess.SessionType)
	}
}

func TestSendMessageRejectsOtherOwner(t *testing.T) {
	st := newFakeSessionStore()
	st.sessions["s-1"] = model.StudySession{ID: "s-1", UserID: "owner", SessionType: model.SessionTypeChat}
	svc := NewChat(st, &recordingCompleter{}, zap.NewNop())

	_, err := svc.SendMessage(context.Background(), model.Profile{ID: "intruder"}, "s-1", "hi")
	if got := apperr.From(err); got.Status != 403 || got.Code != "not_session_owner" {
		t.Fatalf("got %d %q, want 403 not_session_owner", got.Status, got.Code)
	}
}

func TestSendMessagePersistsBothTurns(t *testing.T) {
	st := newFakeSessionStore()
	st.sessions["s-1"] = model.StudySession{ID: "s-1", UserID: "u-1", SessionType: model.SessionTypeChat}
	st.messages["s-1"] = []model.ChatMessage{
		{SessionID: "s-1", Sender: model.SenderUser, Content: "earlier question"},
		{SessionID: "s-1", Sender: model.SenderAssistant, Content: "earlier answer"},
	}
	completer := &recordingCompleter{reply: "Here is a hint."}
	svc := NewChat(st, completer, zap.NewNop())

	exchange, err := svc.SendMessage(context.Background(), model.Profile{ID: "u-1", Language: "en"}, "s-1", "next question")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if exchange.AssistantMessage.Content != "Here is a hint." {
		t.Fatalf("assistant content = %q", exchange.AssistantMessage.Content)
	}
	if len(st.messages["s-1"]) != 4 {
		t.Fatalf("stored messages = %d, want 4", len(st.messages["s-1"]))
	}

	// system prompt + two history turns + new content
	if len(completer.got) != 4 {
		t.Fatalf("completion messages = %d, want 4", len(completer.got))
	}
	if completer.got[0].Role != "system" {
		t.Fatalf("first role = %q, want system", completer.got[0].Role)
	}
	if completer.got[2].Role != "assistant" {
		t.Fatalf("history assistant role = %q", completer.got[2].Role)
	}
	if len(st.touched) != 1 || st.touched[0] != "s-1" {
		t.Fatalf("touched = %v", st.touched)
	}
}

func TestSendMessageCompletionFailure(t *testing.T) {
	st := newFakeSessionStore()
	st.sessions["s-1"] = model.StudySession{ID: "s-1", UserID: "u-1", SessionType: model.SessionTypeChat}
	svc := NewChat(st, &recordingCompleter{err: errors.New("down")}, zap.NewNop())

	_, err := svc.SendMessage(context.Background(), model.Profile{ID: "u-1"}, "s-1", "hi")
	if got := apperr.From(err); got.Status != 500 || got.Code != "ai_unavailable" {
		t.Fatalf("got %d %q, want 500 ai_unavailable", got.Status, got.Code)
	}
	// the user's turn is persisted even when the completion fails
	if len(st.messages["s-1"]) != 1 {
		t.Fatalf("stored messages = %d, want 1", len(st.messages["s-1"]))
	}
}
