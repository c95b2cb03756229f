package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/luckyrocket0125/studycare-be/internal/apperr"
)

type createSessionRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleCreateChatSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apperr.Validation("invalid_request", "request body must be valid JSON"))
		return
	}

	sess, err := s.svc.Chat.CreateSession(r.Context(), profileFromContext(r.Context()).ID, req.Title)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleListChatSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.svc.Chat.ListSessions(r.Context(), profileFromContext(r.Context()).ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleDeleteChatSession(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Chat.DeleteSession(r.Context(), profileFromContext(r.Context()).ID, chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListChatMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.svc.Chat.ListMessages(r.Context(), profileFromContext(r.Context()).ID, chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleSendChatMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apperr.Validation("invalid_request", "request body must be valid JSON"))
		return
	}

	exchange, err := s.svc.Chat.SendMessage(r.Context(), profileFromContext(r.Context()), chi.URLParam(r, "sessionID"), req.Content)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exchange)
}
