package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/luckyrocket0125/studycare-be/internal/apperr"
	"github.com/luckyrocket0125/studycare-be/internal/service"
)

type createNoteRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	ClassID *string  `json:"class_id"`
	Tags    []string `json:"tags"`
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apperr.Validation("invalid_request", "request body must be valid JSON"))
		return
	}

	note, err := s.svc.Notes.Create(r.Context(), profileFromContext(r.Context()).ID, service.NoteInput{
		Title:   req.Title,
		Content: req.Content,
		ClassID: req.ClassID,
		Tags:    req.Tags,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	var classID *string
	if raw := r.URL.Query().Get("class_id"); raw != "" {
		classID = &raw
	}

	notes, err := s.svc.Notes.List(r.Context(), profileFromContext(r.Context()).ID, classID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.svc.Notes.Get(r.Context(), profileFromContext(r.Context()).ID, chi.URLParam(r, "noteID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

type updateNoteRequest struct {
	Title   *string  `json:"title"`
	Content *string  `json:"content"`
	ClassID *string  `json:"class_id"`
	Tags    []string `json:"tags"`
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var req updateNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apperr.Validation("invalid_request", "request body must be valid JSON"))
		return
	}

	note, err := s.svc.Notes.Update(r.Context(), profileFromContext(r.Context()).ID, chi.URLParam(r, "noteID"), service.NoteUpdate{
		Title:   req.Title,
		Content: req.Content,
		ClassID: req.ClassID,
		Tags:    req.Tags,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Notes.Delete(r.Context(), profileFromContext(r.Context()).ID, chi.URLParam(r, "noteID")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSummarizeNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.svc.Notes.Summarize(r.Context(), profileFromContext(r.Context()), chi.URLParam(r, "noteID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) handleExplainNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.svc.Notes.Explain(r.Context(), profileFromContext(r.Context()), chi.URLParam(r, "noteID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}
