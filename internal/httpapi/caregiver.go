package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/luckyrocket0125/studycare-be/internal/apperr"
)

type linkChildRequest struct {
	ChildEmail string `json:"child_email"`
}

func (s *Server) handleLinkChild(w http.ResponseWriter, r *http.Request) {
	var req linkChildRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apperr.Validation("invalid_request", "request body must be valid JSON"))
		return
	}

	child, err := s.svc.Caregiver.LinkChild(r.Context(), profileFromContext(r.Context()).ID, req.ChildEmail)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, child)
}

func (s *Server) handleListChildren(w http.ResponseWriter, r *http.Request) {
	children, err := s.svc.Caregiver.ListChildren(r.Context(), profileFromContext(r.Context()).ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, children)
}

func (s *Server) handleUnlinkChild(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Caregiver.UnlinkChild(r.Context(), profileFromContext(r.Context()).ID, chi.URLParam(r, "childID")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unlinked"})
}

func (s *Server) handleChildActivity(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Caregiver.ChildActivity(r.Context(), profileFromContext(r.Context()).ID, chi.URLParam(r, "childID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
