package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/luckyrocket0125/studycare-be/internal/apperr"
)

type createPodRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleCreatePod(w http.ResponseWriter, r *http.Request) {
	var req createPodRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apperr.Validation("invalid_request", "request body must be valid JSON"))
		return
	}

	pod, err := s.svc.Pods.Create(r.Context(), profileFromContext(r.Context()).ID, req.Name, req.Description)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pod)
}

func (s *Server) handleListPods(w http.ResponseWriter, r *http.Request) {
	pods, err := s.svc.Pods.List(r.Context(), profileFromContext(r.Context()).ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pods)
}

func (s *Server) handleGetPod(w http.ResponseWriter, r *http.Request) {
	pod, err := s.svc.Pods.Get(r.Context(), profileFromContext(r.Context()).ID, chi.URLParam(r, "podID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pod)
}

type inviteRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleInviteToPod(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apperr.Validation("invalid_request", "request body must be valid JSON"))
		return
	}

	inv, err := s.svc.Pods.Invite(r.Context(), profileFromContext(r.Context()).ID, chi.URLParam(r, "podID"), req.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) handleListPodInvitations(w http.ResponseWriter, r *http.Request) {
	invitations, err := s.svc.Pods.ListInvitations(r.Context(), profileFromContext(r.Context()).Email)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invitations)
}

func (s *Server) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	pod, err := s.svc.Pods.Accept(r.Context(), profileFromContext(r.Context()), chi.URLParam(r, "invitationID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pod)
}

func (s *Server) handleDeclineInvitation(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Pods.Decline(r.Context(), profileFromContext(r.Context()), chi.URLParam(r, "invitationID")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "declined"})
}

type podMessageRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleSendPodMessage(w http.ResponseWriter, r *http.Request) {
	var req podMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apperr.Validation("invalid_request", "request body must be valid JSON"))
		return
	}

	msg, err := s.svc.Pods.SendMessage(r.Context(), profileFromContext(r.Context()), chi.URLParam(r, "podID"), req.Content)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleListPodMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.svc.Pods.ListMessages(r.Context(), profileFromContext(r.Context()).ID, chi.URLParam(r, "podID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (s *Server) handleLeavePod(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Pods.Leave(r.Context(), profileFromContext(r.Context()).ID, chi.URLParam(r, "podID")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

func (s *Server) handleRemovePodMember(w http.ResponseWriter, r *http.Request) {
	err := s.svc.Pods.RemoveMember(r.Context(), profileFromContext(r.Context()).ID, chi.URLParam(r, "podID"), chi.URLParam(r, "memberID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
