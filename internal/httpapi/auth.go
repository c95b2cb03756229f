package httpapi

import (
	"net/http"

	"github.com/luckyrocket0125/studycare-be/internal/apperr"
	"github.com/luckyrocket0125/studycare-be/internal/service"
)

type registerRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FullName       string `json:"full_name"`
	Role           string `json:"role"`
	Language       string `json:"language"`
	SimplifiedMode bool   `json:"simplified_mode"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apperr.Validation("invalid_request", "request body must be valid JSON"))
		return
	}

	profile, err := s.svc.Auth.Register(r.Context(), service.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		FullName:       req.FullName,
		Role:           req.Role,
		Language:       req.Language,
		SimplifiedMode: req.SimplifiedMode,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apperr.Validation("invalid_request", "request body must be valid JSON"))
		return
	}

	result, err := s.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Auth.Logout(r.Context(), bearerToken(r.Header.Get("Authorization"))); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, profileFromContext(r.Context()))
}

type updateProfileRequest struct {
	FullName       *string `json:"full_name"`
	Language       *string `json:"language"`
	SimplifiedMode *bool   `json:"simplified_mode"`
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apperr.Validation("invalid_request", "request body must be valid JSON"))
		return
	}

	profile, err := s.svc.Auth.UpdateProfile(r.Context(), profileFromContext(r.Context()).ID, service.ProfileUpdate{
		FullName:       req.FullName,
		Language:       req.Language,
		SimplifiedMode: req.SimplifiedMode,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
