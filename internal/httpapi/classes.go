package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/luckyrocket0125/studycare-be/internal/apperr"
)

type createClassRequest struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
}

func (s *Server) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var req createClassRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apperr.Validation("invalid_request", "request body must be valid JSON"))
		return
	}

	class, err := s.svc.Teacher.CreateClass(r.Context(), profileFromContext(r.Context()).ID, req.Name, req.Subject)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, class)
}

func (s *Server) handleListTeacherClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := s.svc.Teacher.ListClasses(r.Context(), profileFromContext(r.Context()).ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

func (s *Server) handleDeleteClass(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Teacher.DeleteClass(r.Context(), profileFromContext(r.Context()).ID, chi.URLParam(r, "classID")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListClassStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.svc.Teacher.ListStudents(r.Context(), profileFromContext(r.Context()).ID, chi.URLParam(r, "classID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

func (s *Server) handleRemoveStudent(w http.ResponseWriter, r *http.Request) {
	err := s.svc.Teacher.RemoveStudent(r.Context(), profileFromContext(r.Context()).ID, chi.URLParam(r, "classID"), chi.URLParam(r, "studentID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type joinClassRequest struct {
	JoinCode string `json:"join_code"`
}

func (s *Server) handleJoinClass(w http.ResponseWriter, r *http.Request) {
	var req joinClassRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apperr.Validation("invalid_request", "request body must be valid JSON"))
		return
	}

	class, err := s.svc.Student.JoinClass(r.Context(), profileFromContext(r.Context()).ID, req.JoinCode)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, class)
}

func (s *Server) handleListStudentClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := s.svc.Student.ListClasses(r.Context(), profileFromContext(r.Context()).ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

func (s *Server) handleLeaveClass(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Student.LeaveClass(r.Context(), profileFromContext(r.Context()).ID, chi.URLParam(r, "classID")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}
