package httpapi

import (
	"net/http"

	"github.com/luckyrocket0125/studycare-be/internal/apperr"
)

type analyzeImageRequest struct {
	Image       string `json:"image"`
	ContentType string `json:"content_type"`
	Question    string `json:"question"`
}

func (s *Server) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req analyzeImageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apperr.Validation("invalid_request", "request body must be valid JSON"))
		return
	}

	analysis, err := s.svc.Image.Analyze(r.Context(), profileFromContext(r.Context()), req.Image, req.ContentType, req.Question)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

type audioRequest struct {
	Audio    string `json:"audio"`
	Filename string `json:"filename"`
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	var req audioRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apperr.Validation("invalid_request", "request body must be valid JSON"))
		return
	}

	result, err := s.svc.Voice.TranscribeAudio(r.Context(), profileFromContext(r.Context()), req.Audio, req.Filename)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleVoiceChat(w http.ResponseWriter, r *http.Request) {
	var req audioRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apperr.Validation("invalid_request", "request body must be valid JSON"))
		return
	}

	reply, err := s.svc.Voice.Chat(r.Context(), profileFromContext(r.Context()), req.Audio, req.Filename)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type speakRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apperr.Validation("invalid_request", "request body must be valid JSON"))
		return
	}

	speech, err := s.svc.Voice.Speak(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, speech)
}

type symptomRequest struct {
	Description string `json:"description"`
}

func (s *Server) handleSymptomCheck(w http.ResponseWriter, r *http.Request) {
	var req symptomRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, apperr.Validation("invalid_request", "request body must be valid JSON"))
		return
	}

	guidance, err := s.svc.Symptom.Check(r.Context(), profileFromContext(r.Context()), req.Description)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, guidance)
}
