// Package httpapi exposes the REST surface of the platform. Handlers decode
// and validate transport concerns, then delegate to the service layer; every
// response is wrapped in the success/error envelope.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/luckyrocket0125/studycare-be/internal/apperr"
	"github.com/luckyrocket0125/studycare-be/internal/config"
	"github.com/luckyrocket0125/studycare-be/internal/metrics"
	"github.com/luckyrocket0125/studycare-be/internal/model"
	"github.com/luckyrocket0125/studycare-be/internal/service"
)

type Services struct {
	Auth      *service.Auth
	Caregiver *service.Caregiver
	Chat      *service.Chat
	Notes     *service.Notes
	Image     *service.Image
	Voice     *service.Voice
	Symptom   *service.Symptom
	Teacher   *service.Teacher
	Student   *service.Student
	Pods      *service.Pods
}

type Server struct {
	cfg       config.Config
	svc       Services
	collector *metrics.Collector
	logger    *zap.Logger

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
}

func NewServer(cfg config.Config, svc Services, collector *metrics.Collector, logger *zap.Logger) *Server {
	return &Server{
		cfg:       cfg,
		svc:       svc,
		collector: collector,
		logger:    logger,
		limiters:  map[string]*rate.Limiter{},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
	r.Handle("/metrics/prometheus", s.collector.PrometheusHandler())

	r.Route("/api", func(r chi.Router) {
		// Public routes are throttled by remote address.
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Post("/auth/register", s.handleRegister)
			r.Post("/auth/login", s.handleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware, s.rateLimit)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/me", s.handleMe)
			r.Patch("/auth/me", s.handleUpdateMe)

			r.Route("/caregiver", func(r chi.Router) {
				r.Use(s.requireRoles(model.RoleCaregiver))
				r.Post("/children", s.handleLinkChild)
				r.Get("/children", s.handleListChildren)
				r.Delete("/children/{childID}", s.handleUnlinkChild)
				r.Get("/children/{childID}/activity", s.handleChildActivity)
			})

			r.Route("/chat", func(r chi.Router) {
				r.Post("/sessions", s.handleCreateChatSession)
				r.Get("/sessions", s.handleListChatSessions)
				r.Delete("/sessions/{sessionID}", s.handleDeleteChatSession)
				r.Get("/sessions/{sessionID}/messages", s.handleListChatMessages)
				r.Post("/sessions/{sessionID}/messages", s.handleSendChatMessage)
			})

			r.Route("/notes", func(r chi.Router) {
				r.Post("/", s.handleCreateNote)
				r.Get("/", s.handleListNotes)
				r.Get("/{noteID}", s.handleGetNote)
				r.Patch("/{noteID}", s.handleUpdateNote)
				r.Delete("/{noteID}", s.handleDeleteNote)
				r.Post("/{noteID}/summarize", s.handleSummarizeNote)
				r.Post("/{noteID}/explain", s.handleExplainNote)
			})

			r.Post("/image/analyze", s.handleAnalyzeImage)

			r.Post("/voice/transcribe", s.handleTranscribe)
			r.Post("/voice/chat", s.handleVoiceChat)
			r.Post("/voice/speak", s.handleSpeak)

			r.With(s.requireRoles(model.RoleStudent, model.RoleCaregiver)).
				Post("/symptom/check", s.handleSymptomCheck)

			r.Route("/teacher/classes", func(r chi.Router) {
				r.Use(s.requireRoles(model.RoleTeacher))
				r.Post("/", s.handleCreateClass)
				r.Get("/", s.handleListTeacherClasses)
				r.Delete("/{classID}", s.handleDeleteClass)
				r.Get("/{classID}/students", s.handleListClassStudents)
				r.Delete("/{classID}/students/{studentID}", s.handleRemoveStudent)
			})

			r.Route("/student/classes", func(r chi.Router) {
				r.Use(s.requireRoles(model.RoleStudent))
				r.Post("/join", s.handleJoinClass)
				r.Get("/", s.handleListStudentClasses)
				r.Delete("/{classID}", s.handleLeaveClass)
			})

			r.Route("/pods", func(r chi.Router) {
				r.Post("/", s.handleCreatePod)
				r.Get("/", s.handleListPods)
				r.Get("/invitations", s.handleListPodInvitations)
				r.Post("/invitations/{invitationID}/accept", s.handleAcceptInvitation)
				r.Post("/invitations/{invitationID}/decline", s.handleDeclineInvitation)
				r.Get("/{podID}", s.handleGetPod)
				r.Post("/{podID}/invitations", s.handleInviteToPod)
				r.Get("/{podID}/messages", s.handleListPodMessages)
				r.Post("/{podID}/messages", s.handleSendPodMessage)
				r.Post("/{podID}/leave", s.handleLeavePod)
				r.Delete("/{podID}/members/{memberID}", s.handleRemovePodMember)
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.collector.Snapshot())
}

// observe records request metrics and one structured log line per request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.collector.IncInFlight()
		defer s.collector.DecInFlight()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		s.collector.ObserveRequest(r.Method, rec.status, elapsed)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", elapsed))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type profileKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			s.writeError(w, apperr.Unauthorized("missing_token", "authorization header is required"))
			return
		}

		profile, err := s.svc.Auth.Authenticate(r.Context(), token)
		if err != nil {
			s.writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), profileKey{}, profile)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func profileFromContext(ctx context.Context) model.Profile {
	profile, _ := ctx.Value(profileKey{}).(model.Profile)
	return profile
}

func (s *Server) requireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile := profileFromContext(r.Context())
			for _, role := range roles {
				if profile.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			s.writeError(w, apperr.Forbidden("wrong_role", "your role cannot access this resource"))
		})
	}
}

// rateLimit applies a token bucket per authenticated user, falling back to the
// remote address for anonymous callers.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := profileFromContext(r.Context()).ID
		if key == "" {
			key = r.RemoteAddr
		}
		if !s.limiterFor(key).Allow() {
			s.writeError(w, &apperr.Error{
				Status:  http.StatusTooManyRequests,
				Code:    "rate_limited",
				Message: "too many requests, slow down",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

const maxTrackedLimiters = 8192

func (s *Server) limiterFor(key string) *rate.Limiter {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	limiter, ok := s.limiters[key]
	if !ok {
		if len(s.limiters) >= maxTrackedLimiters {
			s.limiters = map[string]*rate.Limiter{}
		}
		limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimitPerSecond), s.cfg.RateLimitBurst)
		s.limiters[key] = limiter
	}
	return limiter
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(out)
}

type envelope struct {
	Success bool           `json:"success"`
	Data    interface{}    `json:"data,omitempty"`
	Error   *envelopeError `json:"error,omitempty"`
}

type envelopeError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	appErr := apperr.From(err)
	if appErr.Status >= 500 {
		s.logger.Error("request failed", zap.String("code", appErr.Code), zap.Error(err))
	}
	s.collector.ObserveError(appErr.Code)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: false,
		Error:   &envelopeError{Message: appErr.Message, Code: appErr.Code},
	})
}
