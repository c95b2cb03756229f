package service

import (
	"context"
	"encoding/base64"
	"strings"

	"go.uber.org/zap"

	"github.com/luckyrocket0125/studycare-be/internal/ai"
	"github.com/luckyrocket0125/studycare-be/internal/apperr"
	"github.com/luckyrocket0125/studycare-be/internal/model"
)

const maxImageBytes = 10 << 20

// VisionCompleter is the slice of the AI client used for image analysis.
type VisionCompleter interface {
	VisionCompletion(ctx context.Context, messages []ai.Message) (string, error)
}

// Uploader is the slice of the object store used for uploads.
type Uploader interface {
	Upload(ctx context.Context, path, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, path string) error
}

type Image struct {
	store    SessionStore
	vision   VisionCompleter
	uploader Uploader
	logger   *zap.Logger
}

func NewImage(store SessionStore, vision VisionCompleter, uploader Uploader, logger *zap.Logger) *Image {
	return &Image{store: store, vision: vision, uploader: uploader, logger: logger}
}

type ImageAnalysis struct {
	SessionID string `json:"session_id"`
	ImageURL  string `json:"image_url"`
	Question  string `json:"question,omitempty"`
	Analysis  string `json:"analysis"`
}

// Analyze uploads the image, runs a vision completion over its public URL
// and records the exchange as an image session.
func (s *Image) Analyze(ctx context.Context, caller model.Profile, imageBase64, contentType, question string) (ImageAnalysis, error) {
	if imageBase64 == "" {
		return ImageAnalysis{}, apperr.Validation("missing_image", "image data is required")
	}
	data, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return ImageAnalysis{}, apperr.Validation("invalid_image", "image must be base64 encoded")
	}
	if len(data) > maxImageBytes {
		return ImageAnalysis{}, apperr.Validation("image_too_large", "image exceeds the 10MB limit")
	}
	if contentType == "" {
		contentType = "image/png"
	}

	path := "images/" + caller.ID + "/" + newID() + extensionFor(contentType)
	imageURL, err := s.uploader.Upload(ctx, path, contentType, data)
	if err != nil {
		s.logger.Error("image upload failed", zap.String("user_id", caller.ID), zap.Error(err))
		return ImageAnalysis{}, apperr.Upstream("storage_error", "could not store the image")
	}

	prompt := question
	if prompt == "" {
		prompt = "What does this show? Transcribe any text and explain it."
	}
	analysis, err := s.vision.VisionCompletion(ctx, []ai.Message{
		ai.TextMessage("system", imagePrompt(caller)),
		ai.VisionMessage(prompt, imageURL),
	})
	if err != nil {
		s.logger.Error("vision completion failed", zap.String("user_id", caller.ID), zap.Error(err))
		return ImageAnalysis{}, apperr.Upstream("ai_unavailable", "image analysis is temporarily unavailable")
	}

	sess, err := s.store.InsertSession(ctx, model.StudySession{
		ID:          newID(),
		UserID:      caller.ID,
		SessionType: model.SessionTypeImage,
		Title:       "Image analysis",
	})
	if err != nil {
		// No session references the upload; drop it rather than orphan it.
		if delErr := s.uploader.Delete(ctx, path); delErr != nil {
			s.logger.Warn("image cleanup failed", zap.String("path", path), zap.Error(delErr))
		}
		return ImageAnalysis{}, err
	}
	s.recordExchange(ctx, sess.ID, prompt+"\n"+imageURL, analysis)

	return ImageAnalysis{
		SessionID: sess.ID,
		ImageURL:  imageURL,
		Question:  question,
		Analysis:  analysis,
	}, nil
}

// recordExchange is best-effort: the analysis already succeeded.
func (s *Image) recordExchange(ctx context.Context, sessionID, question, answer string) {
	for _, msg := range []model.ChatMessage{
		{ID: newID(), SessionID: sessionID, Sender: model.SenderUser, Content: question},
		{ID: newID(), SessionID: sessionID, Sender: model.SenderAssistant, Content: answer},
	} {
		if _, err := s.store.InsertChatMessage(ctx, msg); err != nil {
			s.logger.Warn("image exchange record failed", zap.String("session_id", sessionID), zap.Error(err))
			return
		}
	}
}

func extensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
