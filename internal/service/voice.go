package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/luckyrocket0125/studycare-be/internal/ai"
	"github.com/luckyrocket0125/studycare-be/internal/apperr"
	"github.com/luckyrocket0125/studycare-be/internal/cache"
	"github.com/luckyrocket0125/studycare-be/internal/model"
)

const maxAudioBytes = 25 << 20

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

type Speaker interface {
	Speak(ctx context.Context, text string) ([]byte, error)
}

type Voice struct {
	store       SessionStore
	transcriber Transcriber
	speaker     Speaker
	completer   Completer
	cache       cache.Cache
	cacheTTL    time.Duration
	logger      *zap.Logger
}

func NewVoice(store SessionStore, transcriber Transcriber, speaker Speaker, completer Completer, c cache.Cache, cacheTTL time.Duration, logger *zap.Logger) *Voice {
	return &Voice{
		store:       store,
		transcriber: transcriber,
		speaker:     speaker,
		completer:   completer,
		cache:       c,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

type Transcription struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

func (s *Voice) TranscribeAudio(ctx context.Context, caller model.Profile, audioBase64, filename string) (Transcription, error) {
	audio, err := decodeAudio(audioBase64)
	if err != nil {
		return Transcription{}, err
	}
	if filename == "" {
		filename = "audio.webm"
	}

	text, err := s.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		s.logger.Error("transcription failed", zap.String("user_id", caller.ID), zap.Error(err))
		return Transcription{}, apperr.Upstream("ai_unavailable", "transcription is temporarily unavailable")
	}

	sess, err := s.store.InsertSession(ctx, model.StudySession{
		ID:          newID(),
		UserID:      caller.ID,
		SessionType: model.SessionTypeVoice,
		Title:       "Voice transcription",
	})
	if err != nil {
		return Transcription{}, err
	}
	if _, err := s.store.InsertChatMessage(ctx, model.ChatMessage{
		ID:        newID(),
		SessionID: sess.ID,
		Sender:    model.SenderUser,
		Content:   text,
	}); err != nil {
		s.logger.Warn("transcription record failed", zap.String("session_id", sess.ID), zap.Error(err))
	}

	return Transcription{SessionID: sess.ID, Text: text}, nil
}

type VoiceReply struct {
	SessionID   string `json:"session_id"`
	Transcript  string `json:"transcript"`
	ReplyText   string `json:"reply_text"`
	ReplyAudio  string `json:"reply_audio,omitempty"`
	AudioFormat string `json:"audio_format,omitempty"`
}

// Chat transcribes the audio, completes a tutoring reply and synthesizes it.
// Synthesis is best-effort: the text reply is returned even when the speech
// call fails.
func (s *Voice) Chat(ctx context.Context, caller model.Profile, audioBase64, filename string) (VoiceReply, error) {
	audio, err := decodeAudio(audioBase64)
	if err != nil {
		return VoiceReply{}, err
	}
	if filename == "" {
		filename = "audio.webm"
	}

	transcript, err := s.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		s.logger.Error("transcription failed", zap.String("user_id", caller.ID), zap.Error(err))
		return VoiceReply{}, apperr.Upstream("ai_unavailable", "transcription is temporarily unavailable")
	}

	reply, err := s.completer.ChatCompletion(ctx, []ai.Message{
		ai.TextMessage("system", tutorPrompt(caller)),
		ai.TextMessage("user", transcript),
	})
	if err != nil {
		s.logger.Error("voice chat completion failed", zap.String("user_id", caller.ID), zap.Error(err))
		return VoiceReply{}, apperr.Upstream("ai_unavailable", "the tutor is temporarily unavailable")
	}

	sess, err := s.store.InsertSession(ctx, model.StudySession{
		ID:          newID(),
		UserID:      caller.ID,
		SessionType: model.SessionTypeVoice,
		Title:       "Voice chat",
	})
	if err != nil {
		return VoiceReply{}, err
	}
	for _, msg := range []model.ChatMessage{
		{ID: newID(), SessionID: sess.ID, Sender: model.SenderUser, Content: transcript},
		{ID: newID(), SessionID: sess.ID, Sender: model.SenderAssistant, Content: reply},
	} {
		if _, err := s.store.InsertChatMessage(ctx, msg); err != nil {
			s.logger.Warn("voice exchange record failed", zap.String("session_id", sess.ID), zap.Error(err))
			break
		}
	}

	result := VoiceReply{SessionID: sess.ID, Transcript: transcript, ReplyText: reply}
	if speech, err := s.synthesize(ctx, reply); err != nil {
		s.logger.Warn("speech synthesis failed, returning text only", zap.Error(err))
	} else {
		result.ReplyAudio = base64.StdEncoding.EncodeToString(speech)
		result.AudioFormat = "mp3"
	}
	return result, nil
}

type Speech struct {
	Audio  string `json:"audio"`
	Format string `json:"format"`
}

func (s *Voice) Speak(ctx context.Context, text string) (Speech, error) {
	if text == "" {
		return Speech{}, apperr.Validation("missing_text", "text is required")
	}
	audio, err := s.synthesize(ctx, text)
	if err != nil {
		s.logger.Error("speech synthesis failed", zap.Error(err))
		return Speech{}, apperr.Upstream("ai_unavailable", "speech synthesis is temporarily unavailable")
	}
	return Speech{Audio: base64.StdEncoding.EncodeToString(audio), Format: "mp3"}, nil
}

// synthesize memoizes synthesized audio by text hash.
func (s *Voice) synthesize(ctx context.Context, text string) ([]byte, error) {
	sum := sha256.Sum256([]byte(text))
	key := "speech:" + hex.EncodeToString(sum[:])

	if s.cache != nil {
		if audio, err := s.cache.Get(ctx, key); err == nil {
			return audio, nil
		}
	}
	audio, err := s.speaker.Speak(ctx, text)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, audio, s.cacheTTL)
	}
	return audio, nil
}

func decodeAudio(audioBase64 string) ([]byte, error) {
	if audioBase64 == "" {
		return nil, apperr.Validation("missing_audio", "audio data is required")
	}
	audio, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		return nil, apperr.Validation("invalid_audio", "audio must be base64 encoded")
	}
	if len(audio) > maxAudioBytes {
		return nil, apperr.Validation("audio_too_large", "audio exceeds the 25MB limit")
	}
	return audio, nil
}
