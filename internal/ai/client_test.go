package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChatCompletion(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"  The answer is 4. "}}]}`)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "key", ChatModel: "chat-model"})
	reply, err := client.ChatCompletion(context.Background(), []Message{
		TextMessage("system", "be helpful"),
		TextMessage("user", "2+2?"),
	})
	if err != nil {
		t.Fatalf("ChatCompletion: %v", err)
	}
	if reply != "The answer is 4." {
		t.Fatalf("reply = %q", reply)
	}
	if got.Model != "chat-model" || len(got.Messages) != 2 {
		t.Fatalf("request = %+v", got)
	}
}

func TestVisionCompletionUsesVisionModel(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"a triangle"}}]}`)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, ChatModel: "chat-model", VisionModel: "vision-model"})
	reply, err := client.VisionCompletion(context.Background(), []Message{
		VisionMessage("what shape is this?", "data:image/png;base64,AAAA"),
	})
	if err != nil {
		t.Fatalf("VisionCompletion: %v", err)
	}
	if reply != "a triangle" {
		t.Fatalf("reply = %q", reply)
	}
	if got.Model != "vision-model" {
		t.Fatalf("model = %q, want vision-model", got.Model)
	}
}

func TestChatCompletionNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	if _, err := client.ChatCompletion(context.Background(), []Message{TextMessage("user", "hi")}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestChatCompletionAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	_, err := client.ChatCompletion(context.Background(), []Message{TextMessage("user", "hi")})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("err = %v, want status in message", err)
	}
}

func TestTranscribeMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("model") != "transcribe-model" {
			t.Errorf("model = %q", r.FormValue("model"))
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			defer file.Close()
			if header.Filename != "clip.webm" {
				t.Errorf("filename = %q", header.Filename)
			}
			data, _ := io.ReadAll(file)
			if !bytes.Equal(data, []byte("audio-bytes")) {
				t.Errorf("file content = %q", data)
			}
		}
		_, _ = io.WriteString(w, `{"text":" hello world "}`)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, TranscribeModel: "transcribe-model"})
	text, err := client.Transcribe(context.Background(), []byte("audio-bytes"), "clip.webm")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("text = %q", text)
	}
}

func TestSpeakReturnsAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode: %v", err)
		}
		if payload["voice"] != "alloy" || payload["input"] != "hello" {
			t.Errorf("payload = %v", payload)
		}
		_, _ = w.Write([]byte{0xff, 0xfb, 0x90})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, SpeechModel: "tts-model", SpeechVoice: "alloy"})
	audio, err := client.Speak(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if len(audio) != 3 {
		t.Fatalf("audio length = %d", len(audio))
	}
}
