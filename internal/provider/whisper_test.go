package provider

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart form: %v", err)
		}
		if r.FormValue("model") != "whisper-1" {
			t.Errorf("model = %q", r.FormValue("model"))
		}
		if r.FormValue("language") != "pt" {
			t.Errorf("language = %q", r.FormValue("language"))
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if !strings.HasSuffix(header.Filename, ".ogg") {
			t.Errorf("filename = %q", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "fake-audio" {
			t.Errorf("audio bytes = %q", data)
		}
		w.Write([]byte(`{"text": "Quero anunciar no plano Start"}`))
	}))
	defer srv.Close()

	wsp := NewWhisper(WhisperConfig{APIBase: srv.URL, APIKey: "sk-test", Model: "whisper-1", Language: "pt"})
	text, err := wsp.Transcribe(context.Background(), []byte("fake-audio"), "ogg")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "Quero anunciar no plano Start" {
		t.Errorf("text = %q", text)
	}
}

func TestTranscribeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "bad audio"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	wsp := NewWhisper(WhisperConfig{APIBase: srv.URL, APIKey: "sk-test"})
	if _, err := wsp.Transcribe(context.Background(), []byte("x"), "ogg"); err == nil {
		t.Error("expected error on 400")
	}
}

func TestTranscribeEmptyAudio(t *testing.T) {
	wsp := NewWhisper(WhisperConfig{APIKey: "sk-test"})
	if _, err := wsp.Transcribe(context.Background(), nil, "ogg"); err == nil {
		t.Error("expected error for empty audio")
	}
}
