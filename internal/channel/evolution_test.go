package channel

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/publicars/botdevendas/internal/config"
	"github.com/publicars/botdevendas/internal/domain"
)

func newTestEvolution(url string) *Evolution {
	return NewEvolution(EvolutionClientConfig{
		Config: config.EvolutionConfig{
			APIURL:   url,
			APIKey:   "test-key",
			Instance: "publicars",
		},
	})
}

func TestSendText(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/message/sendText/publicars" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("apikey") != "test-key" {
			t.Errorf("apikey header = %q", r.Header.Get("apikey"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		w.Write([]byte(`{"status":"PENDING"}`))
	}))
	defer srv.Close()

	evo := newTestEvolution(srv.URL)
	err := evo.SendText(context.Background(), "5551999@s.whatsapp.net", "Olá!", 5*time.Second)
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}

	if got["number"] != "5551999@s.whatsapp.net" {
		t.Errorf("number = %v", got["number"])
	}
	if got["text"] != "Olá!" {
		t.Errorf("text = %v", got["text"])
	}
	opts, ok := got["options"].(map[string]any)
	if !ok {
		t.Fatalf("options missing: %v", got)
	}
	if opts["delay"] != float64(5000) {
		t.Errorf("delay = %v, want 5000ms", opts["delay"])
	}
	if opts["presence"] != "composing" {
		t.Errorf("presence = %v", opts["presence"])
	}
}

func TestSendTextAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	evo := newTestEvolution(srv.URL)
	if err := evo.SendText(context.Background(), "5551@s.whatsapp.net", "oi", 0); err == nil {
		t.Error("expected error on 401 response")
	}
}

func TestMarkRead(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/markMessageAsRead/publicars" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	evo := newTestEvolution(srv.URL)
	key := domain.MessageKey{RemoteJID: "5551@s.whatsapp.net", FromMe: false, ID: "MSG1"}
	if err := evo.MarkRead(context.Background(), key); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	msgs, ok := got["readMessages"].([]any)
	if !ok || len(msgs) != 1 {
		t.Fatalf("readMessages = %v", got["readMessages"])
	}
	entry := msgs[0].(map[string]any)
	if entry["remoteJid"] != "5551@s.whatsapp.net" || entry["id"] != "MSG1" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestFetchMedia(t *testing.T) {
	audio := []byte("fake-ogg-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/getBase64FromMediaMessage/publicars" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["convertToMp4"] != false {
			t.Errorf("convertToMp4 = %v", req["convertToMp4"])
		}
		json.NewEncoder(w).Encode(map[string]string{
			"base64":   base64.StdEncoding.EncodeToString(audio),
			"mimetype": "audio/ogg; codecs=opus",
		})
	}))
	defer srv.Close()

	evo := newTestEvolution(srv.URL)
	media, err := evo.FetchMedia(context.Background(), "MSG2")
	if err != nil {
		t.Fatalf("FetchMedia: %v", err)
	}
	if string(media.Data) != string(audio) {
		t.Errorf("data = %q", media.Data)
	}
	if media.Mimetype != "audio/ogg; codecs=opus" {
		t.Errorf("mimetype = %q", media.Mimetype)
	}
}

func TestFetchMediaEmptyBase64(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"base64":""}`))
	}))
	defer srv.Close()

	evo := newTestEvolution(srv.URL)
	if _, err := evo.FetchMedia(context.Background(), "MSG3"); err == nil {
		t.Error("expected error for empty base64")
	}
}
