package files

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		mimetype string
		want     string
	}{
		{"image/jpeg", "jpg"},
		{"image/png", "png"},
		{"application/pdf", "pdf"},
		{"audio/ogg; codecs=opus", "ogg"},
		{"AUDIO/MPEG", "mp3"},
		{"application/x-unknown", "bin"},
		{"", "bin"},
	}
	for _, tt := range tests {
		if got := ExtensionFor(tt.mimetype); got != tt.want {
			t.Errorf("ExtensionFor(%q) = %q, want %q", tt.mimetype, got, tt.want)
		}
	}
}

func TestPersistWritesFileAndBuildsURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(StoreConfig{Dir: dir, PublicBaseURL: "https://bot.example.com/"})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	url, err := store.Persist(context.Background(), []byte("hello"), "image/jpeg", "+5551999887766")
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}

	if !strings.HasPrefix(url, "https://bot.example.com/uploads/") {
		t.Errorf("unexpected URL prefix: %s", url)
	}
	name := strings.TrimPrefix(url, "https://bot.example.com/uploads/")
	if !strings.HasPrefix(name, "5551999887766_") {
		t.Errorf("name should start with owner digits: %s", name)
	}
	if !strings.HasSuffix(name, ".jpg") {
		t.Errorf("name should carry the jpg extension: %s", name)
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("reading persisted file: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("persisted content = %q, want %q", data, "hello")
	}
}

func TestPersistUniqueNames(t *testing.T) {
	store, err := NewStore(StoreConfig{Dir: t.TempDir(), PublicBaseURL: "http://localhost:8080"})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		url, err := store.Persist(context.Background(), []byte("x"), "application/pdf", "+5511988887777")
		if err != nil {
			t.Fatalf("Persist: %v", err)
		}
		if seen[url] {
			t.Fatalf("duplicate URL generated: %s", url)
		}
		seen[url] = true
	}
}

func TestPersistRejectsEmptyData(t *testing.T) {
	store, err := NewStore(StoreConfig{Dir: t.TempDir(), PublicBaseURL: "http://localhost:8080"})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.Persist(context.Background(), nil, "image/png", "+55"); err == nil {
		t.Error("expected error for empty data")
	}
}
