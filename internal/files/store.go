// Package files persists received media to a local uploads directory and
// hands back the public URL it is served under.
package files

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// extByMimetype maps the media types the gateway delivers to file
// extensions. Anything unknown falls back to "bin".
var extByMimetype = map[string]string{
	"image/jpeg":         "jpg",
	"image/png":          "png",
	"image/webp":         "webp",
	"image/gif":          "gif",
	"application/pdf":    "pdf",
	"audio/ogg":          "ogg",
	"audio/aac":          "aac",
	"audio/mp4":          "m4a",
	"audio/mpeg":         "mp3",
	"audio/wav":          "wav",
	"audio/webm":         "webm",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"application/vnd.ms-excel": "xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": "xlsx",
	"text/plain": "txt",
}

type StoreConfig struct {
	Dir           string
	PublicBaseURL string
	Logger        *slog.Logger
}

// Store writes media blobs under a single directory with collision-free
// names and builds the URL each file is reachable at.
type Store struct {
	dir     string
	baseURL string
	logger  *slog.Logger
}

func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("uploads directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create uploads directory %s: %w", cfg.Dir, err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:     cfg.Dir,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:  logger,
	}, nil
}

// Dir returns the directory files are written to, for serving it over HTTP.
func (s *Store) Dir() string {
	return s.dir
}

// Persist writes the blob to disk and returns its public URL. The name
// embeds the owner's digits, the current time and a random suffix so two
// files from the same customer in the same instant never collide.
func (s *Store) Persist(ctx context.Context, data []byte, mimetype, ownerKey string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("refusing to persist empty file")
	}

	name := fmt.Sprintf("%s_%d_%s.%s",
		ownerDigits(ownerKey),
		time.Now().UnixNano(),
		uuid.NewString()[:8],
		ExtensionFor(mimetype),
	)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("cannot write file %s: %w", path, err)
	}

	url := s.baseURL + "/uploads/" + name
	s.logger.Debug("file persisted", "name", name, "bytes", len(data), "mimetype", mimetype)
	return url, nil
}

// ExtensionFor picks a file extension for a media type. Parameters after a
// ";" (codecs, charset) are ignored.
func ExtensionFor(mimetype string) string {
	mt := strings.TrimSpace(mimetype)
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if ext, ok := extByMimetype[strings.ToLower(mt)]; ok {
		return ext
	}
	return "bin"
}

// ownerDigits keeps only the digits of a customer key so the name stays
// filesystem-safe.
func ownerDigits(key string) string {
	var b strings.Builder
	for _, r := range key {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
