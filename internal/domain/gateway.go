package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by store lookups that matched nothing and by the
// gateway when a message has no decodable media.
var ErrNotFound = errors.New("not found")

// Media is a decoded attachment fetched from the gateway.
type Media struct {
	Data     []byte
	Mimetype string
}

// Gateway is the WhatsApp messaging surface (Evolution API) the pipeline
// drives. All operations are single outbound HTTP calls; callers log and
// swallow failures.
type Gateway interface {
	// SendText delivers a reply. typingFor is the presence hint shown to
	// the recipient before the message lands.
	SendText(ctx context.Context, recipientJID, text string, typingFor time.Duration) error
	MarkRead(ctx context.Context, key MessageKey) error
	// FetchMedia downloads and decodes the attachment of a message.
	FetchMedia(ctx context.Context, messageID string) (Media, error)
}

// Transcriber converts audio bytes to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, fileExt string) (string, error)
}

// FileStore persists attachment bytes and returns a publicly resolvable URL.
type FileStore interface {
	Persist(ctx context.Context, data []byte, mimetype, ownerKey string) (string, error)
}
