package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/publicars/botdevendas/internal/domain"
	"github.com/publicars/botdevendas/internal/metrics"
)

// transcriptionErrorMarker is the legacy in-band failure sentinel. It is
// checked defensively so a transcript carrying it is never forwarded to
// the model as customer speech.
const transcriptionErrorMarker = "[ERRO DE TRANSCRIÇÃO]"

// audioExtByMimetype maps audio media types to the container extension the
// transcription endpoint expects.
var audioExtByMimetype = map[string]string{
	"audio/ogg":  "ogg",
	"audio/aac":  "aac",
	"audio/mp4":  "m4a",
	"audio/mpeg": "mp3",
	"audio/wav":  "wav",
	"audio/webm": "webm",
}

// Normalizer turns an inbound event into the single text the agent sees.
// Attachment handling is best-effort: any failure yields no input rather
// than an error reply.
type Normalizer struct {
	gateway     domain.Gateway
	transcriber domain.Transcriber
	files       domain.FileStore
	logger      *slog.Logger
}

type NormalizerConfig struct {
	Gateway     domain.Gateway
	Transcriber domain.Transcriber
	Files       domain.FileStore
	Logger      *slog.Logger
}

func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		gateway:     cfg.Gateway,
		transcriber: cfg.Transcriber,
		files:       cfg.Files,
		logger:      logger,
	}
}

// Normalize derives the canonical input for an event. A zero Input means
// the event produced nothing actionable and the pipeline stops silently.
func (n *Normalizer) Normalize(ctx context.Context, event domain.InboundEvent) domain.Input {
	switch event.Payload.Kind {
	case domain.PayloadText, domain.PayloadExtendedText:
		// The text is forwarded untouched; only whitespace-only payloads
		// count as no input.
		if strings.TrimSpace(event.Payload.Text) == "" {
			return domain.Input{}
		}
		return domain.Input{Kind: domain.InputText, Text: event.Payload.Text}

	case domain.PayloadAudio:
		return n.normalizeAudio(ctx, event)

	case domain.PayloadImage, domain.PayloadDocument:
		return n.normalizeAttachment(ctx, event)

	default:
		return domain.Input{}
	}
}

func (n *Normalizer) normalizeAudio(ctx context.Context, event domain.InboundEvent) domain.Input {
	media, err := n.gateway.FetchMedia(ctx, event.Key.ID)
	if err != nil {
		n.logger.Error("audio download failed", "err", err, "message_id", event.Key.ID)
		return domain.Input{}
	}

	mimetype := media.Mimetype
	if mimetype == "" {
		mimetype = event.Payload.Mimetype
	}

	transcript, err := n.transcriber.Transcribe(ctx, media.Data, audioExt(mimetype))
	if err != nil {
		n.logger.Error("transcription failed", "err", err, "message_id", event.Key.ID)
		return domain.Input{}
	}
	if strings.TrimSpace(transcript) == "" || strings.Contains(transcript, transcriptionErrorMarker) {
		n.logger.Warn("transcription produced no usable text", "message_id", event.Key.ID)
		return domain.Input{}
	}

	metrics.Transcriptions.Inc()
	return domain.Input{Kind: domain.InputTranscript, Text: strings.TrimSpace(transcript)}
}

func (n *Normalizer) normalizeAttachment(ctx context.Context, event domain.InboundEvent) domain.Input {
	media, err := n.gateway.FetchMedia(ctx, event.Key.ID)
	if err != nil {
		n.logger.Error("attachment download failed", "err", err, "message_id", event.Key.ID)
		return domain.Input{}
	}

	mimetype := media.Mimetype
	if mimetype == "" {
		mimetype = event.Payload.Mimetype
	}

	url, err := n.files.Persist(ctx, media.Data, mimetype, domain.CustomerKey(event.Key.RemoteJID))
	if err != nil {
		n.logger.Error("attachment persist failed", "err", err, "message_id", event.Key.ID)
		return domain.Input{}
	}

	metrics.FilesPersisted.Inc()
	return domain.Input{
		Kind: domain.InputFileNotice,
		Text: fileNotice(event.Payload, url),
	}
}

// fileNotice builds the synthetic description the agent receives for a file.
func fileNotice(p domain.MessagePayload, url string) string {
	var b strings.Builder
	b.WriteString(SystemNoticePrefix + " O cliente enviou ")
	if p.Kind == domain.PayloadImage {
		b.WriteString("uma imagem")
	} else {
		b.WriteString("um documento")
	}
	if p.FileName != "" {
		fmt.Fprintf(&b, " (%s)", p.FileName)
	}
	if p.Caption != "" {
		fmt.Fprintf(&b, " com a legenda: %q", p.Caption)
	}
	fmt.Fprintf(&b, ". Arquivo disponível em: %s", url)
	return b.String()
}

func audioExt(mimetype string) string {
	mt := strings.ToLower(strings.TrimSpace(mimetype))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if ext, ok := audioExtByMimetype[mt]; ok {
		return ext
	}
	return "ogg"
}
