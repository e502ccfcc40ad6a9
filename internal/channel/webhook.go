package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/publicars/botdevendas/internal/domain"
	"github.com/publicars/botdevendas/internal/metrics"
)

const serviceName = "botdevendas"

// InboundHandler consumes normalized webhook events. The pipeline implements it.
type InboundHandler interface {
	Handle(ctx context.Context, event domain.InboundEvent)
}

// ServerConfig configures the webhook HTTP server.
type ServerConfig struct {
	Host       string
	Port       int
	UploadsDir string // served under /uploads/ when non-empty
	Handler    InboundHandler
	Logger     *slog.Logger
}

// Server accepts Evolution API webhook deliveries and serves persisted media.
type Server struct {
	host       string
	port       int
	uploadsDir string
	handler    InboundHandler
	logger     *slog.Logger
	server     *http.Server
}

func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		host:       cfg.Host,
		port:       cfg.Port,
		uploadsDir: cfg.UploadsDir,
		handler:    cfg.Handler,
		logger:     logger,
	}
}

// Router builds the HTTP routes. Exposed separately so tests can drive it
// without binding a port.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/api/evolution_webhook", s.handleWebhook)
	r.Get("/api/health", s.handleHealth)
	r.Get("/metrics", metrics.Collector.Handler())

	if s.uploadsDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadsDir)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}

	return r
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("webhook server starting", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("webhook server: %w", err)
	}
}

// handleWebhook decodes an Evolution delivery, hands it to the pipeline and
// always answers 200 so the gateway never retries.
func (s *Server) handleWebhook(rw http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
	if err != nil {
		s.respond(rw, "ignored")
		return
	}
	defer r.Body.Close()

	var payload evoWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.logger.Warn("webhook bad payload", "err", err)
		s.respond(rw, "ignored")
		return
	}

	event := payload.toEvent()
	if !event.Actionable() {
		s.logger.Debug("webhook event ignored",
			"event", event.Event, "from_me", event.Key.FromMe)
		s.respond(rw, "ignored")
		return
	}

	s.logger.Info("webhook message received",
		"event", event.Event,
		"remote_jid", event.Key.RemoteJID,
		"kind", event.Payload.Kind.String(),
	)

	if s.handler != nil {
		s.handler.Handle(r.Context(), event)
	}

	s.respond(rw, "ok")
}

func (s *Server) handleHealth(rw http.ResponseWriter, _ *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	json.NewEncoder(rw).Encode(map[string]string{
		"status":  "ok",
		"service": serviceName,
	})
}

func (s *Server) respond(rw http.ResponseWriter, status string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)
	json.NewEncoder(rw).Encode(map[string]string{"status": status})
}

// --- Evolution webhook payload types ---

type evoWebhookPayload struct {
	Event    string  `json:"event"`
	Instance string  `json:"instance"`
	Data     evoData `json:"data"`
}

type evoData struct {
	Key     evoKey      `json:"key"`
	Message *evoMessage `json:"message"`
}

type evoKey struct {
	RemoteJID string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

type evoMessage struct {
	Conversation string           `json:"conversation,omitempty"`
	ExtendedText *evoExtendedText `json:"extendedTextMessage,omitempty"`
	Audio        *evoAudio        `json:"audioMessage,omitempty"`
	Image        *evoImage        `json:"imageMessage,omitempty"`
	Document     *evoDocument     `json:"documentMessage,omitempty"`
}

type evoExtendedText struct {
	Text string `json:"text"`
}

type evoAudio struct {
	Mimetype string `json:"mimetype"`
}

type evoImage struct {
	Mimetype string `json:"mimetype"`
	FileName string `json:"fileName"`
	Caption  string `json:"caption"`
}

type evoDocument struct {
	Mimetype string `json:"mimetype"`
	FileName string `json:"fileName"`
	Caption  string `json:"caption"`
}

func (p evoWebhookPayload) toEvent() domain.InboundEvent {
	return domain.InboundEvent{
		Event:    p.Event,
		Instance: p.Instance,
		Key: domain.MessageKey{
			RemoteJID: p.Data.Key.RemoteJID,
			FromMe:    p.Data.Key.FromMe,
			ID:        p.Data.Key.ID,
		},
		Payload: p.Data.classify(),
	}
}

// classify picks the message payload in a fixed priority order. A message
// carrying several parts resolves to the highest-priority one only.
func (d evoData) classify() domain.MessagePayload {
	m := d.Message
	if m == nil {
		return domain.MessagePayload{Kind: domain.PayloadNone}
	}
	switch {
	case m.Conversation != "":
		return domain.MessagePayload{Kind: domain.PayloadText, Text: m.Conversation}
	case m.ExtendedText != nil && m.ExtendedText.Text != "":
		return domain.MessagePayload{Kind: domain.PayloadExtendedText, Text: m.ExtendedText.Text}
	case m.Audio != nil:
		return domain.MessagePayload{Kind: domain.PayloadAudio, Mimetype: m.Audio.Mimetype}
	case m.Image != nil:
		return domain.MessagePayload{
			Kind:     domain.PayloadImage,
			Mimetype: m.Image.Mimetype,
			FileName: m.Image.FileName,
			Caption:  m.Image.Caption,
		}
	case m.Document != nil:
		return domain.MessagePayload{
			Kind:     domain.PayloadDocument,
			Mimetype: m.Document.Mimetype,
			FileName: m.Document.FileName,
			Caption:  m.Document.Caption,
		}
	default:
		return domain.MessagePayload{Kind: domain.PayloadNone}
	}
}
