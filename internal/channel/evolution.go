// Package channel holds the WhatsApp-facing surface: the Evolution API
// client and the webhook HTTP server events arrive on.
package channel

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/publicars/botdevendas/internal/config"
	"github.com/publicars/botdevendas/internal/domain"
)

// Evolution implements domain.Gateway against an Evolution API instance.
type Evolution struct {
	cfg    config.EvolutionConfig
	logger *slog.Logger
	client *http.Client
}

type EvolutionClientConfig struct {
	Config config.EvolutionConfig
	Logger *slog.Logger
}

func NewEvolution(cfg EvolutionClientConfig) *Evolution {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Evolution{
		cfg:    cfg.Config,
		logger: logger,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// SendText delivers a text message. typingFor is surfaced to the recipient as
// a "composing" presence before the message lands.
func (e *Evolution) SendText(ctx context.Context, recipientJID, text string, typingFor time.Duration) error {
	payload := map[string]any{
		"number": recipientJID,
		"options": map[string]any{
			"delay":    typingFor.Milliseconds(),
			"presence": "composing",
		},
		"text": text,
	}

	var resp json.RawMessage
	if err := e.post(ctx, "/message/sendText/"+e.cfg.Instance, payload, &resp); err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	e.logger.Debug("text sent", "to", recipientJID, "len", len(text))
	return nil
}

// MarkRead flags the message as read so the customer sees the blue ticks.
func (e *Evolution) MarkRead(ctx context.Context, key domain.MessageKey) error {
	payload := map[string]any{
		"readMessages": []map[string]any{
			{
				"remoteJid": key.RemoteJID,
				"fromMe":    key.FromMe,
				"id":        key.ID,
			},
		},
	}

	if err := e.post(ctx, "/chat/markMessageAsRead/"+e.cfg.Instance, payload, nil); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// FetchMedia downloads the decoded bytes of a media message by its ID.
func (e *Evolution) FetchMedia(ctx context.Context, messageID string) (domain.Media, error) {
	payload := map[string]any{
		"message": map[string]any{
			"key": map[string]any{"id": messageID},
		},
		"convertToMp4": false,
	}

	var result struct {
		Base64   string `json:"base64"`
		Mimetype string `json:"mimetype"`
	}
	if err := e.post(ctx, "/chat/getBase64FromMediaMessage/"+e.cfg.Instance, payload, &result); err != nil {
		return domain.Media{}, fmt.Errorf("fetch media: %w", err)
	}
	if result.Base64 == "" {
		return domain.Media{}, fmt.Errorf("fetch media: empty base64 for message %s", messageID)
	}

	data, err := base64.StdEncoding.DecodeString(result.Base64)
	if err != nil {
		return domain.Media{}, fmt.Errorf("fetch media: decode base64: %w", err)
	}

	return domain.Media{Data: data, Mimetype: result.Mimetype}, nil
}

func (e *Evolution) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.cfg.APIURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", e.cfg.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("evolution API %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
