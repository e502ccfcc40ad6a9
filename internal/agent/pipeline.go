package agent

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/publicars/botdevendas/internal/domain"
	"github.com/publicars/botdevendas/internal/metrics"
	"github.com/publicars/botdevendas/internal/tool"
)

// apologyReply is sent when the model cannot produce an answer at all.
const apologyReply = "Desculpe, estou atualizando meus sistemas. Tente novamente em 1 minuto! 🛠️"

// presenceWindow is how long the recipient sees "typing..." right before the
// message lands.
const presenceWindow = 1200 * time.Millisecond

// Pipeline handles one inbound event end to end. It implements
// channel.InboundHandler; the webhook server calls it synchronously per
// delivery.
type Pipeline struct {
	normalizer *Normalizer
	store      domain.MemoryStore
	gateway    domain.Gateway
	loop       *Loop
	prompts    *PromptBuilder
	personas   []string
	logger     *slog.Logger

	historyLimit int
	delayMin     time.Duration
	delayMax     time.Duration

	// injected for tests
	sleep    func(time.Duration)
	randomIn func(min, max time.Duration) time.Duration
}

type PipelineConfig struct {
	Normalizer   *Normalizer
	Store        domain.MemoryStore
	Gateway      domain.Gateway
	Loop         *Loop
	Prompts      *PromptBuilder
	Personas     []string
	Logger       *slog.Logger
	HistoryLimit int
	DelayMin     time.Duration
	DelayMax     time.Duration
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 6
	}
	if cfg.DelayMax < cfg.DelayMin {
		cfg.DelayMax = cfg.DelayMin
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		normalizer:   cfg.Normalizer,
		store:        cfg.Store,
		gateway:      cfg.Gateway,
		loop:         cfg.Loop,
		prompts:      cfg.Prompts,
		personas:     cfg.Personas,
		logger:       logger,
		historyLimit: cfg.HistoryLimit,
		delayMin:     cfg.DelayMin,
		delayMax:     cfg.DelayMax,
		sleep:        time.Sleep,
		randomIn:     randomDuration,
	}
}

// Handle runs the full reply pipeline for one event. It never returns an
// error: everything downstream of normalization degrades per call site.
func (p *Pipeline) Handle(ctx context.Context, event domain.InboundEvent) {
	metrics.MessagesTotal.Inc()

	input := p.normalizer.Normalize(ctx, event)
	if input.None() {
		p.logger.Debug("event produced no input", "message_id", event.Key.ID)
		return
	}

	customerKey := domain.CustomerKey(event.Key.RemoteJID)

	if err := p.gateway.MarkRead(ctx, event.Key); err != nil {
		p.logger.Warn("mark read failed", "err", err, "customer", customerKey)
	}

	history, err := p.store.RecentTurns(ctx, customerKey, p.historyLimit)
	if err != nil {
		p.logger.Warn("history load failed, continuing without it", "err", err, "customer", customerKey)
		history = nil
	}
	profile, err := p.store.Profile(ctx, customerKey)
	if err != nil {
		p.logger.Warn("profile load failed, continuing without it", "err", err, "customer", customerKey)
		profile = nil
	}

	persona := PersonaFor(customerKey, p.personas)
	messages := p.prompts.BuildMessages(persona, customerKey, profile, history, input.Text)

	reply, err := p.loop.Run(tool.WithSession(ctx, customerKey), messages)
	if err != nil {
		p.logger.Error("agent run failed", "err", err, "customer", customerKey)
		reply = apologyReply
	}

	if strings.Contains(reply, SilenceMarker) {
		metrics.RepliesSuppressed.Inc()
		p.logger.Info("reply suppressed", "customer", customerKey)
		return
	}
	if strings.TrimSpace(reply) == "" {
		reply = apologyReply
	}

	if err := p.store.AppendTurn(ctx, domain.ConversationTurn{
		CustomerKey: customerKey,
		UserMessage: input.Text,
		AgentReply:  reply,
		CreatedAt:   time.Now(),
	}); err != nil {
		p.logger.Warn("history append failed", "err", err, "customer", customerKey)
	}

	delay := p.randomIn(p.delayMin, p.delayMax)
	if delay > 0 {
		p.sleep(delay)
	}

	if err := p.gateway.SendText(ctx, event.Key.RemoteJID, reply, presenceWindow); err != nil {
		p.logger.Error("reply delivery failed", "err", err, "customer", customerKey)
		return
	}

	metrics.RepliesSent.Inc()
	p.logger.Info("reply sent",
		"customer", customerKey,
		"input_kind", input.Kind,
		"delay_ms", delay.Milliseconds(),
		"reply_len", len(reply),
	)
}

// randomDuration picks a uniform duration in [min, max].
func randomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}
