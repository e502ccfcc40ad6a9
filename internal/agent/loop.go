// Package agent implements the reply pipeline: normalize the inbound
// event, run the tool-calling loop against the model, and deliver the
// reply with a humanized delay.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/publicars/botdevendas/internal/domain"
	"github.com/publicars/botdevendas/internal/metrics"
	"github.com/publicars/botdevendas/internal/tool"
)

const (
	defaultMaxIterations = 8
	defaultLLMMaxTokens  = 1024
)

// Loop runs the model until it stops requesting tools.
type Loop struct {
	provider      domain.Provider
	tools         *tool.Registry
	logger        *slog.Logger
	maxIterations int
	temperature   float64
}

type LoopConfig struct {
	Provider      domain.Provider
	Tools         *tool.Registry
	Logger        *slog.Logger
	MaxIterations int
	Temperature   float64
}

func NewLoop(cfg LoopConfig) *Loop {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		provider:      cfg.Provider,
		tools:         cfg.Tools,
		logger:        logger,
		maxIterations: cfg.MaxIterations,
		temperature:   cfg.Temperature,
	}
}

// Run drives the call → tool → call cycle and returns the final text.
// Tool failures are folded into tool results so the model can recover;
// provider failures end the loop.
func (l *Loop) Run(ctx context.Context, messages []domain.Message) (string, error) {
	var toolDefs []domain.ToolDefinition
	if l.tools != nil {
		toolDefs = l.tools.Definitions()
	}

	for iteration := 0; iteration < l.maxIterations; iteration++ {
		l.logger.Debug("agent iteration", "iteration", iteration+1, "messages", len(messages))

		start := time.Now()
		resp, err := l.provider.Chat(ctx, domain.ChatRequest{
			Messages:    messages,
			Tools:       toolDefs,
			MaxTokens:   defaultLLMMaxTokens,
			Temperature: l.temperature,
		})
		metrics.LLMRequestsTotal.Inc()
		metrics.LLMLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			return "", fmt.Errorf("LLM error: %w", err)
		}

		if !resp.HasToolCalls() {
			return resp.Content, nil
		}

		messages = append(messages, domain.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		// Tools run one at a time: every sales tool writes to the same
		// store and the calls are cheap.
		for _, tc := range resp.ToolCalls {
			l.logger.Info("executing tool", "tool", tc.Name)
			result, toolErr := l.tools.Execute(ctx, tc.Name, tc.Arguments)
			if toolErr != nil {
				l.logger.Error("tool failed", "err", toolErr, "tool", tc.Name)
				result = fmt.Sprintf("Erro ao executar %s: %s", tc.Name, toolErr.Error())
			}
			messages = append(messages, domain.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: tc.ID,
				ToolName:   tc.Name,
			})
		}
	}

	return "", fmt.Errorf("agent loop exceeded %d iterations without a final answer", l.maxIterations)
}
