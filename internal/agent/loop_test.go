package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/publicars/botdevendas/internal/domain"
	"github.com/publicars/botdevendas/internal/tool"
)

type scriptedTool struct {
	name   string
	result string
	err    error
	calls  []map[string]any
}

func (t *scriptedTool) Name() string                { return t.name }
func (t *scriptedTool) Description() string         { return "scripted" }
func (t *scriptedTool) Parameters() map[string]any  { return map[string]any{"type": "object"} }
func (t *scriptedTool) Execute(_ context.Context, args map[string]any) (string, error) {
	t.calls = append(t.calls, args)
	return t.result, t.err
}

func newTestLoop(p domain.Provider, tools ...domain.Tool) *Loop {
	reg := tool.NewRegistry(slog.Default())
	for _, t := range tools {
		reg.Register(t)
	}
	return NewLoop(LoopConfig{Provider: p, Tools: reg, MaxIterations: 5})
}

func TestLoopDirectAnswer(t *testing.T) {
	p := &fakeProvider{responses: []*domain.ChatResponse{
		{Content: "Olá! Posso ajudar?", FinishReason: "stop"},
	}}
	loop := newTestLoop(p)

	out, err := loop.Run(context.Background(), []domain.Message{{Role: "user", Content: "oi"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "Olá! Posso ajudar?" {
		t.Errorf("out = %q", out)
	}
	if len(p.requests) != 1 {
		t.Errorf("provider called %d times, want 1", len(p.requests))
	}
}

func TestLoopToolRoundtrip(t *testing.T) {
	faq := &scriptedTool{name: "buscar_faq", result: "A instalação leva 40 minutos."}
	p := &fakeProvider{responses: []*domain.ChatResponse{
		{
			FinishReason: "tool_calls",
			ToolCalls: []domain.ToolCall{
				{ID: "call_1", Name: "buscar_faq", Arguments: map[string]any{"pergunta": "instalação"}},
			},
		},
		{Content: "A instalação leva uns 40 minutinhos!", FinishReason: "stop"},
	}}
	loop := newTestLoop(p, faq)

	out, err := loop.Run(context.Background(), []domain.Message{{Role: "user", Content: "quanto demora?"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "A instalação leva uns 40 minutinhos!" {
		t.Errorf("out = %q", out)
	}
	if len(faq.calls) != 1 {
		t.Fatalf("tool called %d times, want 1", len(faq.calls))
	}

	// Second request must replay the tool result.
	second := p.requests[1]
	last := second.Messages[len(second.Messages)-1]
	if last.Role != "tool" || last.ToolCallID != "call_1" {
		t.Errorf("last message = %+v", last)
	}
	if last.Content != "A instalação leva 40 minutos." {
		t.Errorf("tool result = %q", last.Content)
	}
}

func TestLoopToolErrorFoldedIntoResult(t *testing.T) {
	broken := &scriptedTool{name: "buscar_faq", err: errors.New("db down")}
	p := &fakeProvider{responses: []*domain.ChatResponse{
		{
			FinishReason: "tool_calls",
			ToolCalls:    []domain.ToolCall{{ID: "c1", Name: "buscar_faq", Arguments: map[string]any{}}},
		},
		{Content: "Vou verificar e te retorno!", FinishReason: "stop"},
	}}
	loop := newTestLoop(p, broken)

	out, err := loop.Run(context.Background(), []domain.Message{{Role: "user", Content: "?"}})
	if err != nil {
		t.Fatalf("tool errors must not abort the loop: %v", err)
	}
	if out != "Vou verificar e te retorno!" {
		t.Errorf("out = %q", out)
	}

	last := p.requests[1].Messages[len(p.requests[1].Messages)-1]
	if !strings.Contains(last.Content, "Erro ao executar buscar_faq") {
		t.Errorf("tool result should carry the error: %q", last.Content)
	}
}

func TestLoopProviderError(t *testing.T) {
	p := &fakeProvider{err: errors.New("rate limited")}
	loop := newTestLoop(p)

	if _, err := loop.Run(context.Background(), []domain.Message{{Role: "user", Content: "oi"}}); err == nil {
		t.Error("expected provider errors to surface")
	}
}

func TestLoopIterationCap(t *testing.T) {
	echo := &scriptedTool{name: "echo", result: "x"}
	// Every response keeps requesting tools, so the loop must give up.
	resp := &domain.ChatResponse{
		FinishReason: "tool_calls",
		ToolCalls:    []domain.ToolCall{{ID: "c", Name: "echo", Arguments: map[string]any{}}},
	}
	p := &fakeProvider{responses: []*domain.ChatResponse{resp, resp, resp, resp, resp}}
	loop := newTestLoop(p, echo)

	if _, err := loop.Run(context.Background(), []domain.Message{{Role: "user", Content: "oi"}}); err == nil {
		t.Error("expected error when the iteration cap is hit")
	}
}
