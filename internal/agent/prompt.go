package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/publicars/botdevendas/internal/catalog"
	"github.com/publicars/botdevendas/internal/domain"
)

// SilenceMarker is the sentinel the model emits when the conversation
// should not receive any reply (spam, wrong number, closed deal follow-up).
const SilenceMarker = "[SILENCE]"

// SystemNoticePrefix marks synthetic inputs describing received files, so
// the model knows the text did not come from the customer verbatim.
const SystemNoticePrefix = "[SISTEMA]"

// PromptBuilder renders the sales persona system prompt.
type PromptBuilder struct {
	catalog  *catalog.Catalog
	location *time.Location
	now      func() time.Time
}

func NewPromptBuilder(cat *catalog.Catalog, loc *time.Location) *PromptBuilder {
	if loc == nil {
		loc = time.UTC
	}
	return &PromptBuilder{
		catalog:  cat,
		location: loc,
		now:      time.Now,
	}
}

// BuildSystemPrompt renders the full instruction set for one conversation.
func (p *PromptBuilder) BuildSystemPrompt(personaName, customerKey string, profile *domain.CustomerProfile) string {
	var b strings.Builder

	today := p.now().In(p.location).Format("02/01/2006")

	fmt.Fprintf(&b, `Você é %s, consultor(a) de vendas da Publicars, empresa de mídia OOH que exibe anúncios em telas instaladas dentro de carros de aplicativo (Uber, 99) na região metropolitana de Porto Alegre.

Data de hoje: %s.
Telefone do cliente nesta conversa: %s.

## Planos mensais
`, personaName, today, customerKey)

	for _, plan := range p.catalog.Plans {
		fmt.Fprintf(&b, "- %s: %s — %d carro(s), ~%s visualizações/mês.",
			plan.Name, plan.Price, plan.Cars, catalog.FormatViews(plan.MonthlyViews))
		if plan.Note != "" {
			b.WriteString(" " + plan.Note)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, `
## Cobertura
Atendemos: %s.

## Regras de ouro
1. Responda sempre em português brasileiro, de forma curta e natural, como uma conversa de WhatsApp. Nunca use listas longas nem formatação pesada.
2. Nunca revele que você é uma inteligência artificial. Você é %s, uma pessoa da equipe comercial.
3. Use a ferramenta buscar_faq para dúvidas técnicas (instalação, contrato, pagamento, telas) antes de responder por conta própria.
4. Quando o cliente quiser fechar um plano, colete nome, empresa e plano de interesse e use registrar_lead_anunciante.
5. Quando um motorista quiser instalar a tela no carro, colete os dados dele e do veículo e use registrar_lead_motorista.
6. Para perguntas de alcance ("quantas pessoas vão ver?"), use calcular_alcance_campanha.
7. Se a mensagem for spam, engano de número ou não exigir resposta alguma, responda apenas com %s e nada mais.
8. Mensagens começando com %s descrevem arquivos que o cliente enviou; trate-as como contexto, não como texto do cliente.
9. Se o cliente pedir atendimento humano ou você não conseguir resolver, passe o telefone %s.
`,
		strings.Join(p.catalog.Regions, ", "),
		personaName,
		SilenceMarker,
		SystemNoticePrefix,
		p.catalog.HumanSupportPhone,
	)

	if profile != nil && profile.DisplayName != "" {
		fmt.Fprintf(&b, "\n## Cliente já cadastrado\nNome: %s.", profile.DisplayName)
		if profile.Company != "" {
			fmt.Fprintf(&b, " Empresa: %s.", profile.Company)
		}
		b.WriteString(" Cumprimente pelo nome e não peça dados que você já tem.\n")
	}

	return b.String()
}

// BuildMessages assembles the chat transcript: system prompt, replayed
// history oldest-first, then the new input.
func (p *PromptBuilder) BuildMessages(personaName, customerKey string, profile *domain.CustomerProfile, history []domain.ConversationTurn, input string) []domain.Message {
	messages := make([]domain.Message, 0, len(history)*2+2)
	messages = append(messages, domain.Message{
		Role:    "system",
		Content: p.BuildSystemPrompt(personaName, customerKey, profile),
	})
	for _, turn := range history {
		messages = append(messages,
			domain.Message{Role: "user", Content: turn.UserMessage},
			domain.Message{Role: "assistant", Content: turn.AgentReply},
		)
	}
	messages = append(messages, domain.Message{Role: "user", Content: input})
	return messages
}
