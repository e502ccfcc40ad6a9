package tool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/publicars/botdevendas/internal/catalog"
	"github.com/publicars/botdevendas/internal/domain"
)

// FAQSearch answers technical questions from the knowledge base.
type FAQSearch struct {
	store  domain.MemoryStore
	logger *slog.Logger
}

func NewFAQSearch(store domain.MemoryStore, logger *slog.Logger) *FAQSearch {
	return &FAQSearch{store: store, logger: logger}
}

func (t *FAQSearch) Name() string { return "buscar_faq" }

func (t *FAQSearch) Description() string {
	return "Busca respostas técnicas sobre a Publicars na base de conhecimento (instalação, contrato, pagamento, funcionamento das telas)."
}

func (t *FAQSearch) Parameters() map[string]any {
	return ToolParameters(map[string]Param{
		"pergunta": {Type: "string", Description: "A dúvida técnica do cliente, em poucas palavras"},
	}, []string{"pergunta"})
}

func (t *FAQSearch) Execute(ctx context.Context, args map[string]any) (string, error) {
	query := ArgsString(args, "pergunta")
	answer, err := t.store.SearchFAQ(ctx, query)
	if errors.Is(err, domain.ErrNotFound) {
		return "Não encontrei essa informação técnica específica no banco, use seu conhecimento geral sobre a Publicars.", nil
	}
	if err != nil {
		t.logger.Error("faq search failed", "err", err, "query", query)
		return "Erro ao buscar FAQ.", nil
	}
	return answer, nil
}

// AdvertiserLead registers a new advertiser lead in the CRM.
type AdvertiserLead struct {
	store  domain.MemoryStore
	logger *slog.Logger
}

func NewAdvertiserLead(store domain.MemoryStore, logger *slog.Logger) *AdvertiserLead {
	return &AdvertiserLead{store: store, logger: logger}
}

func (t *AdvertiserLead) Name() string { return "registrar_lead_anunciante" }

func (t *AdvertiserLead) Description() string {
	return "Registra um novo lead de ANUNCIANTE quando o cliente demonstra interesse em fechar um plano. Use assim que tiver nome, empresa e plano de interesse."
}

func (t *AdvertiserLead) Parameters() map[string]any {
	return ToolParameters(map[string]Param{
		"nome":            {Type: "string", Description: "Nome completo do cliente"},
		"empresa":         {Type: "string", Description: "Nome da empresa do cliente"},
		"interesse_plano": {Type: "string", Description: "Plano de interesse (Piloto, Start, Aceleração, Turbo ou Dominador)"},
		"telefone":        {Type: "string", Description: "Telefone de contato do cliente"},
	}, []string{"nome", "interesse_plano"})
}

func (t *AdvertiserLead) Execute(ctx context.Context, args map[string]any) (string, error) {
	sessionID, _ := ctx.Value(SessionKey).(string)
	lead := domain.Lead{
		FullName:       ArgsString(args, "nome"),
		Company:        ArgsString(args, "empresa"),
		ServiceDesired: ArgsString(args, "interesse_plano"),
		SessionID:      sessionID,
		ContactNumber:  ArgsString(args, "telefone"),
		Status:         domain.LeadStatusAdvertiser,
	}
	if lead.ContactNumber == "" {
		lead.ContactNumber = sessionID
	}
	if err := t.store.InsertLead(ctx, lead); err != nil {
		t.logger.Error("advertiser lead insert failed", "err", err, "session", sessionID)
		return "Erro ao salvar seus dados, mas anotei aqui manualmente.", nil
	}
	return "✅ Lead de Anunciante registrado com sucesso! A equipe comercial entrará em contato em breve.", nil
}

// DriverLead registers a partner-driver signup in the CRM.
type DriverLead struct {
	store  domain.MemoryStore
	logger *slog.Logger
}

func NewDriverLead(store domain.MemoryStore, logger *slog.Logger) *DriverLead {
	return &DriverLead{store: store, logger: logger}
}

func (t *DriverLead) Name() string { return "registrar_lead_motorista" }

func (t *DriverLead) Description() string {
	return "Registra um novo MOTORISTA PARCEIRO interessado em instalar a tela no carro. Use assim que tiver os dados do motorista e do veículo."
}

func (t *DriverLead) Parameters() map[string]any {
	return ToolParameters(map[string]Param{
		"nome":         {Type: "string", Description: "Nome completo do motorista"},
		"telefone":     {Type: "string", Description: "Telefone de contato"},
		"cidade":       {Type: "string", Description: "Cidade onde roda"},
		"estado":       {Type: "string", Description: "Estado (UF)"},
		"modelo_carro": {Type: "string", Description: "Modelo do carro"},
		"placa":        {Type: "string", Description: "Placa do veículo"},
		"aplicativos":  {Type: "string", Description: "Aplicativos em que dirige (Uber, 99, etc.)"},
	}, []string{"nome"})
}

func (t *DriverLead) Execute(ctx context.Context, args map[string]any) (string, error) {
	sessionID, _ := ctx.Value(SessionKey).(string)

	details := []string{}
	for _, f := range []struct{ label, key string }{
		{"Cidade", "cidade"},
		{"Estado", "estado"},
		{"Carro", "modelo_carro"},
		{"Placa", "placa"},
		{"Apps", "aplicativos"},
	} {
		if v := ArgsString(args, f.key); v != "" {
			details = append(details, f.label+": "+v)
		}
	}

	lead := domain.Lead{
		FullName:       ArgsString(args, "nome"),
		ServiceDesired: "Motorista Parceiro" + formatDetails(details),
		SessionID:      sessionID,
		ContactNumber:  ArgsString(args, "telefone"),
		Status:         domain.LeadStatusDriver,
	}
	if lead.ContactNumber == "" {
		lead.ContactNumber = sessionID
	}
	if err := t.store.InsertLead(ctx, lead); err != nil {
		t.logger.Error("driver lead insert failed", "err", err, "session", sessionID)
		return "Erro ao salvar seus dados, mas anotei aqui manualmente.", nil
	}
	return "✅ Cadastro de Motorista Parceiro registrado com sucesso! A equipe entrará em contato para agendar a instalação.", nil
}

func formatDetails(details []string) string {
	if len(details) == 0 {
		return ""
	}
	return " (" + strings.Join(details, ", ") + ")"
}

// CampaignReach estimates monthly views for a plan.
type CampaignReach struct {
	catalog *catalog.Catalog
}

func NewCampaignReach(cat *catalog.Catalog) *CampaignReach {
	return &CampaignReach{catalog: cat}
}

func (t *CampaignReach) Name() string { return "calcular_alcance_campanha" }

func (t *CampaignReach) Description() string {
	return "Calcula o alcance estimado (visualizações mensais) de um plano de anúncio pelo nome do plano."
}

func (t *CampaignReach) Parameters() map[string]any {
	return ToolParameters(map[string]Param{
		"plano": {Type: "string", Description: "Nome do plano (Piloto, Start, Aceleração, Turbo ou Dominador)"},
	}, []string{"plano"})
}

func (t *CampaignReach) Execute(_ context.Context, args map[string]any) (string, error) {
	name := ArgsString(args, "plano")
	plan, ok := t.catalog.FindPlan(name)
	if !ok {
		return fmt.Sprintf(
			"Para este plano personalizado não tenho o alcance tabelado, mas a média é de %s views por carro/mês.",
			catalog.FormatViews(t.catalog.ViewsPerCar),
		), nil
	}
	return fmt.Sprintf(
		"O plano %s roda em %d carro(s) e alcança cerca de %s visualizações por mês.",
		plan.Name, plan.Cars, catalog.FormatViews(plan.MonthlyViews),
	), nil
}

// contextKey scopes context values owned by this package.
type contextKey string

// SessionKey carries the customer key of the conversation a tool call
// belongs to. The agent loop sets it before executing tools.
const SessionKey contextKey = "session"

// WithSession returns a context carrying the customer key for tool calls.
func WithSession(ctx context.Context, customerKey string) context.Context {
	return context.WithValue(ctx, SessionKey, customerKey)
}
