package domain

import (
	"context"
	"time"
)

// MemoryStore is the relational store behind the pipeline and the sales
// tools. Every read in the reply path is best-effort: callers treat a
// failure as "no memory", never as a fatal error.
type MemoryStore interface {
	// RecentTurns returns up to limit completed turns for a customer,
	// oldest first, ready to replay as alternating user/assistant context.
	RecentTurns(ctx context.Context, customerKey string, limit int) ([]ConversationTurn, error)
	// Profile returns the known profile for a customer, or nil when the
	// customer has never been registered by a sales tool.
	Profile(ctx context.Context, customerKey string) (*CustomerProfile, error)
	AppendTurn(ctx context.Context, turn ConversationTurn) error

	InsertLead(ctx context.Context, lead Lead) error
	// SearchFAQ returns the stored answer best matching the query, or
	// ErrNotFound when the knowledge base has nothing for it.
	SearchFAQ(ctx context.Context, query string) (string, error)

	Close()
}

// ConversationTurn is one persisted exchange: what the customer said
// (normalized) and what the agent replied. Suppressed replies are never
// written.
type ConversationTurn struct {
	CustomerKey string    `json:"session_id"`
	UserMessage string    `json:"user_message"`
	AgentReply  string    `json:"agent_response"`
	CreatedAt   time.Time `json:"created_at"`
}

// CustomerProfile is the read-only view of a previously registered customer,
// populated by the lead-registration tools.
type CustomerProfile struct {
	CustomerKey string
	DisplayName string
	Company     string
}

// Lead statuses written by the sales tools.
const (
	LeadStatusAdvertiser = "NOVO_LEAD_ANUNCIANTE"
	LeadStatusDriver     = "NOVO_LEAD_MOTORISTA"
)

// Lead is a CRM row created when the agent closes on an advertiser or
// signs up a partner driver.
type Lead struct {
	FullName       string
	Company        string
	ServiceDesired string
	SessionID      string
	ContactNumber  string
	Status         string
}
