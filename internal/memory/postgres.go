// Package memory is the Postgres-backed store for conversation history,
// leads and the FAQ knowledge base.
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/publicars/botdevendas/internal/domain"
)

// Postgres implements domain.MemoryStore on a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

type PostgresConfig struct {
	URL    string
	Logger *slog.Logger
}

func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolCfg.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &Postgres{pool: pool, logger: logger}, nil
}

// Migrate creates the tables when they do not exist yet. Failures are
// returned but the caller only logs them: the store may be pointed at a
// database where DDL is not permitted.
func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL,
			user_message TEXT NOT NULL,
			agent_response TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS conversations_session_created_idx
			ON conversations (session_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS leads (
			id BIGSERIAL PRIMARY KEY,
			full_name TEXT NOT NULL,
			company_name TEXT,
			service_desired TEXT,
			session_id TEXT NOT NULL,
			contact_number TEXT,
			status TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS leads_session_idx ON leads (session_id)`,
		`CREATE TABLE IF NOT EXISTS knowledge_base (
			id BIGSERIAL PRIMARY KEY,
			question TEXT NOT NULL,
			answer TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (p *Postgres) RecentTurns(ctx context.Context, customerKey string, limit int) ([]domain.ConversationTurn, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT session_id, user_message, agent_response, created_at
		 FROM conversations
		 WHERE session_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		customerKey, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn
	for rows.Next() {
		var t domain.ConversationTurn
		if err := rows.Scan(&t.CustomerKey, &t.UserMessage, &t.AgentReply, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	reverseTurns(turns)
	return turns, nil
}

func (p *Postgres) Profile(ctx context.Context, customerKey string) (*domain.CustomerProfile, error) {
	var name, company *string
	err := p.pool.QueryRow(ctx,
		`SELECT full_name, company_name
		 FROM leads
		 WHERE session_id = $1
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		customerKey,
	).Scan(&name, &company)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}

	profile := &domain.CustomerProfile{CustomerKey: customerKey}
	if name != nil {
		profile.DisplayName = *name
	}
	if company != nil {
		profile.Company = *company
	}
	return profile, nil
}

func (p *Postgres) AppendTurn(ctx context.Context, turn domain.ConversationTurn) error {
	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO conversations (session_id, user_message, agent_response, created_at)
		 VALUES ($1, $2, $3, $4)`,
		turn.CustomerKey, turn.UserMessage, turn.AgentReply, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

func (p *Postgres) InsertLead(ctx context.Context, lead domain.Lead) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO leads (full_name, company_name, service_desired, session_id, contact_number, status, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())`,
		lead.FullName, lead.Company, lead.ServiceDesired, lead.SessionID, lead.ContactNumber, lead.Status,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	p.logger.Info("lead registered", "session", lead.SessionID, "status", lead.Status)
	return nil
}

func (p *Postgres) SearchFAQ(ctx context.Context, query string) (string, error) {
	var answer string
	err := p.pool.QueryRow(ctx,
		`SELECT answer
		 FROM knowledge_base
		 WHERE question ILIKE '%' || $1 || '%'
		 LIMIT 1`,
		query,
	).Scan(&answer)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query knowledge base: %w", err)
	}
	return answer, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

// reverseTurns flips newest-first query order into the oldest-first order
// the prompt builder replays.
func reverseTurns(turns []domain.ConversationTurn) {
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
}
