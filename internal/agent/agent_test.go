package agent

import (
	"context"
	"errors"
	"time"

	"github.com/publicars/botdevendas/internal/domain"
)

// fakeGateway records outbound calls for assertions.
type fakeGateway struct {
	media      domain.Media
	mediaErr   error
	sendErr    error
	markErr    error
	sent       []sentMessage
	marked     []domain.MessageKey
	fetchedIDs []string
}

type sentMessage struct {
	recipient string
	text      string
	typingFor time.Duration
}

func (g *fakeGateway) SendText(_ context.Context, recipientJID, text string, typingFor time.Duration) error {
	if g.sendErr != nil {
		return g.sendErr
	}
	g.sent = append(g.sent, sentMessage{recipient: recipientJID, text: text, typingFor: typingFor})
	return nil
}

func (g *fakeGateway) MarkRead(_ context.Context, key domain.MessageKey) error {
	if g.markErr != nil {
		return g.markErr
	}
	g.marked = append(g.marked, key)
	return nil
}

func (g *fakeGateway) FetchMedia(_ context.Context, messageID string) (domain.Media, error) {
	g.fetchedIDs = append(g.fetchedIDs, messageID)
	if g.mediaErr != nil {
		return domain.Media{}, g.mediaErr
	}
	return g.media, nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (t *fakeTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	return t.text, t.err
}

type fakeFiles struct {
	url string
	err error
}

func (f *fakeFiles) Persist(context.Context, []byte, string, string) (string, error) {
	return f.url, f.err
}

// fakeStore implements domain.MemoryStore for pipeline tests.
type fakeStore struct {
	turns      []domain.ConversationTurn
	turnsErr   error
	profile    *domain.CustomerProfile
	profileErr error
	appended   []domain.ConversationTurn
	appendErr  error
}

func (s *fakeStore) RecentTurns(context.Context, string, int) ([]domain.ConversationTurn, error) {
	return s.turns, s.turnsErr
}
func (s *fakeStore) Profile(context.Context, string) (*domain.CustomerProfile, error) {
	return s.profile, s.profileErr
}
func (s *fakeStore) AppendTurn(_ context.Context, turn domain.ConversationTurn) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appended = append(s.appended, turn)
	return nil
}
func (s *fakeStore) InsertLead(context.Context, domain.Lead) error { return nil }
func (s *fakeStore) SearchFAQ(context.Context, string) (string, error) {
	return "", domain.ErrNotFound
}
func (s *fakeStore) Close() {}

// fakeProvider returns scripted responses in order.
type fakeProvider struct {
	responses []*domain.ChatResponse
	err       error
	requests  []domain.ChatRequest
}

func (p *fakeProvider) Chat(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.responses) == 0 {
		return nil, errors.New("no scripted response left")
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

func (p *fakeProvider) Name() string                      { return "fake" }
func (p *fakeProvider) Healthy(context.Context) error { return nil }
