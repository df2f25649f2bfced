package chat

import (
	"context"

	"github.com/google/uuid"

	"github.com/DachengChen/paiERP/ai"
)

// Processor answers a question. *assistant.Assistant implements it.
type Processor interface {
	Process(ctx context.Context, text string, userContext any, providerID string) (ai.Response, error)
}

// Session is one conversation.
type Session struct {
	ID         string
	ProviderID string
	Transcript *Transcript

	// UserContext is passed to the processor with every question. When
	// nil, {"sessionId": ID} is sent.
	UserContext any
}

// NewSession creates an empty session with a fresh id.
func NewSession() *Session {
	return &Session{ID: uuid.NewString(), Transcript: NewTranscript(nil)}
}

// Send appends the user's message and a pending assistant message, asks p,
// then fills the pending message with the answer or the error text. The
// returned message is the settled assistant reply.
func (s *Session) Send(ctx context.Context, p Processor, text string) (Message, error) {
	s.Transcript.Append(NewMessage(RoleUser, text))

	pending := NewMessage(RoleAssistant, "")
	pending.IsLoading = true
	s.Transcript.Append(pending)

	userContext := s.UserContext
	if userContext == nil {
		userContext = map[string]any{"sessionId": s.ID}
	}
	resp, err := p.Process(ctx, text, userContext, s.ProviderID)
	reply, _ := s.Transcript.Update(pending.ID, func(m *Message) {
		Settle(m, resp, err)
	})
	return reply, err
}

// Settle fills a pending assistant message from a response or an error.
func Settle(m *Message, resp ai.Response, err error) {
	m.IsLoading = false
	if err != nil {
		m.Content = "Error: " + err.Error()
		return
	}
	m.Content = resp.Summary
	m.Data = resp.Data
	m.Insights = resp.Insights
	m.Recommendations = resp.Recommendations
	m.Visualizations = resp.Visualizations
}
