package chat

import (
	"context"
	"sync"

	"github.com/go-go-golems/grillo/pkg/conversation"
)

// MockResponse is one scripted answer of a MockClient.
type MockResponse struct {
	Text string
	Err  error
}

// MockClient replays scripted responses round-robin and records every request.
type MockClient struct {
	mu        sync.Mutex
	responses []MockResponse
	index     int
	requests  [][]conversation.Message

	Models    []string
	Reachable bool
	// OnComplete runs before the scripted response is returned.
	OnComplete func(messages []conversation.Message)
}

var _ Client = (*MockClient)(nil)

func NewMockClient(responses ...MockResponse) *MockClient {
	return &MockClient{
		responses: responses,
		Models:    []string{},
		Reachable: true,
	}
}

func (m *MockClient) ListModels(context.Context) []string {
	return append([]string{}, m.Models...)
}

func (m *MockClient) TestConnection(context.Context) bool {
	return m.Reachable
}

func (m *MockClient) Complete(_ context.Context, messages []conversation.Message) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, append([]conversation.Message(nil), messages...))
	var resp MockResponse
	if len(m.responses) > 0 {
		resp = m.responses[m.index]
		m.index = (m.index + 1) % len(m.responses)
	}
	onComplete := m.OnComplete
	m.mu.Unlock()

	if onComplete != nil {
		onComplete(messages)
	}
	return resp.Text, resp.Err
}

// Requests returns every message list passed to Complete, in call order.
func (m *MockClient) Requests() [][]conversation.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]conversation.Message(nil), m.requests...)
}
