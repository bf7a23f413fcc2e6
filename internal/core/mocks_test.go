package core

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/robo-univ/agent-portal/internal/store"
)

// MockCompleter is a mock implementation of Completer.
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// Requests returns every request passed to Complete, in call order.
func (m *MockCompleter) Requests() []CompletionRequest {
	var reqs []CompletionRequest
	for _, call := range m.Calls {
		if call.Method == "Complete" {
			reqs = append(reqs, call.Arguments.Get(1).(CompletionRequest))
		}
	}
	return reqs
}

// memoryAgents is an in-memory AgentSource whose agents can be edited
// between calls.
type memoryAgents struct {
	mu     sync.Mutex
	agents map[int64]store.Agent
	reads  int
}

func newMemoryAgents(agents ...store.Agent) *memoryAgents {
	m := &memoryAgents{agents: make(map[int64]store.Agent)}
	for _, a := range agents {
		m.agents[a.ID] = a
	}
	return m
}

func (m *memoryAgents) GetAgent(_ context.Context, id int64) (*store.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	a, ok := m.agents[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memoryAgents) update(id int64, fn func(a *store.Agent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agents[id]
	fn(&a)
	m.agents[id] = a
}
