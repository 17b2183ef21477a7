package mock

import (
	"context"
	"sync"
)

// MockChatModel is a test double for ai.ChatModel.
// Responses can be queued in order or injected via CompleteFunc.
type MockChatModel struct {
	// CompleteFunc is called by Complete if set.
	// If nil, queued responses are returned in order.
	CompleteFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	mu        sync.Mutex
	queue     []string
	prompts   []string
	callCount int
}

// NewMockChatModel creates a mock chat model.
// With no queued responses and no CompleteFunc, Complete returns "yes",
// which lets grading-heavy pipelines run end to end by default.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Enqueue appends responses returned by subsequent Complete calls, in order.
func (m *MockChatModel) Enqueue(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, responses...)
}

// Complete returns the next queued response, or "yes" when the queue is empty.
func (m *MockChatModel) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if m.CompleteFunc != nil {
		m.mu.Lock()
		m.callCount++
		m.prompts = append(m.prompts, userPrompt)
		m.mu.Unlock()
		return m.CompleteFunc(ctx, systemPrompt, userPrompt)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.prompts = append(m.prompts, userPrompt)

	if len(m.queue) == 0 {
		return "yes", nil
	}
	next := m.queue[0]
	m.queue = m.queue[1:]
	return next, nil
}

// CallCount returns the number of Complete calls.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Prompts returns the user prompts received, in call order.
func (m *MockChatModel) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Reset clears queued responses, recorded prompts, and the call count.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = nil
	m.prompts = nil
	m.callCount = 0
	m.CompleteFunc = nil
}
