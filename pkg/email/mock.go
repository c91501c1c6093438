package email

import (
	"context"
	"sync"
	"time"
)

// MockNotifier renders emails without sending them. It backs development
// mode and tests.
type MockNotifier struct {
	mu       sync.Mutex
	renderer *renderer
	sent     []SentEmail
}

// SentEmail represents an email captured by MockNotifier
type SentEmail struct {
	Message
	SentAt time.Time
}

func NewMockNotifier() *MockNotifier {
	r, err := newRenderer(Config{BaseURL: "http://localhost:8080"})
	if err != nil {
		// templates are compiled in
		panic(err)
	}
	return &MockNotifier{renderer: r}
}

func (m *MockNotifier) SendTaskClaimed(_ context.Context, owner Recipient, task TaskSummary, helperNickname string) error {
	return m.record(KindTaskClaimed, owner, task, helperNickname)
}

func (m *MockNotifier) SendAwaitingVerification(_ context.Context, owner Recipient, task TaskSummary, helperNickname string) error {
	return m.record(KindAwaitingVerification, owner, task, helperNickname)
}

func (m *MockNotifier) SendTaskVerified(_ context.Context, helper Recipient, task TaskSummary) error {
	return m.record(KindTaskVerified, helper, task, "")
}

func (m *MockNotifier) record(kind string, to Recipient, task TaskSummary, helper string) error {
	msg, err := m.renderer.render(kind, to, task, helper)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.sent = append(m.sent, SentEmail{Message: *msg, SentAt: time.Now()})
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of every captured email.
func (m *MockNotifier) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentEmail(nil), m.sent...)
}

// Last returns the most recent email or nil.
func (m *MockNotifier) Last() *SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return nil
	}
	last := m.sent[len(m.sent)-1]
	return &last
}

func (m *MockNotifier) Clear() {
	m.mu.Lock()
	m.sent = nil
	m.mu.Unlock()
}
