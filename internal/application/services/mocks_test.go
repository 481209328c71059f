package services_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
)

type MockConversationalBackend struct {
	mock.Mock
}

func (m *MockConversationalBackend) Chat(ctx context.Context, message string) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

func (m *MockConversationalBackend) AnalyzeSymptoms(ctx context.Context, req *entities.SymptomAssessmentRequest) (*entities.AnalysisResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AnalysisResult), args.Error(1)
}

type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) Verify(ctx context.Context, idToken string) (*entities.Identity, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Identity), args.Error(1)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context, uid string) error {
	return m.Called(ctx, uid).Error(0)
}

type recordingSink struct {
	mu   sync.Mutex
	sent []entities.Notification
}

func (s *recordingSink) Notify(ctx context.Context, n entities.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
}

func (s *recordingSink) kinds() []entities.NotificationKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.NotificationKind, 0, len(s.sent))
	for _, n := range s.sent {
		out = append(out, n.Kind)
	}
	return out
}

func (s *recordingSink) last() entities.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[len(s.sent)-1]
}
