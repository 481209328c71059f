package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/healia/backend/internal/adapters/directory"
	"github.com/zatekoja/healia/backend/internal/adapters/events"
	"github.com/zatekoja/healia/backend/internal/adapters/identity"
	"github.com/zatekoja/healia/backend/internal/adapters/media"
	"github.com/zatekoja/healia/backend/internal/api/handlers"
	"github.com/zatekoja/healia/backend/internal/api/routes"
	"github.com/zatekoja/healia/backend/internal/application/services"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
	"github.com/zatekoja/healia/backend/internal/infrastructure/notifications"
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

type testServer struct {
	*httptest.Server
	registry *services.WorkspaceRegistry
	backend  *MockConversationalBackend
	bus      providers.NotificationBus
	now      time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s := &testServer{
		backend: new(MockConversationalBackend),
		bus:     events.NewMemoryEventBus(),
		now:     time.Date(2025, 3, 8, 14, 30, 0, 0, time.UTC),
	}
	identitySvc := services.NewIdentityService(identity.NewStaticAdapter(identity.DevIdentities()))
	directorySvc := services.NewDirectoryService(directory.NewStaticAdapter(directory.DefaultProviders()))

	s.registry = services.NewWorkspaceRegistry(services.WorkspaceDeps{
		Directory: directorySvc,
		Identity:  identitySvc,
		Backend:   s.backend,
		Devices:   &media.LoopbackDevices{},
		Answerer:  &media.DelayedAnswerer{Delay: 5 * time.Millisecond},
		Sink:      notifications.FanoutSink{notifications.NewLogSink(), notifications.NewBusSink(s.bus)},
		Now:       func() time.Time { return s.now },
		Location:  time.UTC,
	})

	router := routes.NewRouter(routes.Handlers{
		Workspace:  handlers.NewWorkspaceHandler(s.registry),
		Provider:   handlers.NewProviderHandler(directorySvc),
		Call:       handlers.NewCallHandler(s.registry),
		Schedule:   handlers.NewScheduleHandler(s.registry, time.UTC),
		Chat:       handlers.NewChatHandler(s.registry),
		Assessment: handlers.NewAssessmentHandler(s.registry),
		Auth:       handlers.NewAuthHandler(identitySvc),
		SSE:        handlers.NewSSEHandler(s.registry, s.bus).WithHeartbeat(20 * time.Millisecond),
	}, nil, nil, "healia-test")

	s.Server = httptest.NewServer(router.SetupRoutes())
	t.Cleanup(func() {
		s.Server.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, s.registry.Shutdown(ctx))
		require.NoError(t, s.bus.Close())
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (s *testServer) createWorkspace(t *testing.T) string {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/workspaces", nil)
	require.Equal(t, http.StatusCreated, status)
	return body["id"].(string)
}
