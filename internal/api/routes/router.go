package routes

import (
	"net/http"

	"github.com/zatekoja/healia/backend/internal/api/handlers"
	"github.com/zatekoja/healia/backend/internal/api/middleware"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	workspaceHandler  *handlers.WorkspaceHandler
	providerHandler   *handlers.ProviderHandler
	callHandler       *handlers.CallHandler
	scheduleHandler   *handlers.ScheduleHandler
	chatHandler       *handlers.ChatHandler
	assessmentHandler *handlers.AssessmentHandler
	authHandler       *handlers.AuthHandler
	sseHandler        *handlers.SSEHandler

	rateLimiter    *middleware.RateLimiter
	allowedOrigins []string
	serviceName    string
}

// Handlers groups the route handlers
type Handlers struct {
	Workspace  *handlers.WorkspaceHandler
	Provider   *handlers.ProviderHandler
	Call       *handlers.CallHandler
	Schedule   *handlers.ScheduleHandler
	Chat       *handlers.ChatHandler
	Assessment *handlers.AssessmentHandler
	Auth       *handlers.AuthHandler
	SSE        *handlers.SSEHandler
}

// NewRouter creates a new router. rateLimiter may be nil.
func NewRouter(h Handlers, rateLimiter *middleware.RateLimiter, allowedOrigins []string, serviceName string) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		workspaceHandler:  h.Workspace,
		providerHandler:   h.Provider,
		callHandler:       h.Call,
		scheduleHandler:   h.Schedule,
		chatHandler:       h.Chat,
		assessmentHandler: h.Assessment,
		authHandler:       h.Auth,
		sseHandler:        h.SSE,
		rateLimiter:       rateLimiter,
		allowedOrigins:    allowedOrigins,
		serviceName:       serviceName,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Workspaces
	r.mux.HandleFunc("POST /api/workspaces", r.workspaceHandler.CreateWorkspace)
	r.mux.HandleFunc("GET /api/workspaces/{id}", r.workspaceHandler.GetWorkspace)
	r.mux.HandleFunc("DELETE /api/workspaces/{id}", r.workspaceHandler.DeleteWorkspace)
	r.mux.HandleFunc("GET /api/workspaces/{id}/stream", r.sseHandler.StreamWorkspace)

	// Directory
	r.mux.HandleFunc("GET /api/providers", r.providerHandler.ListProviders)
	r.mux.HandleFunc("GET /api/providers/{id}", r.providerHandler.GetProvider)
	r.mux.HandleFunc("GET /api/specialties", r.providerHandler.ListSpecialties)

	// Video consultation
	r.mux.HandleFunc("POST /api/workspaces/{id}/call", r.callHandler.StartCall)
	r.mux.HandleFunc("GET /api/workspaces/{id}/call", r.callHandler.GetCall)
	r.mux.HandleFunc("POST /api/workspaces/{id}/call/end", r.callHandler.EndCall)
	r.mux.HandleFunc("POST /api/workspaces/{id}/call/mute", r.callHandler.ToggleMute)
	r.mux.HandleFunc("POST /api/workspaces/{id}/call/video", r.callHandler.ToggleVideo)

	// Appointment scheduling
	r.mux.HandleFunc("POST /api/workspaces/{id}/schedule", r.scheduleHandler.OpenSchedule)
	r.mux.HandleFunc("GET /api/workspaces/{id}/schedule", r.scheduleHandler.GetSchedule)
	r.mux.HandleFunc("DELETE /api/workspaces/{id}/schedule", r.scheduleHandler.Cancel)
	r.mux.HandleFunc("PUT /api/workspaces/{id}/schedule/date", r.scheduleHandler.SelectDate)
	r.mux.HandleFunc("PUT /api/workspaces/{id}/schedule/slot", r.scheduleHandler.SelectSlot)
	r.mux.HandleFunc("POST /api/workspaces/{id}/schedule/confirm", r.scheduleHandler.Confirm)

	// Health assistant
	r.mux.HandleFunc("POST /api/workspaces/{id}/chat", r.chatHandler.SendMessage)
	r.mux.HandleFunc("GET /api/workspaces/{id}/chat", r.chatHandler.GetTranscript)
	r.mux.HandleFunc("POST /api/workspaces/{id}/assessment", r.assessmentHandler.Submit)
	r.mux.HandleFunc("GET /api/workspaces/{id}/assessment", r.assessmentHandler.GetAssessment)

	// Identity
	r.mux.HandleFunc("POST /api/auth/signin", r.authHandler.SignIn)
	r.mux.HandleFunc("POST /api/auth/signout", r.authHandler.SignOut)
	r.mux.HandleFunc("GET /api/auth/me", r.authHandler.Me)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	if r.rateLimiter != nil {
		handler = r.rateLimiter.Middleware(handler)
	}
	handler = middleware.ObservabilityMiddleware(r.serviceName)(handler)

	// CORS wraps everything so rejected requests still carry headers
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
