package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
	"github.com/zatekoja/healia/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/healia/backend/pkg/errors"
)

// AssessmentFailedMessage is shown when the analysis request fails
const AssessmentFailedMessage = "Failed to connect to the analysis server. Please check the server and try again."

// AssessmentService submits symptom assessments and tracks the latest one
type AssessmentService struct {
	backend     providers.ConversationalBackend
	sink        providers.NotificationSink
	workspaceID string
	now         func() time.Time

	mu    sync.Mutex
	state entities.AssessmentState
}

// NewAssessmentService creates an idle assessment
func NewAssessmentService(backend providers.ConversationalBackend, sink providers.NotificationSink, workspaceID string) *AssessmentService {
	return &AssessmentService{
		backend:     backend,
		sink:        sink,
		workspaceID: workspaceID,
		now:         time.Now,
		state:       entities.AssessmentState{Status: entities.AssessmentIdle},
	}
}

// Submit validates req and sends it for analysis. A transport failure moves
// the assessment to the failed status; it is not returned as an error.
func (s *AssessmentService) Submit(ctx context.Context, req entities.SymptomAssessmentRequest) (entities.AssessmentState, error) {
	req, err := normalizeAssessment(req)
	if err != nil {
		return s.State(), err
	}

	s.mu.Lock()
	if s.state.Status == entities.AssessmentLoading {
		s.mu.Unlock()
		return s.State(), ErrBusy
	}
	s.state = entities.AssessmentState{Status: entities.AssessmentLoading, Request: &req}
	s.mu.Unlock()

	result, err := s.backend.AnalyzeSymptoms(context.WithoutCancel(ctx), &req)

	s.mu.Lock()
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("workspace_id", s.workspaceID).Msg("Symptom analysis failed")
		s.state = entities.AssessmentState{
			Status:  entities.AssessmentFailed,
			Request: &req,
			Error:   AssessmentFailedMessage,
		}
	} else {
		s.state = entities.AssessmentState{
			Status:  entities.AssessmentCompleted,
			Request: &req,
			Result:  result,
		}
	}
	state := s.state
	s.mu.Unlock()

	if err != nil {
		s.notify(ctx, entities.NotificationAssessmentFailed, "Error!",
			"Failed to submit assessment. Please try again later.", entities.VariantDestructive)
	} else {
		s.notify(ctx, entities.NotificationAssessmentComplete, "Assessment Complete!",
			"Analysis is ready. See results below.", entities.VariantDefault)
	}
	return state, nil
}

// State returns the current assessment
func (s *AssessmentService) State() entities.AssessmentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *AssessmentService) notify(ctx context.Context, kind entities.NotificationKind, title, description string, variant entities.NotificationVariant) {
	if s.sink == nil {
		return
	}
	s.sink.Notify(ctx, entities.Notification{
		ID:          uuid.New().String(),
		WorkspaceID: s.workspaceID,
		Kind:        kind,
		Title:       title,
		Description: description,
		Variant:     variant,
		CreatedAt:   s.now(),
	})
}

func normalizeAssessment(req entities.SymptomAssessmentRequest) (entities.SymptomAssessmentRequest, error) {
	req.Symptoms = strings.TrimSpace(req.Symptoms)
	if req.Symptoms == "" {
		return req, apperrors.NewValidationError("symptoms are required")
	}
	if !req.Urgency.Valid() {
		return req, apperrors.NewValidationError("unknown urgency: " + string(req.Urgency))
	}
	if !req.Duration.Valid() {
		return req, apperrors.NewValidationError("unknown duration: " + string(req.Duration))
	}

	seen := make(map[string]bool, len(req.MedicalHistory))
	history := make([]string, 0, len(req.MedicalHistory))
	for _, condition := range req.MedicalHistory {
		if !entities.IsMedicalCondition(condition) {
			return req, apperrors.NewValidationError("unknown medical history entry: " + condition)
		}
		if !seen[condition] {
			seen[condition] = true
			history = append(history, condition)
		}
	}
	req.MedicalHistory = history
	return req, nil
}
