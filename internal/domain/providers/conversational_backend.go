package providers

import (
	"context"

	"github.com/zatekoja/healia/backend/internal/domain/entities"
)

// ConversationalBackend is the remote chat and symptom analysis service
type ConversationalBackend interface {
	Chat(ctx context.Context, message string) (string, error)
	AnalyzeSymptoms(ctx context.Context, req *entities.SymptomAssessmentRequest) (*entities.AnalysisResult, error)
}
