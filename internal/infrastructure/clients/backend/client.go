package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
	"github.com/zatekoja/healia/backend/pkg/config"
	apperrors "github.com/zatekoja/healia/backend/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

const (
	chatPath    = "/chat"
	analyzePath = "/api/analyze-symptoms"
)

// ErrEmptyReply is returned when the chat endpoint answers without text
var ErrEmptyReply = errors.New("backend returned an empty reply")

// Client talks to the conversational backend over JSON POSTs
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a backend client from configuration
func NewClient(cfg *config.BackendConfig) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, errors.New("backend base url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "conversational-backend",
		MaxRequests: cfg.BreakerHalfOpenN,
		Timeout:     cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			recordBreakerState(context.Background(), name, to)
		},
	})

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		breaker:    breaker,
	}, nil
}

// Chat sends one user message and returns the bot reply
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	var out entities.ChatResponse
	if err := c.post(ctx, chatPath, entities.ChatRequest{Message: message}, &out); err != nil {
		return "", apperrors.NewExternalError("chat request failed", err)
	}
	if out.Response == "" {
		return "", apperrors.NewExternalError("chat request failed", ErrEmptyReply)
	}
	return out.Response, nil
}

// AnalyzeSymptoms submits an assessment. A 2xx body is returned as is, even
// when it only carries an error field.
func (c *Client) AnalyzeSymptoms(ctx context.Context, req *entities.SymptomAssessmentRequest) (*entities.AnalysisResult, error) {
	if req == nil {
		return nil, apperrors.NewValidationError("assessment request is required")
	}
	body := *req
	if body.MedicalHistory == nil {
		body.MedicalHistory = []string{}
	}

	var out entities.AnalysisResult
	if err := c.post(ctx, analyzePath, body, &out); err != nil {
		return nil, apperrors.NewExternalError("symptom analysis failed", err)
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, path, in, out)
	})
	return err
}

func (c *Client) do(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordRequestMetric(ctx, path, 0, time.Since(start), err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("backend request failed with status %d", resp.StatusCode)
		recordRequestMetric(ctx, path, resp.StatusCode, time.Since(start), err)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		recordRequestMetric(ctx, path, resp.StatusCode, time.Since(start), err)
		return fmt.Errorf("failed to decode backend response: %w", err)
	}

	recordRequestMetric(ctx, path, resp.StatusCode, time.Since(start), nil)
	return nil
}

type backendMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
	breakerState    metric.Int64Counter
}

var (
	metricsOnce sync.Once
	metrics     *backendMetrics
)

func ensureMetrics() *backendMetrics {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/zatekoja/healia/backend/backend-client")

		requestCount, err := meter.Int64Counter(
			"backend.request.count",
			metric.WithDescription("Number of conversational backend requests"),
		)
		if err != nil {
			return
		}
		requestDuration, err := meter.Float64Histogram(
			"backend.request.duration",
			metric.WithDescription("Conversational backend request duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		requestErrors, err := meter.Int64Counter(
			"backend.request.errors",
			metric.WithDescription("Number of failed conversational backend requests"),
		)
		if err != nil {
			return
		}
		breakerState, err := meter.Int64Counter(
			"backend.breaker.transitions",
			metric.WithDescription("Circuit breaker state changes"),
		)
		if err != nil {
			return
		}

		metrics = &backendMetrics{
			requestCount:    requestCount,
			requestDuration: requestDuration,
			requestErrors:   requestErrors,
			breakerState:    breakerState,
		}
	})
	return metrics
}

func recordRequestMetric(ctx context.Context, endpoint string, statusCode int, duration time.Duration, err error) {
	m := ensureMetrics()
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("backend.endpoint", endpoint),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	m.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		m.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func recordBreakerState(ctx context.Context, name string, to gobreaker.State) {
	m := ensureMetrics()
	if m == nil {
		return
	}
	m.breakerState.Add(ctx, 1, metric.WithAttributes(
		attribute.String("breaker.name", name),
		attribute.String("breaker.state", to.String()),
	))
}
