package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Vishnulak/PRELEX-GENAI/analysis"
	"github.com/Vishnulak/PRELEX-GENAI/config"
	"github.com/Vishnulak/PRELEX-GENAI/metrics"
)

// GeminiService is the generative backend, talking to either the Gemini API
// or Vertex AI.
type GeminiService struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiService creates the client. httpClient may be nil.
func NewGeminiService(ctx context.Context, cfg *config.GeminiConfig, httpClient *http.Client) (*GeminiService, error) {
	if !cfg.Enabled() {
		return nil, analysis.ErrBackendUnavailable
	}

	cc := &genai.ClientConfig{HTTPClient: httpClient}
	switch cfg.Backend {
	case config.BackendVertex:
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Location
	default:
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.APIKey
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiService{client: client, model: cfg.Model, timeout: cfg.Timeout()}, nil
}

// Model returns the configured model name.
func (s *GeminiService) Model() string { return s.model }

// Generate sends prompt with the given sampling parameters and returns the
// text of the first candidate.
func (s *GeminiService) Generate(ctx context.Context, prompt string, params analysis.GenerationParams) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(params.Temperature),
		TopP:            genai.Ptr(params.TopP),
		TopK:            genai.Ptr(params.TopK),
		MaxOutputTokens: params.MaxTokens,
	})
	if err != nil {
		metrics.GenerativeCalls.WithLabelValues("error").Inc()
		return "", &analysis.BackendError{Op: "generate", Err: err}
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		metrics.GenerativeCalls.WithLabelValues("empty").Inc()
		return "", &analysis.BackendError{Op: "generate", Err: errors.New("empty response")}
	}
	metrics.GenerativeCalls.WithLabelValues("ok").Inc()
	return text, nil
}
