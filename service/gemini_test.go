package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vishnulak/PRELEX-GENAI/analysis"
	"github.com/Vishnulak/PRELEX-GENAI/config"
)

// proxyTransport sends every request to a test server, keeping the path.
type proxyTransport struct {
	base *url.URL
}

func (p *proxyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = p.base.Scheme
	req.URL.Host = p.base.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	base, err := url.Parse(server.URL)
	require.NoError(t, err)

	svc, err := NewGeminiService(context.Background(), &config.GeminiConfig{
		APIKey:         "test-key",
		Backend:        config.BackendGemini,
		Model:          "gemini-test",
		TimeoutSeconds: 5,
	}, &http.Client{Transport: &proxyTransport{base: base}})
	require.NoError(t, err)
	return svc
}

func candidateResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
}

func TestNewGeminiServiceDisabled(t *testing.T) {
	_, err := NewGeminiService(context.Background(), &config.GeminiConfig{Backend: config.BackendGemini}, nil)
	assert.ErrorIs(t, err, analysis.ErrBackendUnavailable)
}

func TestGeminiServiceGenerate(t *testing.T) {
	var body map[string]any
	svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-test:generateContent")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(candidateResponse("  risky clause report  "))
	})

	out, err := svc.Generate(context.Background(), "analyze this", analysis.GenerationParams{
		Temperature: 0.1, MaxTokens: 4000, TopP: 0.8, TopK: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, "risky clause report", out)
	assert.Equal(t, "gemini-test", svc.Model())

	gen, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok, "expected generationConfig in request body")
	assert.EqualValues(t, 4000, gen["maxOutputTokens"])
	assert.True(t, strings.Contains(string(mustJSON(t, body["contents"])), "analyze this"))
}

func TestGeminiServiceGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": {"code": 500, "message": "boom", "status": "INTERNAL"}}`))
		}},
		{"empty candidate", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(candidateResponse(""))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestGemini(t, tt.handler)
			_, err := svc.Generate(context.Background(), "prompt", analysis.GenerationParams{})

			var backendErr *analysis.BackendError
			require.True(t, errors.As(err, &backendErr), "expected BackendError, got %v", err)
			assert.Equal(t, "generate", backendErr.Op)
		})
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
