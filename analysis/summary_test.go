package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vishnulak/PRELEX-GENAI/model"
)

var summarySections = []string{
	"**Document Overview**",
	"**Parties and Relationships**",
	"**Key Terms and Obligations**",
	"**Rights and Responsibilities**",
	"**Important Provisions**",
	"**Professional Assessment**",
}

func TestSummarizeGenerative(t *testing.T) {
	gen := replying("  A tidy summary.  \n", nil)
	s := NewSummarizer(gen)

	out, method := s.Summarize(context.Background(), "text", model.ExtractedKeyInfo{}, model.ContractGeneral)
	assert.Equal(t, "A tidy summary.", out)
	assert.Equal(t, model.MethodGenerative, method)
	require.Len(t, gen.params, 1)
	assert.Equal(t, summaryGenerationParams, gen.params[0])
}

func TestSummarizeFallback(t *testing.T) {
	info := model.ExtractedKeyInfo{Parties: []string{"Acme Corp", "John Smith"}, Amounts: []string{"500,000"}}

	for name, gen := range map[string]Generator{
		"no backend": nil,
		"error":      replying("", errors.New("boom")),
		"blank":      replying("   ", nil),
	} {
		t.Run(name, func(t *testing.T) {
			out, method := NewSummarizer(gen).Summarize(context.Background(), "text", info, model.ContractEmployment)
			assert.Equal(t, model.MethodFallback, method)
			assert.Equal(t, FallbackSummary(info, model.ContractEmployment), out)
		})
	}
}

func TestFallbackSummary(t *testing.T) {
	info := model.ExtractedKeyInfo{
		Parties: []string{"Acme Corp", "John Smith"},
		Dates:   []string{"January 1, 2024"},
		Amounts: []string{"500,000"},
	}
	out := FallbackSummary(info, model.ContractSoftware)

	for _, section := range summarySections {
		assert.Contains(t, out, section)
	}
	assert.Contains(t, out, contractDescriptions[model.ContractSoftware])
	assert.Contains(t, out, "Acme Corp, John Smith")
	assert.Contains(t, out, "500,000")
	assert.Contains(t, out, "January 1, 2024")
	assert.Contains(t, out, "data usage rights")
}

func TestFallbackSummaryWithoutParties(t *testing.T) {
	out := FallbackSummary(model.ExtractedKeyInfo{}, model.ContractType("unknown"))
	assert.Contains(t, out, "Multiple parties are involved")
	assert.Contains(t, out, "This is a legal agreement")
	assert.NotContains(t, out, "Financial aspects include")
}

func TestSummaryPromptIncludesKeyInfo(t *testing.T) {
	info := model.ExtractedKeyInfo{Parties: []string{"A Corp", "B LLC", "C Inc", "D Ltd"}}
	prompt := buildSummaryPrompt("body text", info, model.ContractRental)

	assert.Contains(t, prompt, "CONTRACT TYPE: Rental")
	assert.Contains(t, prompt, "body text")
	assert.Contains(t, prompt, "A Corp, B LLC, C Inc")
	assert.False(t, strings.Contains(prompt, "D Ltd"))
}
