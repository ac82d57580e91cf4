package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vishnulak/PRELEX-GENAI/model"
)

const employmentContract = `EMPLOYMENT AGREEMENT between Acme Corp and Jane Doe, effective March 1, 2025.
The Employee will receive a salary of $85,000 per year.
The Company may terminate this agreement without cause.
Employee shall not compete with the Company in any similar business for 2 years.
All disputes shall be resolved by binding arbitration.`

func TestPipelineRulesOnly(t *testing.T) {
	p := NewPipeline(nil, nil)

	res, err := p.Analyze(context.Background(), employmentContract, model.MethodLocal)
	require.NoError(t, err)

	assert.Equal(t, model.ContractEmployment, res.ContractType)
	assert.Equal(t, employmentContract, res.Text)
	assert.Contains(t, res.KeyInfo.Amounts, "85,000")
	assert.Contains(t, res.Summary, "**Document Overview**")

	pi := res.Processing
	assert.Equal(t, model.MethodLocal, pi.ExtractionMethod)
	assert.Equal(t, model.MethodFallback, pi.SummarizationMethod)
	assert.Equal(t, model.MethodRules, pi.RiskAnalysisMethod)
	assert.Equal(t, model.ContractEmployment, pi.ContractType)
	assert.Equal(t, res.Report.Summary.TotalRisks, pi.TotalRisksFound)
	assert.Equal(t, res.Report.Summary.HighRisks, pi.SeverityBreakdown.High)
	assert.GreaterOrEqual(t, pi.DurationMS, int64(0))

	_, ok := findRisk(res.Report.Risks, "non_compete_overreach")
	assert.True(t, ok)
	assert.Equal(t, model.SeverityHigh, res.Report.Summary.RiskLevel)
}

func TestPipelineGenerative(t *testing.T) {
	gen := &fakeGenerator{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "risky_clauses") {
			return validRiskJSON, nil
		}
		return "Generated summary.", nil
	}}
	p := NewPipeline(gen, nil)

	res, err := p.Analyze(context.Background(), employmentContract, model.MethodMineru)
	require.NoError(t, err)

	assert.Equal(t, "Generated summary.", res.Summary)
	assert.Equal(t, model.MethodGenerative, res.Processing.SummarizationMethod)
	assert.Equal(t, model.MethodGenerative, res.Processing.RiskAnalysisMethod)
	assert.Equal(t, 1, res.Report.Summary.TotalRisks)
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[1], "Generated summary.")
}

func TestPipelineRiskFallbackKeepsSummary(t *testing.T) {
	gen := &fakeGenerator{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "risky_clauses") {
			return "", errors.New("deadline exceeded")
		}
		return "Generated summary.", nil
	}}

	res, err := NewPipeline(gen, nil).Analyze(context.Background(), employmentContract, model.MethodLocal)
	require.NoError(t, err)
	assert.Equal(t, model.MethodGenerative, res.Processing.SummarizationMethod)
	assert.Equal(t, model.MethodRules, res.Processing.RiskAnalysisMethod)
	assert.NotZero(t, res.Report.Summary.TotalRisks)
}

func TestPipelineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewPipeline(nil, nil).Analyze(ctx, employmentContract, model.MethodLocal)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

// stallingGenerator never answers before ctx expires.
type stallingGenerator struct{}

func (stallingGenerator) Generate(ctx context.Context, _ string, _ GenerationParams) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestPipelineDeadlineDuringGenerationUsesRules(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	text := "The Company may terminate this agreement without cause. The Contractor shall be liable for all damages."
	res, err := NewPipeline(stallingGenerator{}, nil).Analyze(ctx, text, model.MethodLocal)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, model.MethodFallback, res.Processing.SummarizationMethod)
	assert.Equal(t, model.MethodRules, res.Processing.RiskAnalysisMethod)
	expected := BuildReport(NewRuleAnalyzer(nil).Analyze(text, res.Summary, res.ContractType))
	assert.NotZero(t, res.Report.Summary.TotalRisks)
	assert.Equal(t, expected.Summary.TotalRisks, res.Report.Summary.TotalRisks)
}

func TestPipelineCatalog(t *testing.T) {
	assert.Same(t, DefaultCatalog(), NewPipeline(nil, nil).Catalog())
}
