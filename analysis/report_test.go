package analysis

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vishnulak/PRELEX-GENAI/model"
)

func risk(n int, sev model.Severity, category string) model.DetectedRisk {
	return model.DetectedRisk{
		ClauseNumber: n,
		ClauseText:   "clause",
		PlainEnglish: "plain " + category,
		Severity:     sev,
		Category:     category,
	}
}

func TestBuildReportEmpty(t *testing.T) {
	report := BuildReport(nil)

	assert.Empty(t, report.Risks)
	assert.NotNil(t, report.Risks)
	assert.Equal(t, 0, report.Summary.TotalRisks)
	assert.Equal(t, 0, report.Summary.CriticalRisks)
	assert.Equal(t, model.SeverityLow, report.Summary.RiskLevel)
	assert.Equal(t, NoRisksRecommendation, report.Summary.Recommendation)
	assert.NotNil(t, report.Summary.CategoriesAffected)
	assert.Empty(t, report.Summary.CategoriesAffected)
	assert.Equal(t, "none", report.Summary.MostSevere)
}

func TestBuildReportCriticalTakesPrecedence(t *testing.T) {
	report := BuildReport([]model.DetectedRisk{
		risk(1, model.SeverityHigh, "termination"),
		risk(2, model.SeverityCritical, "financial_liability"),
		risk(3, model.SeverityHigh, "legal_rights"),
	})

	assert.Equal(t, model.SeverityCritical, report.Summary.RiskLevel)
	assert.Equal(t, recommendations[model.SeverityCritical], report.Summary.Recommendation)
	assert.Equal(t, 3, report.Summary.TotalRisks)
	assert.Equal(t, 1, report.Summary.CriticalRisks)
	assert.Equal(t, 2, report.Summary.HighRisks)
	assert.Equal(t, "critical", report.Summary.MostSevere)
	assert.Equal(t, []string{"financial_liability", "legal_rights", "termination"}, report.Summary.CategoriesAffected)
}

func TestBuildReportResortsBySeverityThenClause(t *testing.T) {
	in := []model.DetectedRisk{
		risk(3, model.SeverityLow, "a"),
		risk(2, model.SeverityHigh, "b"),
		risk(1, model.SeverityHigh, "c"),
		risk(4, model.SeverityCritical, "d"),
	}
	report := BuildReport(in)

	var got []int
	for _, r := range report.Risks {
		got = append(got, r.ClauseNumber)
	}
	assert.Equal(t, []int{4, 1, 2, 3}, got)
	assert.Equal(t, 3, in[0].ClauseNumber, "input must not be reordered")
}

func TestRiskLevelPrecedence(t *testing.T) {
	c, h, mh, m, l := model.SeverityCritical, model.SeverityHigh, model.SeverityMediumHigh, model.SeverityMedium, model.SeverityLow
	tests := []struct {
		name string
		sevs []model.Severity
		want model.Severity
	}{
		{"one critical", []model.Severity{c}, c},
		{"critical with others", []model.Severity{l, m, h, c}, c},
		{"three high", []model.Severity{h, h, h}, h},
		{"high and two medium-high", []model.Severity{h, mh, mh}, h},
		{"two high", []model.Severity{h, h}, mh},
		{"one high", []model.Severity{h}, mh},
		{"three medium-high", []model.Severity{mh, mh, mh}, mh},
		{"two medium-high", []model.Severity{mh, mh}, m},
		{"two low", []model.Severity{l, l}, m},
		{"single medium", []model.Severity{m}, l},
		{"single low", []model.Severity{l}, l},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var risks []model.DetectedRisk
			for i, s := range tt.sevs {
				risks = append(risks, risk(i+1, s, "x"))
			}
			report := BuildReport(risks)
			assert.Equal(t, tt.want, report.Summary.RiskLevel)
			assert.Equal(t, recommendations[tt.want], report.Summary.Recommendation)
		})
	}
}

func TestBuildReportFormattedLists(t *testing.T) {
	r := risk(1, model.SeverityHigh, "termination")
	r.HiddenTricks = []string{"one", "two", "three"}
	r.NegotiationTips = nil
	r.ComparativeJustice = "fair is 30 days"

	report := BuildReport([]model.DetectedRisk{r})
	require.Len(t, report.RiskyClauses, 1)
	assert.Equal(t, "⚠️ 1. plain termination", report.RiskyClauses[0])
	assert.Equal(t, []string{"1. one | two"}, report.HiddenTricks)
	assert.Equal(t, []string{"1. " + defaultNegotiationTip}, report.NegotiationTips)
	assert.Equal(t, []string{"1. fair is 30 days"}, report.ComparativeJustice)
}

func TestCategoriesMatchRuleOutput(t *testing.T) {
	text := "The Company may terminate this agreement without cause. Customer is liable for all damages. " +
		"Disputes go to binding arbitration. Fees are non-refundable. Venue shall lie exclusively in Delaware."
	risks := NewRuleAnalyzer(nil).Analyze(text, "", model.ContractGeneral)
	require.NotEmpty(t, risks)

	distinct := make(map[string]bool)
	for _, r := range risks {
		distinct[r.Category] = true
	}
	var want []string
	for c := range distinct {
		want = append(want, c)
	}
	sort.Strings(want)

	assert.Equal(t, want, BuildReport(risks).Summary.CategoriesAffected)
}
