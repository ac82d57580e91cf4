package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Vishnulak/PRELEX-GENAI/model"
)

// Recommendation text per overall risk level.
var recommendations = map[model.Severity]string{
	model.SeverityCritical:   "DANGER: Contains critical risks. DO NOT SIGN without legal review.",
	model.SeverityHigh:       "HIGH RISK: Multiple concerning clauses. Legal review recommended.",
	model.SeverityMediumHigh: "CAUTION: Several risky terms worth addressing.",
	model.SeverityMedium:     "REVIEW NEEDED: Some problematic clauses to negotiate.",
	model.SeverityLow:        "RELATIVELY SAFE: Minimal risks identified.",
}

// NoRisksRecommendation is used when nothing was detected.
const NoRisksRecommendation = "This document appears to have standard terms with minimal risks."

var severityIcons = map[model.Severity]string{
	model.SeverityCritical:   "🚨",
	model.SeverityHigh:       "⚠️",
	model.SeverityMediumHigh: "⚡",
	model.SeverityMedium:     "📋",
	model.SeverityLow:        "ℹ️",
}

// BuildReport aggregates risks from either analyzer into a report. The input
// slice is not modified.
func BuildReport(risks []model.DetectedRisk) model.AnalysisReport {
	report := model.AnalysisReport{
		Risks:              []model.DetectedRisk{},
		RiskyClauses:       []string{},
		HiddenTricks:       []string{},
		Consequences:       []string{},
		NegotiationTips:    []string{},
		ComparativeJustice: []string{},
		Summary: model.ReportSummary{
			RiskLevel:          model.SeverityLow,
			Recommendation:     NoRisksRecommendation,
			CategoriesAffected: []string{},
			MostSevere:         "none",
		},
	}
	if len(risks) == 0 {
		return report
	}

	sorted := append([]model.DetectedRisk(nil), risks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Severity != sorted[j].Severity {
			return sorted[i].Severity.Rank() < sorted[j].Severity.Rank()
		}
		return sorted[i].ClauseNumber < sorted[j].ClauseNumber
	})
	report.Risks = sorted

	counts := make(map[model.Severity]int, len(model.Severities))
	categories := make(map[string]bool)
	for i, r := range sorted {
		n := i + 1
		counts[r.Severity]++
		categories[r.Category] = true

		report.RiskyClauses = append(report.RiskyClauses, fmt.Sprintf("%s %d. %s", severityIcons[r.Severity], n, r.PlainEnglish))
		report.HiddenTricks = append(report.HiddenTricks, numbered(n, r.HiddenTricks, r.PlainEnglish))
		report.Consequences = append(report.Consequences, numbered(n, r.Consequences, defaultConsequence))
		report.NegotiationTips = append(report.NegotiationTips, numbered(n, r.NegotiationTips, defaultNegotiationTip))
		justice := r.ComparativeJustice
		if justice == "" {
			justice = defaultComparativeJustice
		}
		report.ComparativeJustice = append(report.ComparativeJustice, fmt.Sprintf("%d. %s", n, justice))
	}

	level := riskLevel(counts, len(sorted))
	s := &report.Summary
	s.TotalRisks = len(sorted)
	s.RiskLevel = level
	s.Recommendation = recommendations[level]
	s.CriticalRisks = counts[model.SeverityCritical]
	s.HighRisks = counts[model.SeverityHigh]
	s.MediumHighRisks = counts[model.SeverityMediumHigh]
	s.MediumRisks = counts[model.SeverityMedium]
	s.LowRisks = counts[model.SeverityLow]
	s.MostSevere = sorted[0].Severity.String()
	for c := range categories {
		s.CategoriesAffected = append(s.CategoriesAffected, c)
	}
	sort.Strings(s.CategoriesAffected)
	return report
}

// riskLevel applies the fixed precedence table to severity counts.
func riskLevel(counts map[model.Severity]int, total int) model.Severity {
	critical := counts[model.SeverityCritical]
	high := counts[model.SeverityHigh]
	mediumHigh := counts[model.SeverityMediumHigh]

	switch {
	case critical >= 1:
		return model.SeverityCritical
	case high >= 3 || (high >= 1 && mediumHigh >= 2):
		return model.SeverityHigh
	case high >= 1 || mediumHigh >= 3:
		return model.SeverityMediumHigh
	case total >= 2:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

func numbered(n int, items []string, fallback string) string {
	items = firstN(items, maxSurfaced)
	if len(items) == 0 {
		items = []string{fallback}
	}
	return fmt.Sprintf("%d. %s", n, strings.Join(items, " | "))
}
