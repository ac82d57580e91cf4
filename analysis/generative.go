package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Vishnulak/PRELEX-GENAI/model"
	"github.com/Vishnulak/PRELEX-GENAI/pkg/logger"
)

// Prompt budgets for the generative risk pass.
const (
	maxPromptTextChars    = 12000
	maxPromptSummaryChars = 2000
)

var (
	// ErrBackendUnavailable means no generative backend is configured.
	ErrBackendUnavailable = errors.New("generative backend unavailable")
	// ErrMalformedResponse means the backend answered but not in the agreed shape.
	ErrMalformedResponse = errors.New("malformed generative response")

	fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
)

// BackendError wraps a failure reported by the generative backend.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string { return fmt.Sprintf("generative backend %s: %v", e.Op, e.Err) }

func (e *BackendError) Unwrap() error { return e.Err }

// GenerationParams are the sampling settings sent with a prompt.
type GenerationParams struct {
	Temperature float32
	MaxTokens   int32
	TopP        float32
	TopK        float32
}

// Generator produces a text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

var riskGenerationParams = GenerationParams{Temperature: 0.1, MaxTokens: 4000, TopP: 0.8, TopK: 20}

// RiskAnalyzer asks the generative backend first and falls back to the rule
// analyzer on any failure.
type RiskAnalyzer struct {
	gen   Generator
	rules *RuleAnalyzer
}

// NewRiskAnalyzer builds a RiskAnalyzer. gen may be nil, in which case every
// call goes straight to the rules.
func NewRiskAnalyzer(gen Generator, rules *RuleAnalyzer) *RiskAnalyzer {
	if rules == nil {
		rules = NewRuleAnalyzer(nil)
	}
	return &RiskAnalyzer{gen: gen, rules: rules}
}

// Analyze returns the detected risks and the method that produced them. It
// never fails; backend problems are logged and answered by the rules.
func (a *RiskAnalyzer) Analyze(ctx context.Context, text, summary string, ct model.ContractType) ([]model.DetectedRisk, string) {
	risks, err := a.generate(ctx, text, summary, ct)
	if err == nil {
		return risks, model.MethodGenerative
	}
	if !errors.Is(err, ErrBackendUnavailable) {
		logger.Warn(ctx, "generative risk analysis failed, using rules", "error", err)
	}
	return a.rules.Analyze(text, summary, ct), model.MethodRules
}

func (a *RiskAnalyzer) generate(ctx context.Context, text, summary string, ct model.ContractType) ([]model.DetectedRisk, error) {
	if a.gen == nil {
		return nil, ErrBackendUnavailable
	}
	resp, err := a.gen.Generate(ctx, buildRiskPrompt(text, summary, ct), riskGenerationParams)
	if err != nil {
		return nil, err
	}
	return ParseRiskResponse(resp)
}

// generatedRisk is the wire shape requested from the model.
type generatedRisk struct {
	ClauseNumber       int        `json:"clause_number"`
	ClauseText         string     `json:"clause_text"`
	PlainEnglish       string     `json:"plain_english"`
	HiddenTricks       stringList `json:"hidden_tricks"`
	Consequences       stringList `json:"real_world_consequences"`
	NegotiationTips    stringList `json:"negotiation_tips"`
	ComparativeJustice string     `json:"comparative_justice"`
	Severity           string     `json:"severity"`
	Category           string     `json:"risk_category"`
	RedFlags           stringList `json:"red_flags"`
}

// stringList accepts either a JSON array of strings or a single string.
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*l = stringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// ParseRiskResponse is the single parse-or-fail boundary for model output. Any
// error returned wraps ErrMalformedResponse.
func ParseRiskResponse(resp string) ([]model.DetectedRisk, error) {
	payload, err := locateJSON(resp)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		RiskyClauses *[]generatedRisk `json:"risky_clauses"`
	}
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if envelope.RiskyClauses == nil {
		return nil, fmt.Errorf("%w: missing risky_clauses", ErrMalformedResponse)
	}

	risks := []model.DetectedRisk{}
	for i, g := range *envelope.RiskyClauses {
		if len(risks) == MaxRisks {
			break
		}
		sev, err := model.ParseSeverity(strings.ToLower(strings.TrimSpace(g.Severity)))
		if err != nil {
			return nil, fmt.Errorf("%w: clause %d: %v", ErrMalformedResponse, i+1, err)
		}
		if strings.TrimSpace(g.PlainEnglish) == "" {
			return nil, fmt.Errorf("%w: clause %d has no plain_english", ErrMalformedResponse, i+1)
		}

		r := model.DetectedRisk{
			ClauseNumber:       g.ClauseNumber,
			ClauseText:         truncateRunes(strings.Join(strings.Fields(g.ClauseText), " "), maxClauseChars),
			PlainEnglish:       g.PlainEnglish,
			HiddenTricks:       firstN(g.HiddenTricks, maxSurfaced),
			Consequences:       firstN(g.Consequences, maxSurfaced),
			NegotiationTips:    firstN(g.NegotiationTips, maxSurfaced),
			ComparativeJustice: g.ComparativeJustice,
			Severity:           sev,
			Category:           g.Category,
			RedFlags:           append([]string{}, g.RedFlags...),
			PatternIndex:       -1,
		}
		if r.ClauseNumber <= 0 {
			r.ClauseNumber = i + 1
		}
		if len(r.HiddenTricks) == 0 {
			r.HiddenTricks = []string{r.PlainEnglish}
		}
		if len(r.Consequences) == 0 {
			r.Consequences = []string{defaultConsequence}
		}
		if len(r.NegotiationTips) == 0 {
			r.NegotiationTips = []string{defaultNegotiationTip}
		}
		if r.ComparativeJustice == "" {
			r.ComparativeJustice = defaultComparativeJustice
		}
		if r.Category == "" {
			r.Category = "other"
		}
		risks = append(risks, r)
	}
	return risks, nil
}

// locateJSON finds the JSON object in a fenced block or, failing that, the
// outermost brace span.
func locateJSON(resp string) (string, error) {
	resp = strings.TrimSpace(resp)
	if m := fenceRe.FindStringSubmatch(resp); len(m) > 1 {
		candidate := strings.TrimSpace(m[1])
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	start := strings.Index(resp, "{")
	end := strings.LastIndex(resp, "}")
	if start == -1 || end <= start {
		return "", fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}
	return resp[start : end+1], nil
}

func buildRiskPrompt(text, summary string, ct model.ContractType) string {
	var guidance string
	switch ct {
	case model.ContractEmployment:
		guidance = `
Pay special attention to:
- Non-compete clauses and geographic/time restrictions
- Wage and hour provisions, overtime exemptions
- Intellectual property assignments
- At-will employment modifications
- Benefits and severance terms
`
	case model.ContractSoftware:
		guidance = `
Pay special attention to:
- Data usage and privacy rights
- Source code ownership and licensing
- Service level agreements and uptime guarantees
- Limitation of liability for software defects
- Automatic updates and feature changes
`
	}

	return fmt.Sprintf(`You are an expert legal analyst specializing in protecting consumers and small businesses from predatory contract terms.

CONTRACT TYPE: %s
%s
DOCUMENT TEXT (first %d chars):
%s

SUMMARY:
%s

Your task is to identify truly problematic clauses that could harm the person signing this contract. Focus on HIDDEN DANGERS and PREDATORY TERMS.

Provide a JSON response with this exact structure:

{
  "risky_clauses": [
    {
      "clause_number": 1,
      "clause_text": "exact problematic text from document (keep under 200 chars)",
      "plain_english": "simple explanation without legal jargon",
      "hidden_tricks": ["specific deceptive aspect 1", "specific deceptive aspect 2"],
      "real_world_consequences": ["concrete consequence 1", "concrete consequence 2"],
      "negotiation_tips": ["specific actionable tip 1", "specific actionable tip 2"],
      "comparative_justice": "how this compares to fair/standard industry practice",
      "severity": "critical|high|medium-high|medium|low",
      "risk_category": "financial|legal_rights|termination|liability|privacy|employment|other",
      "red_flags": ["key warning phrase 1", "key warning phrase 2"]
    }
  ]
}

REQUIREMENTS:
- Only include genuinely risky/unfair clauses
- Be very specific about hidden tricks and consequences
- Provide actionable negotiation advice
- Compare to industry standards
- Use simple language anyone can understand
- Maximum %d clauses, prioritize worst ones
- Include exact text quotes from the document
`, titleCase(string(ct)), guidance, maxPromptTextChars, headRunes(text, maxPromptTextChars), headRunes(summary, maxPromptSummaryChars), MaxRisks)
}

// headRunes returns at most n leading runes of s.
func headRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return strings.ToUpper(string(r)) + s[size:]
}
