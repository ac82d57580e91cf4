package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Vishnulak/PRELEX-GENAI/model"
	"github.com/Vishnulak/PRELEX-GENAI/pkg/logger"
)

const maxSummaryPromptChars = 100000

var summaryGenerationParams = GenerationParams{Temperature: 0.3, MaxTokens: 2500, TopP: 0.9, TopK: 40}

var contractDescriptions = map[model.ContractType]string{
	model.ContractEmployment: "job or employment contract that defines your work relationship",
	model.ContractSoftware:   "software service agreement that governs your use of technology services",
	model.ContractRental:     "rental or lease agreement for property or equipment",
	model.ContractService:    "professional service contract for specific work to be performed",
	model.ContractSales:      "purchase or sales agreement for goods or products",
	model.ContractGeneral:    "legal agreement that creates binding obligations",
}

// Summarizer writes the plain-English overview that precedes risk analysis.
type Summarizer struct {
	gen Generator
}

func NewSummarizer(gen Generator) *Summarizer {
	return &Summarizer{gen: gen}
}

// Summarize returns a summary and the method used to produce it.
func (s *Summarizer) Summarize(ctx context.Context, text string, info model.ExtractedKeyInfo, ct model.ContractType) (string, string) {
	if s.gen != nil {
		out, err := s.gen.Generate(ctx, buildSummaryPrompt(text, info, ct), summaryGenerationParams)
		if err == nil && strings.TrimSpace(out) != "" {
			return strings.TrimSpace(out), model.MethodGenerative
		}
		if err == nil {
			err = errors.New("empty summary")
		}
		logger.Warn(ctx, "generative summary failed, using fallback", "error", err)
	}
	return FallbackSummary(info, ct), model.MethodFallback
}

func buildSummaryPrompt(text string, info model.ExtractedKeyInfo, ct model.ContractType) string {
	return fmt.Sprintf(`You are a professional legal analyst helping ordinary people understand complex legal documents.

CONTRACT TYPE: %s

DOCUMENT TEXT:
%s

KEY INFORMATION:
- Parties: %s
- Dates: %s
- Amounts: %s

Create a comprehensive summary with these sections:

**Document Overview**
Explain what type of agreement this is and its purpose.

**Parties and Relationships**
Describe the main parties and their roles.

**Key Terms and Obligations**
Cover main services, financial commitments, timelines, and performance expectations.

**Rights and Responsibilities**
Explain what each party gets and must provide.

**Important Provisions**
Describe termination, penalties, dispute resolution, and modification terms.

**Professional Assessment**
Provide balanced evaluation including potential risks and recommendations.

Write in clear, professional language without legal jargon. Use flowing paragraphs, not bullet points.
`, titleCase(string(ct)), headRunes(text, maxSummaryPromptChars),
		strings.Join(firstN(info.Parties, 3), ", "),
		strings.Join(firstN(info.Dates, 3), ", "),
		strings.Join(firstN(info.Amounts, 5), ", "))
}

// FallbackSummary builds a deterministic summary from key info alone.
func FallbackSummary(info model.ExtractedKeyInfo, ct model.ContractType) string {
	desc, ok := contractDescriptions[ct]
	if !ok {
		desc = "legal agreement"
	}

	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	line("**Document Overview**")
	line(fmt.Sprintf("This is a %s between the parties listed below. ", desc))
	line(fmt.Sprintf("The agreement establishes terms for %s services and defines rights and obligations.", strings.ReplaceAll(string(ct), "_", " ")))
	line("")

	line("**Parties and Relationships**")
	if len(info.Parties) > 0 {
		line("The main parties are: " + strings.Join(firstN(info.Parties, 4), ", ") + ". Each party has specific roles and responsibilities.")
	} else {
		line("Multiple parties are involved with specific roles defined in the document.")
	}
	line("")

	line("**Key Terms and Obligations**")
	if len(info.Amounts) > 0 {
		line("Financial aspects include: " + strings.Join(firstN(info.Amounts, 4), ", "))
	}
	if len(info.Dates) > 0 {
		line("Important dates include: " + strings.Join(firstN(info.Dates, 3), ", "))
	}
	line("")

	line("**Rights and Responsibilities**")
	line("Each party has defined rights and must fulfill certain obligations. ")
	line("Your rights include receiving agreed services. Your responsibilities include making payments and complying with terms.")
	line("")

	line("**Important Provisions**")
	line("The contract includes provisions regarding termination, dispute resolution, and modifications. ")
	switch ct {
	case model.ContractEmployment:
		line("Pay attention to non-compete restrictions, overtime provisions, and termination procedures. ")
	case model.ContractSoftware:
		line("Review data usage rights, service levels, and automatic renewal terms. ")
	}
	line("")

	line("**Professional Assessment**")
	line(fmt.Sprintf("This %s creates binding legal obligations. ", desc))
	b.WriteString("Review terms carefully to ensure fairness. Consider legal advice for significant commitments.")
	return b.String()
}
