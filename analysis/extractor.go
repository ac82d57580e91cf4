package analysis

import (
	"regexp"
	"strings"

	"github.com/Vishnulak/PRELEX-GENAI/model"
)

var (
	partyPatterns = compileAll(
		`between\s+([^,\(]+(?:\([^)]+\))?)\s+(?:and|&)`,
		`(?:Client|Customer|Buyer|Tenant|Lessee|Contractor|Employee)[:\s]+([^,\.\n]+)`,
		`(?:Company|Provider|Seller|Landlord|Lessor|Employer)[:\s]+([^,\.\n]+)`,
		`(?:Corp\.|Corporation|LLC|Ltd\.?|Inc\.?)[,\s]*([^,\.\n]+)`,
		`"([^"]+)"[,\s]+(?:a|an)\s+(?:corporation|company|LLC)`,
	)

	datePatterns = compileAll(
		`(?:dated?|effective|starting|begins?|ends?|expires?|due|term.*(?:begins|ends))\s+([A-Za-z]+ \d{1,2},? \d{4})`,
		`(?:on|by|before|after|until|from)\s+([A-Za-z]+ \d{1,2},? \d{4})`,
		`\b(\d{1,2}[/-]\d{1,2}[/-]\d{4})\b`,
		`(?:term.*of|period.*of|duration.*of)\s+(\d+\s+(?:years?|months?|days?))`,
	)

	amountPatterns = compileAll(
		`\$([\d,]+(?:\.\d{2})?)`,
		`(?:fee|cost|price|amount|payment|salary|wage|penalty|fine|deposit)\s+(?:of\s+)?\$?([\d,]+(?:\.\d{2})?)`,
		`(?:dollars?|USD)\s+([\d,]+(?:\.\d{2})?)`,
		`(?:total|sum|aggregate)\s+(?:of\s+)?\$?([\d,]+(?:\.\d{2})?)`,
	)

	parentheticalRe = regexp.MustCompile(`\s*\([^)]*\)`)
	sentenceRe      = regexp.MustCompile(`[^.!?\n]+[.!?]?`)

	paymentTopicRe     = regexp.MustCompile(`(?i)\b(?:pay|payment|invoice|fee|compensation|salary)s?\b`)
	penaltyTopicRe     = regexp.MustCompile(`(?i)\b(?:penalt(?:y|ies)|liquidated|late\s+fee|forfeit)`)
	terminationTopicRe = regexp.MustCompile(`(?i)\bterminat(?:e|ed|es|ion)\b`)
)

const maxTopicSentences = 3

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// ExtractKeyInfo pulls candidate parties, dates and amounts out of text. The
// result is deliberately over-inclusive.
func ExtractKeyInfo(text string) model.ExtractedKeyInfo {
	info := model.ExtractedKeyInfo{
		Parties: []string{},
		Dates:   findAll(datePatterns, text),
		Amounts: findAll(amountPatterns, text),
	}

	seen := make(map[string]bool)
	for _, m := range findAll(partyPatterns, text) {
		clean := strings.TrimSpace(parentheticalRe.ReplaceAllString(m, ""))
		if len(clean) > 2 && !seen[clean] {
			seen[clean] = true
			info.Parties = append(info.Parties, clean)
		}
	}

	info.PaymentTerms = topicSentences(text, paymentTopicRe)
	info.PenaltyClauses = topicSentences(text, penaltyTopicRe)
	info.TerminationClauses = topicSentences(text, terminationTopicRe)
	return info
}

// findAll returns, for every pattern in order, the first capture group of each
// match, or the whole match when the pattern has no group.
func findAll(patterns []*regexp.Regexp, text string) []string {
	out := []string{}
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m) > 1 {
				out = append(out, m[1])
			} else {
				out = append(out, m[0])
			}
		}
	}
	return out
}

func topicSentences(text string, topic *regexp.Regexp) []string {
	out := []string{}
	for _, s := range sentenceRe.FindAllString(text, -1) {
		s = strings.Join(strings.Fields(s), " ")
		if s == "" || !topic.MatchString(s) {
			continue
		}
		out = append(out, truncateRunes(s, maxClauseChars))
		if len(out) == maxTopicSentences {
			break
		}
	}
	return out
}
