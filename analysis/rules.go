package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Vishnulak/PRELEX-GENAI/model"
)

const (
	// MaxRisks caps the number of risks reported per document.
	MaxRisks = 10

	contextWindow  = 100
	maxClauseChars = 200
	maxSurfaced    = 2
)

var sentenceSplitRe = regexp.MustCompile(`[.!?]+`)

// RuleAnalyzer scans text against the signature catalog.
type RuleAnalyzer struct {
	catalog *Catalog
}

// NewRuleAnalyzer returns an analyzer over catalog, or the default catalog
// when catalog is nil.
func NewRuleAnalyzer(catalog *Catalog) *RuleAnalyzer {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &RuleAnalyzer{catalog: catalog}
}

// Catalog returns the catalog the analyzer scans with.
func (a *RuleAnalyzer) Catalog() *Catalog { return a.catalog }

// Analyze returns at most MaxRisks risks in severity order, one per signature.
// Each signature reports only the first of its patterns that matches.
func (a *RuleAnalyzer) Analyze(text, summary string, ct model.ContractType) []model.DetectedRisk {
	full := text + "\n\n" + summary
	risks := []model.DetectedRisk{}

	for _, sig := range a.catalog.Effective(ct) {
		for i, re := range sig.Patterns {
			loc := re.FindStringIndex(full)
			if loc == nil {
				continue
			}
			risks = append(risks, newRuleRisk(len(risks)+1, sig, i, clauseExcerpt(full, loc[0], loc[1])))
			break
		}
		if len(risks) >= MaxRisks {
			break
		}
	}
	return risks
}

func newRuleRisk(n int, sig *model.RiskSignature, pattern int, clause string) model.DetectedRisk {
	return model.DetectedRisk{
		ClauseNumber:       n,
		ClauseText:         clause,
		PlainEnglish:       sig.PlainEnglish,
		HiddenTricks:       firstN(sig.HiddenTricks, maxSurfaced),
		Consequences:       firstN(sig.Consequences, maxSurfaced),
		NegotiationTips:    firstN(sig.NegotiationTips, maxSurfaced),
		ComparativeJustice: sig.ComparativeJustice,
		Severity:           sig.Severity,
		Category:           sig.Category,
		RedFlags:           append([]string{}, sig.RedFlags...),
		Signature:          sig.Key,
		PatternIndex:       pattern,
	}
}

// clauseExcerpt takes contextWindow runes either side of [start,end), splits
// the window into sentence fragments and keeps the middle ones.
func clauseExcerpt(s string, start, end int) string {
	from := start
	for i := 0; i < contextWindow && from > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(s[:from])
		from -= size
	}
	to := end
	for i := 0; i < contextWindow && to < len(s); i++ {
		_, size := utf8.DecodeRuneInString(s[to:])
		to += size
	}

	parts := sentenceSplitRe.Split(s[from:to], -1)
	mid := len(parts) / 2
	lo := mid - 1
	if lo < 0 {
		lo = 0
	}
	hi := mid + 2
	if hi > len(parts) {
		hi = len(parts)
	}

	clause := strings.Join(strings.Fields(strings.Join(parts[lo:hi], " ")), " ")
	return truncateRunes(clause, maxClauseChars)
}

// truncateRunes shortens s to at most limit runes, ending in "..." when cut.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		items = items[:n]
	}
	return append([]string{}, items...)
}
