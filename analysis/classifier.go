package analysis

import (
	"strings"

	"github.com/Vishnulak/PRELEX-GENAI/model"
)

type keywordRule struct {
	Type     model.ContractType
	Keywords []string
}

// Checked in order; the first rule with any keyword present wins.
var contractTypeRules = []keywordRule{
	{model.ContractEmployment, []string{"employee", "employment", "job", "position", "salary", "wages"}},
	{model.ContractSoftware, []string{"software", "application", "development", "coding", "programming"}},
	{model.ContractRental, []string{"lease", "rent", "tenant", "landlord", "property"}},
	{model.ContractService, []string{"service", "consulting", "professional services"}},
	{model.ContractSales, []string{"purchase", "sale", "buy", "sell", "goods"}},
}

// ClassifyContract maps document text to a contract type. Keywords are matched
// as substrings of the lower-cased text, so "parent" counts as "rent".
func ClassifyContract(text string) model.ContractType {
	lower := strings.ToLower(text)
	for _, rule := range contractTypeRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Type
			}
		}
	}
	return model.ContractGeneral
}
