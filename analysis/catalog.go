package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/Vishnulak/PRELEX-GENAI/model"
)

// Defaults for signature fields the table may leave empty.
const (
	defaultConsequence        = "Could result in financial or legal problems"
	defaultNegotiationTip     = "Negotiate better terms or seek legal advice"
	defaultComparativeJustice = "Review against industry standards"
)

// signatureConfig is the declarative form of a catalog entry.
type signatureConfig struct {
	Key                string
	Patterns           []string
	Severity           model.Severity
	Category           string
	PlainEnglish       string
	HiddenTricks       []string
	Consequences       []string
	NegotiationTips    []string
	ComparativeJustice string
	RedFlags           []string
}

// Catalog is the immutable set of risk signatures: a general list plus
// per-contract-type overlays.
type Catalog struct {
	general  []*model.RiskSignature
	overlays map[model.ContractType][]*model.RiskSignature
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the process-wide catalog, compiling it on first use.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := NewCatalog(generalSignatures, overlaySignatures)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// NewCatalog compiles signature tables into a Catalog.
func NewCatalog(general []signatureConfig, overlays map[model.ContractType][]signatureConfig) (*Catalog, error) {
	c := &Catalog{overlays: make(map[model.ContractType][]*model.RiskSignature, len(overlays))}
	seen := make(map[string]bool)

	for _, cfg := range general {
		sig, err := compileSignature(cfg)
		if err != nil {
			return nil, err
		}
		if seen[sig.Key] {
			return nil, fmt.Errorf("duplicate signature %q", sig.Key)
		}
		seen[sig.Key] = true
		c.general = append(c.general, sig)
	}

	for ct, cfgs := range overlays {
		for _, cfg := range cfgs {
			sig, err := compileSignature(cfg)
			if err != nil {
				return nil, err
			}
			if seen[sig.Key] {
				return nil, fmt.Errorf("duplicate signature %q", sig.Key)
			}
			seen[sig.Key] = true
			c.overlays[ct] = append(c.overlays[ct], sig)
		}
	}
	return c, nil
}

func compileSignature(cfg signatureConfig) (*model.RiskSignature, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("signature without key")
	}
	if len(cfg.Patterns) == 0 {
		return nil, fmt.Errorf("signature %q has no patterns", cfg.Key)
	}
	if !cfg.Severity.Valid() {
		return nil, fmt.Errorf("signature %q has invalid severity %d", cfg.Key, int(cfg.Severity))
	}

	sig := &model.RiskSignature{
		Key:                cfg.Key,
		Severity:           cfg.Severity,
		Category:           cfg.Category,
		PlainEnglish:       cfg.PlainEnglish,
		HiddenTricks:       cfg.HiddenTricks,
		Consequences:       cfg.Consequences,
		NegotiationTips:    cfg.NegotiationTips,
		ComparativeJustice: cfg.ComparativeJustice,
		RedFlags:           cfg.RedFlags,
	}
	for i, p := range cfg.Patterns {
		re, err := regexp.Compile(`(?im)` + p)
		if err != nil {
			return nil, fmt.Errorf("signature %q pattern %d: %w", cfg.Key, i, err)
		}
		sig.Patterns = append(sig.Patterns, re)
	}

	if sig.Category == "" {
		sig.Category = "general"
	}
	if len(sig.HiddenTricks) == 0 {
		sig.HiddenTricks = []string{sig.PlainEnglish}
	}
	if len(sig.Consequences) == 0 {
		sig.Consequences = []string{defaultConsequence}
	}
	if len(sig.NegotiationTips) == 0 {
		sig.NegotiationTips = []string{defaultNegotiationTip}
	}
	if sig.ComparativeJustice == "" {
		sig.ComparativeJustice = defaultComparativeJustice
	}
	if sig.RedFlags == nil {
		sig.RedFlags = []string{}
	}
	return sig, nil
}

// Effective returns the general signatures plus the overlay for ct, stably
// sorted by severity. The returned slice is fresh; the signatures are shared.
func (c *Catalog) Effective(ct model.ContractType) []*model.RiskSignature {
	out := make([]*model.RiskSignature, 0, len(c.general)+len(c.overlays[ct]))
	out = append(out, c.general...)
	out = append(out, c.overlays[ct]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() < out[j].Severity.Rank()
	})
	return out
}

// GeneralCount is the number of signatures applied to every document.
func (c *Catalog) GeneralCount() int { return len(c.general) }

// OverlayCount is the number of type-specific signatures for ct.
func (c *Catalog) OverlayCount(ct model.ContractType) int { return len(c.overlays[ct]) }

// OverlayTypes returns the contract types that carry extra signatures.
func (c *Catalog) OverlayTypes() []model.ContractType {
	var out []model.ContractType
	for _, ct := range model.ContractTypes {
		if len(c.overlays[ct]) > 0 {
			out = append(out, ct)
		}
	}
	return out
}

// Lookup finds a signature by key in the general list or any overlay.
func (c *Catalog) Lookup(key string) (*model.RiskSignature, bool) {
	for _, s := range c.general {
		if s.Key == key {
			return s, true
		}
	}
	for _, sigs := range c.overlays {
		for _, s := range sigs {
			if s.Key == key {
				return s, true
			}
		}
	}
	return nil, false
}

var generalSignatures = []signatureConfig{
	{
		Key: "termination_without_cause",
		Patterns: []string{
			`terminat(?:e|ion).*without.*(?:cause|reason|notice)`,
			`(?:may|can|shall).*terminat(?:e|ion).*(?:at.*will|immediately|discretion)`,
			`right.*to.*terminat(?:e|ion).*for.*any.*reason`,
			`end.*(?:this.*agreement|contract).*without.*(?:cause|reason)`,
			`cancel(?:lation)?.*without.*(?:notice|cause|penalty)`,
		},
		Severity:     model.SeverityHigh,
		Category:     "termination",
		PlainEnglish: "They can cancel your contract anytime without giving you a reason",
		HiddenTricks: []string{
			"No advance warning required - you could lose everything instantly",
			"They keep all payments made, even for unused services",
			"You have no recourse or compensation for sudden termination",
			"Often paired with non-refund clauses to maximize their protection",
		},
		Consequences: []string{
			"Immediate loss of services you've paid for",
			"Business disruption if you depend on their services",
			"Lost time and money finding replacement services",
			"Potential legal costs with no guarantee of recovery",
		},
		NegotiationTips: []string{
			"Demand 30-60 days written notice minimum",
			"Require them to state a valid business reason",
			"Negotiate pro-rated refund for unused services",
			"Add penalty clause if they terminate without cause",
			"Include transition assistance provision",
		},
		ComparativeJustice: "Fair contracts require 30+ days notice and valid cause. Consumer protection laws in many states require reasonable notice.",
		RedFlags:           []string{"immediate termination", "sole discretion", "any reason", "without notice"},
	},
	{
		Key: "unlimited_liability",
		Patterns: []string{
			`unlimited.*liability`,
			`liable.*for.*all.*(?:damages|costs|losses)`,
			`indemnify.*(?:and.*hold.*harmless|defend).*(?:from|against).*(?:all|any).*claims`,
			`personal.*guarantee.*for.*all`,
			`jointly.*and.*severally.*liable`,
			`responsible.*for.*all.*(?:legal.*costs|attorney.*fees|damages).*arising`,
		},
		Severity:     model.SeverityCritical,
		Category:     "financial_liability",
		PlainEnglish: "You are responsible for unlimited damages and costs if anything goes wrong",
		HiddenTricks: []string{
			"No cap on how much you could owe - could be millions",
			"You pay even if the problem wasn't your fault",
			"Includes their legal fees, not just damages",
			"May apply to actions of your employees or contractors",
			"Could affect your personal assets, not just business",
		},
		Consequences: []string{
			"Bankruptcy risk from unlimited financial exposure",
			"Personal assets at risk (house, savings, retirement)",
			"Credit destruction from judgments",
			"Inability to get future contracts or loans",
			"Family financial security threatened",
		},
		NegotiationTips: []string{
			"Cap total liability at contract value or reasonable amount",
			"Exclude liability for their negligence or willful misconduct",
			"Require mutual indemnification (both parties protect each other)",
			"Add insurance requirements instead of unlimited liability",
			"Limit liability to direct damages only, exclude consequential",
		},
		ComparativeJustice: "Standard business practice limits liability to contract amount. Unlimited liability is predatory and often unenforceable.",
		RedFlags:           []string{"unlimited", "all damages", "joint and several", "personal guarantee"},
	},
	{
		Key: "automatic_renewal_trap",
		Patterns: []string{
			`automatic(?:ally)?.*renew(?:al|s)?`,
			`renew(?:s|al).*automatic(?:ally)?.*unless.*(?:cancelled|terminated)`,
			`contract.*continues.*unless.*written.*notice`,
			`evergreen.*clause`,
			`perpetual.*renewal`,
			`notice.*(?:30|60|90).*days.*prior.*to.*renewal`,
		},
		Severity:     model.SeverityMediumHigh,
		Category:     "contract_terms",
		PlainEnglish: "Your contract automatically extends and charges you again unless you actively cancel",
		HiddenTricks: []string{
			"Short cancellation windows (often 30-90 days before renewal)",
			"Cancellation must be in writing, not just verbal",
			"New terms can be imposed with each renewal",
			"Price increases often take effect with renewal",
			"Forgetting to cancel locks you in for another full term",
		},
		Consequences: []string{
			"Unexpected charges on your credit card or bank account",
			"Locked into services you no longer need",
			"Difficulty canceling once auto-renewed",
			"Compounding costs over multiple renewal cycles",
			"Legal obligation to pay even if service quality declines",
		},
		NegotiationTips: []string{
			"Change to manual renewal requiring your active consent",
			"Extend cancellation notice period to 90+ days",
			"Require email reminders before renewal deadlines",
			"Allow cancellation at any time with pro-rated refund",
			"Lock in current pricing for future renewals",
		},
		ComparativeJustice: "Consumer-friendly contracts require opt-in renewal. Auto-renewal should have generous cancellation periods and clear notifications.",
		RedFlags:           []string{"automatic renewal", "evergreen", "unless cancelled", "perpetual"},
	},
	{
		Key: "binding_arbitration",
		Patterns: []string{
			`binding.*arbitration`,
			`disputes.*(?:must|shall).*be.*(?:resolved|settled).*(?:through|by).*arbitration`,
			`waive.*right.*to.*(?:jury|court|trial)`,
			`exclusive.*jurisdiction.*arbitration`,
			`class.*action.*waiver`,
			`mandatory.*arbitration`,
		},
		Severity:     model.SeverityHigh,
		Category:     "legal_rights",
		PlainEnglish: "You give up your right to sue them in court and must use private arbitration",
		HiddenTricks: []string{
			"Arbitrator is often chosen/paid by the company",
			"No jury of your peers - single arbitrator decides",
			"Limited ability to appeal unfavorable decisions",
			"Discovery process is restricted (less evidence allowed)",
			"Often combined with class action waivers",
		},
		Consequences: []string{
			"Loss of constitutional right to jury trial",
			"Higher costs for individual arbitration vs. court",
			"Arbitrators may favor repeat corporate clients",
			"Limited public record of disputes and outcomes",
			"Cannot join with other victims in class action",
		},
		NegotiationTips: []string{
			"Require mediation before arbitration",
			"Allow court option for claims under $10,000",
			"Mutually select neutral arbitrator",
			"Share arbitration costs equally",
			"Preserve right to seek injunctive relief in court",
		},
		ComparativeJustice: "Many states restrict forced arbitration. Supreme Court has limited some arbitration requirements in consumer contracts.",
		RedFlags:           []string{"binding arbitration", "waive right to court", "class action waiver"},
	},
	{
		Key: "liquidated_damages_penalty",
		Patterns: []string{
			`liquidated.*damages.*(?:of|equal.*to|\$)`,
			`penalty.*(?:of|equal.*to).*\$[\d,]+`,
			`forfeit.*(?:deposit|payment|fee).*(?:of|totaling)`,
			`damages.*(?:equal.*to|of).*(?:\d+.*times|multiple.*of)`,
			`punitive.*damages.*(?:of|\$)`,
			`breach.*results.*in.*payment.*of.*\$[\d,]+`,
		},
		Severity:     model.SeverityMediumHigh,
		Category:     "financial_penalties",
		PlainEnglish: "You must pay specific penalty amounts for breaking any part of the contract",
		HiddenTricks: []string{
			"Penalties often far exceed actual damages",
			"Apply to minor technical breaches, not just major ones",
			"No consideration of your ability to pay",
			"May be triggered by circumstances beyond your control",
			"Often non-negotiable once contract is signed",
		},
		Consequences: []string{
			"Large financial penalties for minor violations",
			"Double punishment (lose service AND pay penalty)",
			"Debt collection and credit damage if unpaid",
			"Legal costs to dispute unreasonable penalties",
			"Business cash flow problems from unexpected penalties",
		},
		NegotiationTips: []string{
			"Ensure penalties reflect reasonable estimate of actual damages",
			"Add materiality threshold (only for significant breaches)",
			"Require notice and cure period before penalties apply",
			"Cap penalties at reasonable percentage of contract value",
			"Make penalties mutual (they pay you if they breach too)",
		},
		ComparativeJustice: "Courts may refuse to enforce penalties that are grossly disproportionate to actual damages.",
		RedFlags:           []string{"liquidated damages", "penalty of $", "forfeit", "punitive damages"},
	},
	{
		Key: "unilateral_modification",
		Patterns: []string{
			`(?:may|can|reserves?.*the.*right.*to).*(?:modify|amend|change).*(?:this.*agreement|these.*terms|the.*terms).*(?:at.*any.*time|sole.*discretion|without.*(?:notice|consent))`,
			`(?:modify|amend|change).*(?:terms|pricing|fees).*(?:at.*any.*time|sole.*discretion)`,
			`continued.*use.*(?:constitutes|means).*acceptance.*of.*(?:the.*)?(?:changes|modified.*terms)`,
		},
		Severity:     model.SeverityMediumHigh,
		Category:     "contract_terms",
		PlainEnglish: "They can change the rules of the deal after you sign, without asking you",
		HiddenTricks: []string{
			"Changes can take effect without your signature",
			"Silence or continued use is treated as agreement",
			"Prices and obligations can shift mid-term",
		},
		Consequences: []string{
			"Paying more for the same service with no way out",
			"New obligations you never agreed to",
		},
		NegotiationTips: []string{
			"Require written mutual consent for any amendment",
			"Allow termination without penalty if terms change",
			"Require 30 days advance notice of any change",
		},
		ComparativeJustice: "Balanced contracts require both parties to sign amendments. One-sided change rights are often limited by courts in consumer settings.",
		RedFlags:           []string{"sole discretion", "at any time", "continued use constitutes acceptance"},
	},
	{
		Key: "non_refundable_trap",
		Patterns: []string{
			`non-?refundable`,
			`no.*refund(?:s)?.*(?:under|in).*any.*circumstance`,
			`all.*(?:payments|fees).*are.*final`,
			`deposits?.*(?:are|will.*be).*(?:retained|kept|forfeited)`,
			`payment.*not.*returnable`,
			`fees.*paid.*in.*advance.*non-?refundable`,
		},
		Severity:     model.SeverityMedium,
		Category:     "payment_terms",
		PlainEnglish: "You cannot get your money back under any circumstances, even if they fail to deliver",
		HiddenTricks: []string{
			"No refunds even if they breach the contract",
			"No refunds for services never provided",
			"No refunds if they go out of business",
			"May apply to large advance payments or deposits",
			"Often buried in fine print or addendums",
		},
		Consequences: []string{
			"Total loss of advance payments if service fails",
			"No recourse if company fails to perform",
			"Incentivizes company to take payment without delivering",
			"Financial loss even if you have legitimate complaints",
			"Difficulty getting credit card chargebacks",
		},
		NegotiationTips: []string{
			"Negotiate partial refunds for undelivered services",
			"Add performance milestones tied to payment schedule",
			"Include refund provisions for their material breach",
			"Limit non-refundable amounts to actual costs incurred",
			"Add escrow for large advance payments",
		},
		ComparativeJustice: "Consumer protection laws often override blanket non-refund clauses. Fair contracts provide refunds for non-performance.",
		RedFlags:           []string{"non-refundable", "no refunds", "payments are final", "deposits retained"},
	},
	{
		Key: "late_payment_penalty",
		Patterns: []string{
			`late.*(?:fee|charge|payment).*(?:of|equal.*to).*(?:\d+(?:\.\d+)?\s*%|\$[\d,]+)`,
			`interest.*(?:at|of).*\d+(?:\.\d+)?\s*%.*per.*(?:month|week|day)`,
		},
		Severity:     model.SeverityMedium,
		Category:     "payment_terms",
		PlainEnglish: "Paying even a little late triggers fees or high interest that add up fast",
		Consequences: []string{
			"Small delays turn into large balances",
			"Monthly interest compounds to well above legal lending rates",
		},
		NegotiationTips: []string{
			"Add a grace period of at least 10 days",
			"Cap late fees at a flat, modest amount",
		},
		ComparativeJustice: "Many jurisdictions cap late fees and interest; rates above a few percent per year are unusual in fair commercial terms.",
		RedFlags:           []string{"late fee", "per month", "interest"},
	},
	{
		Key: "perpetual_confidentiality",
		Patterns: []string{
			`confidential.*(?:in\s*perpetuity|perpetual(?:ly)?|indefinitely|survive.*indefinitely)`,
			`(?:obligations?|duty).*(?:of\s+)?confidentiality.*(?:shall\s+)?survive.*(?:forever|indefinitely|in\s*perpetuity)`,
		},
		Severity:     model.SeverityLow,
		Category:     "confidentiality",
		PlainEnglish: "You must keep their information secret forever, with no end date",
		Consequences: []string{
			"Lifelong exposure to breach claims",
		},
		NegotiationTips: []string{
			"Limit confidentiality to 2-5 years after the agreement ends",
			"Exclude information that becomes public",
		},
		ComparativeJustice: "Typical confidentiality terms last a few years except for genuine trade secrets.",
		RedFlags:           []string{"in perpetuity", "indefinitely"},
	},
	{
		Key: "distant_exclusive_venue",
		Patterns: []string{
			`exclusive.*jurisdiction.*(?:of\s+the\s+)?courts?\s+(?:of|in|located\s+in)`,
			`(?:venue|forum).*(?:shall|will|must).*(?:be|lie).*exclusively.*in`,
		},
		Severity:     model.SeverityLow,
		Category:     "legal_rights",
		PlainEnglish: "Any lawsuit must be filed in a court of their choosing, possibly far from you",
		Consequences: []string{
			"Travel and out-of-state counsel costs for any dispute",
		},
		NegotiationTips: []string{
			"Ask for venue in your home county or a neutral location",
		},
		ComparativeJustice: "Consumer laws in several states void forum clauses that force residents to litigate elsewhere.",
		RedFlags:           []string{"exclusive jurisdiction", "exclusively in"},
	},
}

var overlaySignatures = map[model.ContractType][]signatureConfig{
	model.ContractEmployment: {
		{
			Key: "non_compete_overreach",
			Patterns: []string{
				`non-?compete.*(?:for|period.*of).*(?:\d+.*years?|indefinitely)`,
				`shall.*not.*(?:compete|engage.*in.*similar.*business)`,
				`restraint.*of.*trade.*(?:for|during).*(?:\d+.*years?)`,
				`covenant.*not.*to.*compete.*(?:worldwide|nationally)`,
			},
			Severity:     model.SeverityHigh,
			Category:     "employment_restrictions",
			PlainEnglish: "You cannot work in your field for an unreasonably long time or broad area",
			Consequences: []string{"Loss of livelihood and career advancement opportunities"},
		},
		{
			Key: "ip_assignment_overreach",
			Patterns: []string{
				`all.*inventions.*(?:whether.*or.*not|regardless.*of).*(?:during.*working.*hours|using.*company)`,
				`assign.*(?:all|any).*(?:rights|intellectual.*property).*(?:conceived|created|developed).*(?:during.*(?:the\s+)?(?:term|employment))`,
			},
			Severity:     model.SeverityMediumHigh,
			Category:     "employment_restrictions",
			PlainEnglish: "The employer may own things you create on your own time",
			Consequences: []string{"Side projects and personal work can be claimed by the employer"},
			NegotiationTips: []string{
				"Limit assignment to work done on company time or with company resources",
				"List prior inventions that stay yours",
			},
		},
	},
	model.ContractSoftware: {
		{
			Key: "data_harvesting",
			Patterns: []string{
				`collect.*all.*(?:data|information|analytics).*generated`,
				`right.*to.*use.*(?:customer.*data|user.*information).*for.*any.*purpose`,
				`license.*to.*use.*(?:your.*data|information.*provided)`,
				`aggregate.*(?:data|information).*for.*(?:commercial|business).*purposes`,
			},
			Severity:     model.SeverityMediumHigh,
			Category:     "data_privacy",
			PlainEnglish: "They can collect and sell your business data and customer information",
			Consequences: []string{"Loss of competitive advantage and customer privacy"},
		},
		{
			Key: "as_is_no_warranty",
			Patterns: []string{
				`provided.*["']?as\s+is["']?.*without.*warrant(?:y|ies)`,
				`disclaims?.*all.*warrant(?:y|ies)`,
			},
			Severity:     model.SeverityMedium,
			Category:     "liability",
			PlainEnglish: "They promise nothing about whether the software works",
			Consequences: []string{"No remedy when defects cost you time or data"},
		},
	},
	model.ContractRental: {
		{
			Key: "security_deposit_forfeiture",
			Patterns: []string{
				`(?:security\s+)?deposit.*(?:shall|will).*be.*forfeited`,
				`landlord.*(?:may|shall).*retain.*(?:the\s+)?(?:entire|full).*deposit`,
			},
			Severity:     model.SeverityMediumHigh,
			Category:     "payment_terms",
			PlainEnglish: "You can lose your whole deposit, not just what repairs actually cost",
			Consequences: []string{"Losing a month or more of rent on move-out"},
			NegotiationTips: []string{
				"Require an itemized list of deductions within 30 days",
				"Do a signed move-in inspection",
			},
		},
		{
			Key: "landlord_entry_without_notice",
			Patterns: []string{
				`(?:landlord|lessor).*(?:may|can).*enter.*(?:at\s+any\s+time|without.*notice)`,
			},
			Severity:     model.SeverityMedium,
			Category:     "legal_rights",
			PlainEnglish: "The landlord can come into your home whenever they want",
			Consequences: []string{"Loss of privacy in your own home"},
		},
	},
	model.ContractService: {
		{
			Key: "unlimited_revisions",
			Patterns: []string{
				`unlimited.*(?:revisions|changes|modifications)`,
				`(?:additional|extra).*work.*(?:at\s+no\s+(?:additional\s+)?(?:cost|charge))`,
			},
			Severity:     model.SeverityMedium,
			Category:     "scope",
			PlainEnglish: "You may have to keep doing extra work without extra pay",
			Consequences: []string{"Projects that never end and never pay more"},
		},
	},
	model.ContractSales: {
		{
			Key: "risk_of_loss_on_buyer",
			Patterns: []string{
				`risk.*of.*loss.*(?:passes|shall\s+pass|transfers).*(?:to\s+)?(?:the\s+)?buyer.*(?:upon|at).*(?:shipment|delivery\s+to\s+(?:the\s+)?carrier)`,
			},
			Severity:     model.SeverityMediumHigh,
			Category:     "financial_liability",
			PlainEnglish: "You pay for goods that get lost or damaged before they even reach you",
			Consequences: []string{"Paying for goods you never receive"},
		},
		{
			Key: "no_returns",
			Patterns: []string{
				`all.*sales.*(?:are\s+)?final`,
				`no.*returns?.*(?:or|and).*(?:exchanges?|refunds?)`,
			},
			Severity:     model.SeverityMedium,
			Category:     "payment_terms",
			PlainEnglish: "You cannot return or exchange what you buy",
		},
	},
}
