package model

import (
	"fmt"
	"regexp"
)

// Severity is the ordered risk level of a clause. Lower values are more severe.
type Severity int

const (
	SeverityCritical Severity = iota
	SeverityHigh
	SeverityMediumHigh
	SeverityMedium
	SeverityLow
)

var severityNames = [...]string{
	SeverityCritical:   "critical",
	SeverityHigh:       "high",
	SeverityMediumHigh: "medium-high",
	SeverityMedium:     "medium",
	SeverityLow:        "low",
}

// Severities lists every severity from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMediumHigh, SeverityMedium, SeverityLow}

// Rank returns the sort rank of the severity (critical=0 ... low=4).
func (s Severity) Rank() int { return int(s) }

// Valid reports whether s is one of the five defined severities.
func (s Severity) Valid() bool {
	return s >= SeverityCritical && s <= SeverityLow
}

func (s Severity) String() string {
	if !s.Valid() {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity maps the wire name of a severity back to its value.
func ParseSeverity(name string) (Severity, error) {
	for i, n := range severityNames {
		if n == name {
			return Severity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", name)
}

func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(severityNames[s]), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ContractType is the coarse document class used to pick catalog overlays.
type ContractType string

const (
	ContractEmployment ContractType = "employment"
	ContractSoftware   ContractType = "software"
	ContractRental     ContractType = "rental"
	ContractService    ContractType = "service"
	ContractSales      ContractType = "sales"
	ContractGeneral    ContractType = "general"
)

// ContractTypes lists every contract type the classifier can return.
var ContractTypes = []ContractType{
	ContractEmployment,
	ContractSoftware,
	ContractRental,
	ContractService,
	ContractSales,
	ContractGeneral,
}

// RiskSignature is one entry of the risk catalog. Signatures are built once at
// startup and never mutated.
type RiskSignature struct {
	Key                string
	Patterns           []*regexp.Regexp
	Severity           Severity
	Category           string
	PlainEnglish       string
	HiddenTricks       []string
	Consequences       []string
	NegotiationTips    []string
	ComparativeJustice string
	RedFlags           []string
}

// DetectedRisk is a single risky clause found in a document.
type DetectedRisk struct {
	ClauseNumber       int      `json:"clause_number"`
	ClauseText         string   `json:"clause_text"`
	PlainEnglish       string   `json:"plain_english"`
	HiddenTricks       []string `json:"hidden_tricks"`
	Consequences       []string `json:"real_world_consequences"`
	NegotiationTips    []string `json:"negotiation_tips"`
	ComparativeJustice string   `json:"comparative_justice"`
	Severity           Severity `json:"severity"`
	Category           string   `json:"risk_category"`
	RedFlags           []string `json:"red_flags"`

	// Signature and PatternIndex identify the catalog rule that fired. They
	// are empty/-1 for risks reported by the generative backend.
	Signature    string `json:"signature,omitempty"`
	PatternIndex int    `json:"pattern_index"`
}

// ReportSummary is the severity breakdown of an analysis.
type ReportSummary struct {
	TotalRisks         int      `json:"total_risks"`
	RiskLevel          Severity `json:"risk_level"`
	Recommendation     string   `json:"recommendation"`
	CriticalRisks      int      `json:"critical_risks"`
	HighRisks          int      `json:"high_risks"`
	MediumHighRisks    int      `json:"medium_high_risks"`
	MediumRisks        int      `json:"medium_risks"`
	LowRisks           int      `json:"low_risks"`
	CategoriesAffected []string `json:"categories_affected"`
	MostSevere         string   `json:"most_severe"`
}

// AnalysisReport is the aggregated, severity-ordered view of detected risks.
type AnalysisReport struct {
	Risks              []DetectedRisk `json:"detailed_clauses"`
	RiskyClauses       []string       `json:"risky_clauses"`
	HiddenTricks       []string       `json:"hidden_tricks"`
	Consequences       []string       `json:"real_world_consequences"`
	NegotiationTips    []string       `json:"negotiation_tips"`
	ComparativeJustice []string       `json:"comparative_justice"`
	Summary            ReportSummary  `json:"summary"`
}

// ExtractedKeyInfo holds candidate facts pulled from a document by regex.
type ExtractedKeyInfo struct {
	Parties            []string `json:"parties"`
	Dates              []string `json:"dates"`
	Amounts            []string `json:"amounts"`
	PaymentTerms       []string `json:"payment_terms"`
	PenaltyClauses     []string `json:"penalty_clauses"`
	TerminationClauses []string `json:"termination_clauses"`
}
