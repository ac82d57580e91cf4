package model

import (
	"time"
)

// Document is an analyzed upload kept in the in-memory history
type Document struct {
	ID         string          `json:"id"`
	Filename   string          `json:"filename"`
	Tenant     string          `json:"tenant"`
	FileSize   int64           `json:"file_size"`
	MimeType   string          `json:"mime_type"`
	ArchiveURL string          `json:"archive_url,omitempty"`
	Result     *AnalysisResult `json:"result,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// AnalysisResult is everything produced for one document.
type AnalysisResult struct {
	ContractType ContractType     `json:"contract_type"`
	Text         string           `json:"-"`
	KeyInfo      ExtractedKeyInfo `json:"key_information"`
	Summary      string           `json:"summary_text"`
	Report       AnalysisReport   `json:"risk_analysis"`
	Processing   ProcessingInfo   `json:"processing_info"`
}

// ProcessingInfo records which path each stage actually took.
type ProcessingInfo struct {
	ExtractionMethod    string            `json:"extraction_method"`
	SummarizationMethod string            `json:"summarization_method"`
	RiskAnalysisMethod  string            `json:"risk_analysis_method"`
	ContractType        ContractType      `json:"contract_type_detected"`
	TotalRisksFound     int               `json:"total_risks_found"`
	SeverityBreakdown   SeverityBreakdown `json:"severity_breakdown"`
	DurationMS          int64             `json:"duration_ms"`
}

// SeverityBreakdown mirrors the headline counts of a ReportSummary.
type SeverityBreakdown struct {
	Critical   int `json:"critical"`
	High       int `json:"high"`
	MediumHigh int `json:"medium_high"`
	Total      int `json:"total"`
}

// Method names reported in ProcessingInfo
const (
	MethodGenerative = "generative"
	MethodRules      = "rules_based"
	MethodFallback   = "fallback"
	MethodLocal      = "local"
	MethodMineru     = "mineru"
)
