package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Vishnulak/PRELEX-GENAI/analysis"
	"github.com/Vishnulak/PRELEX-GENAI/config"
	"github.com/Vishnulak/PRELEX-GENAI/model"
	"github.com/Vishnulak/PRELEX-GENAI/service"
)

const (
	serviceName    = "Legal Document Risk Analyzer"
	serviceVersion = "2.0.0"
)

// Features reports which optional backends came up at startup.
type Features struct {
	Generative       bool
	RemoteExtraction bool
	Archive          bool
}

// SystemHandler serves the service description and health report.
type SystemHandler struct {
	config   *config.Config
	catalog  *analysis.Catalog
	features Features
}

func NewSystemHandler(cfg *config.Config, catalog *analysis.Catalog, features Features) *SystemHandler {
	return &SystemHandler{config: cfg, catalog: catalog, features: features}
}

// Root describes the API.
func (h *SystemHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     serviceName,
		"version":     serviceVersion,
		"description": "Legal document analysis with risk detection",
		"main_endpoint": gin.H{
			"url":         "/analyze-document",
			"method":      http.MethodPost,
			"description": "Upload document for analysis",
			"input":       `Multipart form with "document" field (PDF, DOCX, DOC)`,
		},
		"other_endpoints": gin.H{
			"/health":            "GET - Health check",
			"/metrics":           "GET - Prometheus metrics",
			"/api/auth/login":    "POST - Obtain a token",
			"/api/analyses":      "GET - Analyses of the caller's tenant",
			"/api/analyses/{id}": "GET, DELETE - One stored analysis",
			"/":                  "GET - API information",
		},
		"supported_file_types": service.SupportedTypeNames(),
		"max_file_size_mb":     h.config.Limits.MaxUploadMB,
	})
}

// Health reports configuration, optional feature availability and catalog sizes.
func (h *SystemHandler) Health(c *gin.Context) {
	overlays := make(map[model.ContractType]int)
	for _, ct := range h.catalog.OverlayTypes() {
		overlays[ct] = h.catalog.OverlayCount(ct)
	}

	severities := make([]string, len(model.Severities))
	for i, s := range model.Severities {
		severities[i] = s.String()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"version":   serviceVersion,
		"timestamp": time.Now().Format(time.RFC3339),
		"configuration": gin.H{
			"max_file_size_mb":    h.config.Limits.MaxUploadMB,
			"min_text_chars":      h.config.Limits.MinTextChars,
			"max_document_chars":  h.config.Limits.MaxDocumentChars,
			"supported_types":     service.SupportedTypeNames(),
			"generative_backend":  h.config.Gemini.Backend,
			"project_id":          h.config.Gemini.Project,
			"model":               h.config.Gemini.Model,
			"auth_required":       h.config.Auth.RequireForAnalyze,
			"rate_limit_per_min":  h.config.Limits.RateLimitPerMinute,
			"analyze_timeout_sec": h.config.Limits.AnalyzeTimeoutSeconds,
		},
		"features": gin.H{
			"generative_processing":   h.features.Generative,
			"remote_extraction":       h.features.RemoteExtraction,
			"document_archive":        h.features.Archive,
			"contract_type_detection": true,
			"risk_pattern_matching":   true,
			"risk_patterns":           h.catalog.GeneralCount(),
			"overlay_patterns":        overlays,
		},
		"contract_types_supported": model.ContractTypes,
		"severity_levels":          severities,
	})
}
