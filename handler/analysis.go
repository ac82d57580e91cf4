package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Vishnulak/PRELEX-GENAI/analysis"
	"github.com/Vishnulak/PRELEX-GENAI/config"
	"github.com/Vishnulak/PRELEX-GENAI/metrics"
	"github.com/Vishnulak/PRELEX-GENAI/middleware"
	"github.com/Vishnulak/PRELEX-GENAI/model"
	"github.com/Vishnulak/PRELEX-GENAI/pkg/logger"
	"github.com/Vishnulak/PRELEX-GENAI/service"
)

// multipartOverhead is the body allowance on top of the file size limit for
// boundaries and part headers.
const multipartOverhead = 1 << 20

// DocumentArchive keeps uploaded originals. *service.MinioService satisfies it.
type DocumentArchive interface {
	Archive(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, objectName string) error
}

type AnalysisHandler struct {
	pipeline  *analysis.Pipeline
	extractor *service.DocumentExtractor
	store     *service.AnalysisStore
	archive   DocumentArchive
	limits    config.LimitsConfig
}

// NewAnalysisHandler wires the upload endpoint. archive may be nil.
func NewAnalysisHandler(pipeline *analysis.Pipeline, extractor *service.DocumentExtractor, store *service.AnalysisStore, archive DocumentArchive, limits config.LimitsConfig) *AnalysisHandler {
	return &AnalysisHandler{
		pipeline:  pipeline,
		extractor: extractor,
		store:     store,
		archive:   archive,
		limits:    limits,
	}
}

// AnalyzeDocument accepts a multipart upload in the "document" field and
// returns the complete analysis.
func (h *AnalysisHandler) AnalyzeDocument(c *gin.Context) {
	start := time.Now()
	tenant := middleware.GetTenant(c)
	if tenant == "" {
		tenant = middleware.AnonymousTenant
	}
	maxBytes := h.limits.MaxUploadBytes()
	tooLarge := fmt.Sprintf("File size exceeds %d bytes", maxBytes)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)
	header, err := c.FormFile("document")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.reject(c, http.StatusRequestEntityTooLarge, "too_large", "File too large", tooLarge, nil)
			return
		}
		h.reject(c, http.StatusBadRequest, "missing_file", "No document file provided", "Please upload a document", nil)
		return
	}
	if header.Filename == "" {
		h.reject(c, http.StatusBadRequest, "missing_file", "No file selected", "Please select a file", nil)
		return
	}
	if header.Size > maxBytes {
		h.reject(c, http.StatusRequestEntityTooLarge, "too_large", "File too large", tooLarge, nil)
		return
	}

	data, err := readUpload(header)
	if err != nil {
		h.reject(c, http.StatusBadRequest, "unreadable", "Failed to read file", err.Error(), nil)
		return
	}
	if len(data) == 0 {
		h.reject(c, http.StatusBadRequest, "empty", "Empty file", "The file appears to be empty", nil)
		return
	}
	if int64(len(data)) > maxBytes {
		h.reject(c, http.StatusRequestEntityTooLarge, "too_large", "File too large", tooLarge, nil)
		return
	}

	mimeType, err := service.DetectMIME(data, header.Filename)
	if err != nil {
		h.reject(c, http.StatusBadRequest, "unsupported_type", "Unsupported file type", err.Error(),
			gin.H{"supported_types": service.SupportedTypeNames()})
		return
	}

	id := uuid.New().String()
	ctx := logger.WithDocumentID(c.Request.Context(), id)
	if timeout := h.limits.AnalyzeTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	logger.Info(ctx, "starting document analysis", "filename", header.Filename, "size", len(data), "mime_type", mimeType)

	up := &service.Upload{
		ID:       id,
		Tenant:   tenant,
		Filename: header.Filename,
		MimeType: mimeType,
		Data:     data,
	}
	if h.archive != nil {
		url, err := h.archive.Archive(ctx, service.ObjectName(tenant, id, header.Filename), data, mimeType)
		if err != nil {
			logger.Warn(ctx, "archiving upload failed", "error", err)
		} else {
			up.SourceURL = url
		}
	}

	text, extractionMethod, err := h.extractor.Extract(ctx, up)
	if err != nil {
		var extractionErr *service.ExtractionError
		switch {
		case errors.As(err, &extractionErr), errors.Is(err, service.ErrUnsupportedType):
			h.reject(c, http.StatusBadRequest, "extraction_failed", "Text extraction failed", err.Error(), nil)
		default:
			h.fail(ctx, c, err)
		}
		return
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(text)); n < h.limits.MinTextChars {
		h.reject(c, http.StatusBadRequest, "text_too_short", "Extracted text too short",
			fmt.Sprintf("Text must be at least %d characters", h.limits.MinTextChars),
			gin.H{"extracted_length": n})
		return
	}

	result, err := h.pipeline.Analyze(ctx, text, extractionMethod)
	if err != nil {
		h.fail(ctx, c, err)
		return
	}

	doc := &model.Document{
		ID:         id,
		Filename:   header.Filename,
		Tenant:     tenant,
		FileSize:   int64(len(data)),
		MimeType:   mimeType,
		ArchiveURL: up.SourceURL,
		Result:     result,
		CreatedAt:  start,
	}
	h.store.Save(doc)
	recordAnalysis(result, time.Since(start))

	logger.Info(ctx, "analysis finished",
		"contract_type", result.ContractType,
		"chars", len(text),
		"risks", result.Report.Summary.TotalRisks,
		"risk_level", result.Report.Summary.RiskLevel,
	)

	resp := documentResponse(doc)
	resp["status"] = "success"
	c.JSON(http.StatusOK, resp)
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *AnalysisHandler) reject(c *gin.Context, status int, reason, title, message string, extra gin.H) {
	metrics.UploadRejections.WithLabelValues(reason).Inc()
	respondError(c, status, title, message, extra)
}

func (h *AnalysisHandler) fail(ctx context.Context, c *gin.Context, err error) {
	metrics.Analyses.WithLabelValues("error").Inc()
	logger.Error(ctx, "document analysis failed", "error", err)
	c.Error(err)

	message := "An unexpected error occurred"
	if errors.Is(err, context.DeadlineExceeded) {
		message = "Analysis timed out"
	}
	respondError(c, http.StatusInternalServerError, "Analysis failed", message, nil)
}

func recordAnalysis(result *model.AnalysisResult, elapsed time.Duration) {
	metrics.Analyses.WithLabelValues("success").Inc()
	metrics.AnalysisDuration.Observe(elapsed.Seconds())

	pi := result.Processing
	metrics.StageMethods.WithLabelValues("extraction", pi.ExtractionMethod).Inc()
	metrics.StageMethods.WithLabelValues("summarization", pi.SummarizationMethod).Inc()
	metrics.StageMethods.WithLabelValues("risk_analysis", pi.RiskAnalysisMethod).Inc()
	for _, r := range result.Report.Risks {
		metrics.DetectedRisks.WithLabelValues(r.Severity.String()).Inc()
	}
}

// documentResponse renders a stored analysis in the upload response layout.
func documentResponse(doc *model.Document) gin.H {
	res := doc.Result
	info := res.KeyInfo
	report := res.Report

	return gin.H{
		"document_info": gin.H{
			"id":                    doc.ID,
			"filename":              doc.Filename,
			"file_size":             doc.FileSize,
			"mime_type":             doc.MimeType,
			"contract_type":         res.ContractType,
			"extracted_text_length": utf8.RuneCountInString(res.Text),
			"summary_length":        utf8.RuneCountInString(res.Summary),
			"archive_url":           doc.ArchiveURL,
			"created_at":            doc.CreatedAt.Format(time.RFC3339),
		},
		"extraction": gin.H{
			"text": res.Text,
			"key_information": gin.H{
				"parties_involved": firstN(info.Parties, 4),
				"important_dates":  firstN(info.Dates, 4),
				"monetary_amounts": firstN(info.Amounts, 5),
				"payment_terms":    firstN(info.PaymentTerms, 3),
				"penalty_clauses":  firstN(info.PenaltyClauses, 3),
				"termination_info": firstN(info.TerminationClauses, 3),
			},
		},
		"summary": gin.H{
			"contract_type": res.ContractType,
			"summary_text":  res.Summary,
		},
		"risk_analysis": gin.H{
			"risky_clauses":           report.RiskyClauses,
			"hidden_tricks":           report.HiddenTricks,
			"real_world_consequences": report.Consequences,
			"negotiation_tips":        report.NegotiationTips,
			"comparative_justice":     report.ComparativeJustice,
			"summary":                 report.Summary,
			"detailed_clauses":        report.Risks,
		},
		"processing_info": res.Processing,
	}
}

// List returns the caller's analyses, newest first, without document text.
func (h *AnalysisHandler) List(c *gin.Context) {
	docs := h.store.ListByTenant(middleware.GetTenant(c))

	result := make([]gin.H, len(docs))
	for i, doc := range docs {
		result[i] = gin.H{
			"id":            doc.ID,
			"filename":      doc.Filename,
			"contract_type": doc.Result.ContractType,
			"risk_level":    doc.Result.Report.Summary.RiskLevel,
			"total_risks":   doc.Result.Report.Summary.TotalRisks,
			"created_at":    doc.CreatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, gin.H{"analyses": result})
}

// Get returns one stored analysis of the caller's tenant.
func (h *AnalysisHandler) Get(c *gin.Context) {
	doc := h.lookup(c)
	if doc == nil {
		return
	}
	resp := documentResponse(doc)
	resp["status"] = "success"
	c.JSON(http.StatusOK, resp)
}

// Delete drops a stored analysis and its archived original.
func (h *AnalysisHandler) Delete(c *gin.Context) {
	doc := h.lookup(c)
	if doc == nil {
		return
	}

	h.store.Delete(doc.ID)
	if h.archive != nil && doc.ArchiveURL != "" {
		ctx := logger.WithDocumentID(c.Request.Context(), doc.ID)
		if err := h.archive.Remove(ctx, service.ObjectName(doc.Tenant, doc.ID, doc.Filename)); err != nil {
			logger.Warn(ctx, "removing archived upload failed", "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Analysis deleted"})
}

func (h *AnalysisHandler) lookup(c *gin.Context) *model.Document {
	doc := h.store.Get(c.Param("id"))
	if doc == nil || doc.Tenant != middleware.GetTenant(c) {
		respondError(c, http.StatusNotFound, "Not found", "Analysis not found", nil)
		return nil
	}
	return doc
}
