package analysis

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Vishnulak/PRELEX-GENAI/model"
	"github.com/Vishnulak/PRELEX-GENAI/pkg/logger"
)

// Pipeline runs one document through classification, extraction,
// summarization, risk analysis and aggregation.
type Pipeline struct {
	summarizer *Summarizer
	risks      *RiskAnalyzer
}

// NewPipeline wires the analysis stages around an optional generator.
func NewPipeline(gen Generator, catalog *Catalog) *Pipeline {
	return &Pipeline{
		summarizer: NewSummarizer(gen),
		risks:      NewRiskAnalyzer(gen, NewRuleAnalyzer(catalog)),
	}
}

// Catalog returns the signature catalog used by the rule stage.
func (p *Pipeline) Catalog() *Catalog {
	return p.risks.rules.Catalog()
}

// Analyze produces a complete result for text. It fails only when ctx is
// already done before classification finishes. Once the generative stages
// start, an expired ctx degrades them to the rule-based path instead.
func (p *Pipeline) Analyze(ctx context.Context, text, extractionMethod string) (*model.AnalysisResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		ct   model.ContractType
		info model.ExtractedKeyInfo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ct = ClassifyContract(text)
		return gctx.Err()
	})
	g.Go(func() error {
		info = ExtractKeyInfo(text)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Debug(ctx, "document classified", "contract_type", ct, "parties", len(info.Parties))

	summary, summaryMethod := p.summarizer.Summarize(ctx, text, info, ct)
	risks, riskMethod := p.risks.Analyze(ctx, text, summary, ct)
	report := BuildReport(risks)

	return &model.AnalysisResult{
		ContractType: ct,
		Text:         text,
		KeyInfo:      info,
		Summary:      summary,
		Report:       report,
		Processing: model.ProcessingInfo{
			ExtractionMethod:    extractionMethod,
			SummarizationMethod: summaryMethod,
			RiskAnalysisMethod:  riskMethod,
			ContractType:        ct,
			TotalRisksFound:     report.Summary.TotalRisks,
			SeverityBreakdown: model.SeverityBreakdown{
				Critical:   report.Summary.CriticalRisks,
				High:       report.Summary.HighRisks,
				MediumHigh: report.Summary.MediumHighRisks,
				Total:      report.Summary.TotalRisks,
			},
			DurationMS: time.Since(start).Milliseconds(),
		},
	}, nil
}
