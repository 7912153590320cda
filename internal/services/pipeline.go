package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/advisorlens/advisorlens/internal/config"
	"github.com/advisorlens/advisorlens/internal/domain/recommendation"
	"github.com/advisorlens/advisorlens/internal/ingest"
	"github.com/advisorlens/advisorlens/internal/pkg/errors"
	"github.com/advisorlens/advisorlens/internal/pkg/logger"
	"github.com/advisorlens/advisorlens/internal/pkg/metrics"
	"github.com/advisorlens/advisorlens/internal/report"
	"github.com/advisorlens/advisorlens/internal/upload"
)

// Result is the outcome of one pipeline invocation. Everything in it is
// derived purely from the uploaded bytes plus the injected timestamp.
type Result struct {
	Report          *recommendation.Report     `json:"report"`
	Recommendations []*recommendation.Enriched `json:"recommendations"`
	Statistics      *report.Statistics         `json:"statistics"`
	Context         *report.Context            `json:"context"`
	ParseStats      *ingest.Stats              `json:"parse_stats"`
}

// Pipeline runs the validate, parse, classify, aggregate sequence for one
// upload. Each invocation is independent; instances hold no mutable state
// across calls, so concurrent invocations for different reports are safe.
type Pipeline struct {
	validator *upload.Validator
	parser    *ingest.Parser
	repo      recommendation.Repository
	topN      int
	log       *logger.Logger
	// now is injected so repeated runs over the same bytes are comparable
	now func() time.Time
}

// NewPipeline creates a pipeline. repo may be nil for callers that only want
// the in-memory result (the CLI does this).
func NewPipeline(cfg *config.Config, repo recommendation.Repository, log *logger.Logger) *Pipeline {
	return &Pipeline{
		validator: upload.NewValidator(cfg.Upload, log),
		parser:    ingest.NewParser(cfg.Upload, log),
		repo:      repo,
		topN:      cfg.Report.TopN,
		log:       log,
		now:       time.Now,
	}
}

// WithClock overrides the timestamp source, primarily for tests.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Process runs the full pipeline for one upload and, when a repository is
// configured, persists the report and its recommendations.
func (p *Pipeline) Process(ctx context.Context, u upload.RawUpload, reportType report.Type) (*Result, error) {
	start := time.Now()
	defer func() { metrics.RecordPipelineDuration(time.Since(start)) }()

	sanitized, err := p.validator.Validate(u)
	if err != nil {
		metrics.RecordUploadValidation(false, rejectionReason(err))
		return nil, err
	}
	metrics.RecordUploadValidation(true, "ok")

	rows, parseStats, err := p.parser.Parse(ctx, sanitized.Content)
	if err != nil {
		return nil, err
	}
	metrics.RecordRows(parseStats.ParsedRows, parseStats.SkippedRows)

	enriched := make([]*recommendation.Enriched, 0, len(rows))
	for _, row := range rows {
		e := recommendation.Enrich(row)
		metrics.RecordClassification(string(e.Reservation.Category))
		enriched = append(enriched, e)
	}

	stats := report.Aggregate(enriched, p.topN)

	generatedAt := p.now()
	renderCtx, err := report.Build(reportType, enriched, generatedAt)
	if err != nil {
		return nil, err
	}
	metrics.RecordReportGenerated(string(reportType))

	rep := &recommendation.Report{
		ID:           uuid.NewString(),
		Filename:     sanitized.Filename,
		ReportType:   string(reportType),
		Status:       recommendation.StatusCompleted,
		TotalRows:    parseStats.TotalRows,
		ParsedRows:   parseStats.ParsedRows,
		SkippedRows:  parseStats.SkippedRows,
		TotalSavings: stats.TotalSavings,
		Currency:     dominantCurrency(enriched),
		CreatedAt:    generatedAt,
	}

	if p.repo != nil {
		if err := p.repo.CreateReport(ctx, rep); err != nil {
			return nil, err
		}
		if err := p.repo.BulkInsert(ctx, rep.ID, enriched); err != nil {
			return nil, err
		}
	}

	p.log.WithFields(map[string]interface{}{
		"report_id":    rep.ID,
		"report_type":  string(reportType),
		"filename":     rep.Filename,
		"parsed_rows":  parseStats.ParsedRows,
		"skipped_rows": parseStats.SkippedRows,
	}).Info("processed advisor CSV upload")

	return &Result{
		Report:          rep,
		Recommendations: enriched,
		Statistics:      stats,
		Context:         renderCtx,
		ParseStats:      parseStats,
	}, nil
}

func rejectionReason(err error) string {
	if e, ok := err.(*errors.AppError); ok {
		return e.Code
	}
	return "unknown"
}

// dominantCurrency picks the most frequent currency code, defaulting to USD.
func dominantCurrency(recs []*recommendation.Enriched) string {
	counts := map[string]int{}
	best, bestN := "USD", 0
	for _, r := range recs {
		counts[r.Currency]++
		if counts[r.Currency] > bestN {
			best, bestN = r.Currency, counts[r.Currency]
		}
	}
	return best
}
