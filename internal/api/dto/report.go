package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/advisorlens/advisorlens/internal/domain/recommendation"
	"github.com/advisorlens/advisorlens/internal/report"
)

// UploadRequest carries the non-file fields of a report upload.
type UploadRequest struct {
	ReportType string `json:"report_type" validate:"omitempty,oneof=detailed executive cost security operations"`
}

// ReportDTO is the API shape of a persisted report.
type ReportDTO struct {
	ID           string          `json:"id"`
	Filename     string          `json:"filename"`
	ReportType   string          `json:"report_type"`
	Status       string          `json:"status"`
	TotalRows    int             `json:"total_rows"`
	ParsedRows   int             `json:"parsed_rows"`
	SkippedRows  int             `json:"skipped_rows"`
	TotalSavings decimal.Decimal `json:"total_savings"`
	Currency     string          `json:"currency"`
	CreatedAt    time.Time       `json:"created_at"`
}

// FromReport maps a domain report to its DTO.
func FromReport(r *recommendation.Report) ReportDTO {
	return ReportDTO{
		ID:           r.ID,
		Filename:     r.Filename,
		ReportType:   r.ReportType,
		Status:       r.Status,
		TotalRows:    r.TotalRows,
		ParsedRows:   r.ParsedRows,
		SkippedRows:  r.SkippedRows,
		TotalSavings: r.TotalSavings,
		Currency:     r.Currency,
		CreatedAt:    r.CreatedAt,
	}
}

// UploadResponse is returned after a successful pipeline run.
type UploadResponse struct {
	Report     ReportDTO          `json:"report"`
	Statistics *report.Statistics `json:"statistics"`
}
