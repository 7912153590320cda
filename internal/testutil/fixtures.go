package testutil

import (
	"strings"

	"github.com/advisorlens/advisorlens/internal/config"
	"github.com/advisorlens/advisorlens/internal/pkg/logger"
)

// Logger returns a quiet logger for tests.
func Logger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

// UploadConfig returns the default upload validation settings used in tests.
func UploadConfig() config.UploadConfig {
	return config.UploadConfig{
		MaxUploadSize:     50 * 1024 * 1024,
		AllowedExtensions: []string{".csv"},
		AllowedMIMETypes: []string{
			"text/plain",
			"text/csv",
			"application/csv",
			"application/vnd.ms-excel",
			"text/x-csv",
		},
		MaxCellSize:      10000,
		FallbackCategory: "Operational Excellence",
		FallbackImpact:   "Medium",
	}
}

// Config returns a full configuration with default upload and report settings.
func Config() *config.Config {
	return &config.Config{
		Upload: UploadConfig(),
		Report: config.ReportConfig{
			TopN:          10,
			RetentionDays: 90,
			SweepSchedule: "0 3 * * *",
		},
	}
}

// CSV builds CSV content from a header and rows, comma-delimited.
func CSV(header string, rows ...string) []byte {
	lines := append([]string{header}, rows...)
	return []byte(strings.Join(lines, "\n") + "\n")
}

// AdvisorHeader is the canonical Advisor export header used across tests.
const AdvisorHeader = "Category,Business Impact,Recommendation,Resource Name,Resource Type,Subscription ID,Subscription Name,Potential Savings,Currency,Potential Benefits"

// AdvisorRow builds one canonical data row.
func AdvisorRow(category, impact, text, resource, savings string) string {
	return strings.Join([]string{
		category, impact, text, resource, "Virtual machine",
		"sub-001", "Production", savings, "USD", "",
	}, ",")
}

// PNGHeader is the PNG magic-number prefix, padded to look like file content.
var PNGHeader = append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, []byte("not,a,csv\n1,2,3\n")...)
