package recommendation

import (
	"context"
	"time"
)

// Repository defines the interface for report and recommendation persistence
type Repository interface {
	// CreateReport persists a report envelope
	CreateReport(ctx context.Context, report *Report) error

	// GetReport retrieves a report by ID
	GetReport(ctx context.Context, id string) (*Report, error)

	// ListReports retrieves reports ordered by creation time, newest first
	ListReports(ctx context.Context, limit, offset int) ([]*Report, int64, error)

	// DeleteReport deletes a report and its recommendations
	DeleteReport(ctx context.Context, id string) error

	// BulkInsert persists the enriched recommendations of one report
	BulkInsert(ctx context.Context, reportID string, recs []*Enriched) error

	// ListByReport retrieves a report's recommendations with pagination
	ListByReport(ctx context.Context, reportID string, limit, offset int) ([]*Enriched, int64, error)

	// DeleteOlderThan removes reports created before the cutoff, returning the
	// number of reports deleted
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
