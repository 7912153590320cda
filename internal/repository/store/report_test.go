package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/advisorlens/advisorlens/internal/config"
	"github.com/advisorlens/advisorlens/internal/domain/recommendation"
	"github.com/advisorlens/advisorlens/internal/pkg/errors"
	"github.com/advisorlens/advisorlens/internal/reservation"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testReport(createdAt time.Time) *recommendation.Report {
	return &recommendation.Report{
		ID:           uuid.NewString(),
		Filename:     "export.csv",
		ReportType:   "detailed",
		Status:       recommendation.StatusCompleted,
		TotalRows:    3,
		ParsedRows:   2,
		SkippedRows:  1,
		TotalSavings: decimal.RequireFromString("1800.50"),
		Currency:     "USD",
		CreatedAt:    createdAt,
	}
}

func TestReportRoundTrip(t *testing.T) {
	repo := NewReportRepository(openTestDB(t), "sqlite")
	ctx := context.Background()

	rep := testReport(time.Now().UTC())
	if err := repo.CreateReport(ctx, rep); err != nil {
		t.Fatalf("CreateReport: %v", err)
	}

	got, err := repo.GetReport(ctx, rep.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.Filename != rep.Filename || got.ReportType != rep.ReportType || got.Status != rep.Status {
		t.Errorf("got %+v, want %+v", got, rep)
	}
	if got.ParsedRows != 2 || got.SkippedRows != 1 {
		t.Errorf("row counts = %d/%d", got.ParsedRows, got.SkippedRows)
	}
	if !got.TotalSavings.Equal(rep.TotalSavings) {
		t.Errorf("TotalSavings = %s, want %s", got.TotalSavings, rep.TotalSavings)
	}
}

func TestGetReportNotFound(t *testing.T) {
	repo := NewReportRepository(openTestDB(t), "sqlite")

	_, err := repo.GetReport(context.Background(), uuid.NewString())
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeNotFound {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestListReportsNewestFirst(t *testing.T) {
	repo := NewReportRepository(openTestDB(t), "sqlite")
	ctx := context.Background()

	old := testReport(time.Now().UTC().Add(-time.Hour))
	recent := testReport(time.Now().UTC())
	for _, rep := range []*recommendation.Report{old, recent} {
		if err := repo.CreateReport(ctx, rep); err != nil {
			t.Fatalf("CreateReport: %v", err)
		}
	}

	reports, total, err := repo.ListReports(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if total != 2 || len(reports) != 2 {
		t.Fatalf("total = %d, len = %d", total, len(reports))
	}
	if reports[0].ID != recent.ID {
		t.Errorf("newest report not first")
	}

	// pagination
	page, total, err := repo.ListReports(ctx, 1, 1)
	if err != nil {
		t.Fatalf("ListReports page 2: %v", err)
	}
	if total != 2 || len(page) != 1 || page[0].ID != old.ID {
		t.Errorf("page 2 = %+v", page)
	}
}

func TestBulkInsertAndListByReport(t *testing.T) {
	repo := NewReportRepository(openTestDB(t), "sqlite")
	ctx := context.Background()

	rep := testReport(time.Now().UTC())
	if err := repo.CreateReport(ctx, rep); err != nil {
		t.Fatalf("CreateReport: %v", err)
	}

	savings := decimal.RequireFromString("1200.00")
	total := decimal.RequireFromString("3600.00")
	monthly := decimal.RequireFromString("100.00")
	recs := []*recommendation.Enriched{
		{
			Recommendation: recommendation.Recommendation{
				RowIndex:       2,
				Category:       recommendation.CategorySecurity,
				Impact:         recommendation.ImpactMedium,
				Recommendation: "Enable MFA",
				Currency:       "USD",
			},
			Reservation: reservation.Analysis{Category: reservation.Uncategorized, Term: reservation.Term{Kind: reservation.TermNone}},
		},
		{
			Recommendation: recommendation.Recommendation{
				RowIndex:         1,
				Category:         recommendation.CategoryCost,
				Impact:           recommendation.ImpactHigh,
				Recommendation:   "Buy a 3 year reserved instance",
				PotentialSavings: &savings,
				Currency:         "USD",
				Metadata:         map[string]string{"region": "eastus"},
			},
			Reservation: reservation.Analysis{
				IsReservation: true,
				Type:          reservation.TypeReservedInstance,
				Term:          reservation.Years3,
				Category:      reservation.PureReservation3Y,
			},
			TotalCommitmentSavings: &total,
			MonthlySavings:         &monthly,
		},
	}

	if err := repo.BulkInsert(ctx, rep.ID, recs); err != nil {
		t.Fatalf("BulkInsert: %v", err)
	}

	got, n, err := repo.ListByReport(ctx, rep.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListByReport: %v", err)
	}
	if n != 2 || len(got) != 2 {
		t.Fatalf("n = %d, len = %d", n, len(got))
	}

	// ordered by row index, not insertion order
	if got[0].RowIndex != 1 || got[1].RowIndex != 2 {
		t.Errorf("rows out of order: %d, %d", got[0].RowIndex, got[1].RowIndex)
	}

	ri := got[0]
	if ri.Category != recommendation.CategoryCost || ri.Impact != recommendation.ImpactHigh {
		t.Errorf("row 1 = %+v", ri.Recommendation)
	}
	if ri.PotentialSavings == nil || !ri.PotentialSavings.Equal(savings) {
		t.Errorf("PotentialSavings = %v", ri.PotentialSavings)
	}
	if ri.TotalCommitmentSavings == nil || !ri.TotalCommitmentSavings.Equal(total) {
		t.Errorf("TotalCommitmentSavings = %v", ri.TotalCommitmentSavings)
	}
	if ri.Metadata["region"] != "eastus" {
		t.Errorf("Metadata = %v", ri.Metadata)
	}

	// term fidelity survives the round trip, including the kind
	if ri.Reservation.Term != reservation.Years3 {
		t.Errorf("Term = %+v, want fixed 3 years", ri.Reservation.Term)
	}
	if ri.Reservation.Category != reservation.PureReservation3Y {
		t.Errorf("commitment category = %s", ri.Reservation.Category)
	}

	plain := got[1]
	if plain.PotentialSavings != nil || plain.TotalCommitmentSavings != nil {
		t.Errorf("null savings did not survive: %+v", plain)
	}
	if plain.Reservation.Term.Kind != reservation.TermNone {
		t.Errorf("Term.Kind = %v, want TermNone", plain.Reservation.Term.Kind)
	}
}

func TestDeleteReportCascades(t *testing.T) {
	repo := NewReportRepository(openTestDB(t), "sqlite")
	ctx := context.Background()

	rep := testReport(time.Now().UTC())
	if err := repo.CreateReport(ctx, rep); err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	recs := []*recommendation.Enriched{{
		Recommendation: recommendation.Recommendation{RowIndex: 1, Category: recommendation.CategoryCost, Impact: recommendation.ImpactHigh, Recommendation: "x", Currency: "USD"},
	}}
	if err := repo.BulkInsert(ctx, rep.ID, recs); err != nil {
		t.Fatalf("BulkInsert: %v", err)
	}

	if err := repo.DeleteReport(ctx, rep.ID); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}

	if _, err := repo.GetReport(ctx, rep.ID); err == nil {
		t.Error("report still present after delete")
	}
	if _, n, _ := repo.ListByReport(ctx, rep.ID, 10, 0); n != 0 {
		t.Errorf("%d recommendations survived the delete", n)
	}

	// deleting again reports not found
	err := repo.DeleteReport(ctx, rep.ID)
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeNotFound {
		t.Errorf("second delete err = %v, want NOT_FOUND", err)
	}
}

func TestDeleteOlderThan(t *testing.T) {
	repo := NewReportRepository(openTestDB(t), "sqlite")
	ctx := context.Background()

	stale := testReport(time.Now().UTC().Add(-100 * 24 * time.Hour))
	fresh := testReport(time.Now().UTC())
	for _, rep := range []*recommendation.Report{stale, fresh} {
		if err := repo.CreateReport(ctx, rep); err != nil {
			t.Fatalf("CreateReport: %v", err)
		}
	}

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().UTC().Add(-90*24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if _, err := repo.GetReport(ctx, stale.ID); err == nil {
		t.Error("stale report survived the sweep")
	}
	if _, err := repo.GetReport(ctx, fresh.ID); err != nil {
		t.Errorf("fresh report was swept: %v", err)
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		driver string
		query  string
		want   string
	}{
		{"sqlite", "SELECT * FROM reports WHERE id = ?", "SELECT * FROM reports WHERE id = ?"},
		{"postgres", "SELECT * FROM reports WHERE id = ?", "SELECT * FROM reports WHERE id = $1"},
		{"postgres", "INSERT INTO t VALUES (?, ?, ?)", "INSERT INTO t VALUES ($1, $2, $3)"},
		{"postgres", "SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		if got := rebind(tt.driver, tt.query); got != tt.want {
			t.Errorf("rebind(%s, %q) = %q, want %q", tt.driver, tt.query, got, tt.want)
		}
	}
}
