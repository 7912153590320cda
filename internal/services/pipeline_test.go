package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/advisorlens/advisorlens/internal/domain/recommendation"
	"github.com/advisorlens/advisorlens/internal/pkg/errors"
	"github.com/advisorlens/advisorlens/internal/report"
	"github.com/advisorlens/advisorlens/internal/testutil"
	"github.com/advisorlens/advisorlens/internal/upload"
)

func advisorUpload(name string, data []byte) upload.RawUpload {
	return upload.RawUpload{
		Filename:    name,
		ContentType: "text/csv",
		Size:        int64(len(data)),
		Data:        data,
	}
}

func fixedClock() func() time.Time {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestProcessEndToEnd(t *testing.T) {
	data := testutil.CSV(
		testutil.AdvisorHeader,
		testutil.AdvisorRow("Cost", "High", "Buy a 3 year reserved instance", "vm-01", "1200.00"),
		testutil.AdvisorRow("Security", "Medium", "Enable MFA for all admins", "tenant", ""),
		testutil.AdvisorRow("Cost", "Low", "Purchase a 1 or 3 year savings plan", "vm-02", "600.00"),
	)

	repo := testutil.NewMockReportRepository()
	p := NewPipeline(testutil.Config(), repo, testutil.Logger()).WithClock(fixedClock())

	result, err := p.Process(context.Background(), advisorUpload("export.csv", data), report.TypeDetailed)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if result.Report.ParsedRows != 3 || result.Report.SkippedRows != 0 {
		t.Errorf("report rows = %d parsed / %d skipped", result.Report.ParsedRows, result.Report.SkippedRows)
	}
	if result.Report.Status != recommendation.StatusCompleted {
		t.Errorf("Status = %q", result.Report.Status)
	}
	if result.Report.Filename != "export.csv" {
		t.Errorf("Filename = %q", result.Report.Filename)
	}
	if !result.Report.TotalSavings.Equal(decimal.RequireFromString("1800.00")) {
		t.Errorf("TotalSavings = %s, want 1800.00", result.Report.TotalSavings)
	}
	if result.Report.Currency != "USD" {
		t.Errorf("Currency = %q", result.Report.Currency)
	}

	// classification flows through enrichment
	ri := result.Recommendations[0]
	if ri.Reservation.Category != "pure_reservation_3y" {
		t.Errorf("row 1 commitment category = %s", ri.Reservation.Category)
	}
	if ri.TotalCommitmentSavings == nil || !ri.TotalCommitmentSavings.Equal(decimal.RequireFromString("3600.00")) {
		t.Errorf("row 1 total commitment savings = %v, want 3600.00", ri.TotalCommitmentSavings)
	}
	sp := result.Recommendations[2]
	if sp.Reservation.Category != "pure_savings_plan" {
		t.Errorf("row 3 commitment category = %s", sp.Reservation.Category)
	}
	if sp.Reservation.Term.Fixed() {
		t.Error("user-choice term must not be fixed")
	}

	// persisted
	stored, err := repo.GetReport(context.Background(), result.Report.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if stored.ID != result.Report.ID {
		t.Errorf("stored ID = %s", stored.ID)
	}
	recs, total, err := repo.ListByReport(context.Background(), result.Report.ID, 100, 0)
	if err != nil {
		t.Fatalf("ListByReport: %v", err)
	}
	if total != 3 || len(recs) != 3 {
		t.Errorf("persisted %d recommendations, want 3", total)
	}
}

func TestProcessWithoutRepository(t *testing.T) {
	data := testutil.CSV(
		testutil.AdvisorHeader,
		testutil.AdvisorRow("Cost", "High", "Right-size VMs", "vm-01", "100"),
	)

	p := NewPipeline(testutil.Config(), nil, testutil.Logger()).WithClock(fixedClock())
	result, err := p.Process(context.Background(), advisorUpload("export.csv", data), report.TypeExecutive)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Context.Type != report.TypeExecutive {
		t.Errorf("context type = %s", result.Context.Type)
	}
}

func TestProcessDeterministic(t *testing.T) {
	data := testutil.CSV(
		testutil.AdvisorHeader,
		testutil.AdvisorRow("Cost", "High", "Buy reserved instances", "vm-01", "250.50"),
		testutil.AdvisorRow("Security", "Low", "Rotate storage keys", "st-01", ""),
	)

	p := NewPipeline(testutil.Config(), nil, testutil.Logger()).WithClock(fixedClock())

	first, err := p.Process(context.Background(), advisorUpload("export.csv", data), report.TypeDetailed)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	second, err := p.Process(context.Background(), advisorUpload("export.csv", data), report.TypeDetailed)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if !first.Statistics.TotalSavings.Equal(second.Statistics.TotalSavings) {
		t.Error("total savings differ across identical runs")
	}
	if first.Statistics.ByImpact != second.Statistics.ByImpact {
		t.Error("impact distribution differs across identical runs")
	}
	if !first.Context.GeneratedAt.Equal(second.Context.GeneratedAt) {
		t.Error("timestamps differ despite injected clock")
	}
	if len(first.Recommendations) != len(second.Recommendations) {
		t.Error("row counts differ across identical runs")
	}
	for i := range first.Recommendations {
		if first.Recommendations[i].Reservation != second.Recommendations[i].Reservation {
			t.Errorf("row %d classification differs across runs", i)
		}
	}
}

func TestProcessRejectsInvalidUpload(t *testing.T) {
	repo := testutil.NewMockReportRepository()
	p := NewPipeline(testutil.Config(), repo, testutil.Logger())

	_, err := p.Process(context.Background(), advisorUpload("image.csv", testutil.PNGHeader), report.TypeDetailed)
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("err = %v, want AppError", err)
	}
	if appErr.Code != errors.ErrCodeMIMEMismatch {
		t.Errorf("Code = %s, want %s", appErr.Code, errors.ErrCodeMIMEMismatch)
	}

	// nothing persisted on rejection
	if _, total, _ := repo.ListReports(context.Background(), 10, 0); total != 0 {
		t.Errorf("rejected upload left %d reports behind", total)
	}
}

func TestProcessNoValidRows(t *testing.T) {
	data := testutil.CSV(
		"Category,Recommendation",
		",every",
		",row",
		",is blank",
	)

	p := NewPipeline(testutil.Config(), nil, testutil.Logger())
	_, err := p.Process(context.Background(), advisorUpload("blank.csv", data), report.TypeDetailed)
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("err = %v, want AppError", err)
	}
	if appErr.Code != errors.ErrCodeNoValidRows {
		t.Errorf("Code = %s, want %s", appErr.Code, errors.ErrCodeNoValidRows)
	}
}

func TestDominantCurrency(t *testing.T) {
	mk := func(code string) *recommendation.Enriched {
		return &recommendation.Enriched{Recommendation: recommendation.Recommendation{Currency: code}}
	}

	tests := []struct {
		name string
		recs []*recommendation.Enriched
		want string
	}{
		{"empty defaults to USD", nil, "USD"},
		{"majority wins", []*recommendation.Enriched{mk("EUR"), mk("EUR"), mk("USD")}, "EUR"},
		{"single", []*recommendation.Enriched{mk("GBP")}, "GBP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dominantCurrency(tt.recs); got != tt.want {
				t.Errorf("dominantCurrency = %q, want %q", got, tt.want)
			}
		})
	}
}
