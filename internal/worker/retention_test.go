package worker

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/advisorlens/advisorlens/internal/config"
	"github.com/advisorlens/advisorlens/internal/domain/recommendation"
	"github.com/advisorlens/advisorlens/internal/testutil"
)

func seedReport(t *testing.T, repo recommendation.Repository, age time.Duration) *recommendation.Report {
	t.Helper()
	rep := &recommendation.Report{
		ID:           "rep-" + age.String(),
		Filename:     "export.csv",
		ReportType:   "detailed",
		Status:       recommendation.StatusCompleted,
		TotalSavings: decimal.Zero,
		Currency:     "USD",
		CreatedAt:    time.Now().UTC().Add(-age),
	}
	if err := repo.CreateReport(context.Background(), rep); err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	return rep
}

func TestSweepDeletesOnlyStaleReports(t *testing.T) {
	repo := testutil.NewMockReportRepository()
	stale := seedReport(t, repo, 100*24*time.Hour)
	fresh := seedReport(t, repo, 24*time.Hour)

	s := NewRetentionSweeper(repo, config.ReportConfig{RetentionDays: 90}, testutil.Logger())
	s.Sweep(context.Background())

	if _, err := repo.GetReport(context.Background(), stale.ID); err == nil {
		t.Error("stale report survived the sweep")
	}
	if _, err := repo.GetReport(context.Background(), fresh.ID); err != nil {
		t.Errorf("fresh report was swept: %v", err)
	}
}

func TestSweepDisabledRetention(t *testing.T) {
	repo := testutil.NewMockReportRepository()
	rep := seedReport(t, repo, 1000*24*time.Hour)

	s := NewRetentionSweeper(repo, config.ReportConfig{RetentionDays: 0}, testutil.Logger())
	s.Sweep(context.Background())

	if _, err := repo.GetReport(context.Background(), rep.ID); err != nil {
		t.Errorf("sweep ran despite disabled retention: %v", err)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewRetentionSweeper(testutil.NewMockReportRepository(), config.ReportConfig{
		RetentionDays: 90,
		SweepSchedule: "not a cron expression",
	}, testutil.Logger())

	if err := s.Start(); err == nil {
		t.Error("expected error for invalid cron expression")
		s.Stop()
	}
}
