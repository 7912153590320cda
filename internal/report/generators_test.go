package report

import (
	"testing"
	"time"

	"github.com/advisorlens/advisorlens/internal/domain/recommendation"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
		ok   bool
	}{
		{"detailed", TypeDetailed, true},
		{"Executive", TypeExecutive, true},
		{" COST ", TypeCost, true},
		{"security", TypeSecurity, true},
		{"operations", TypeOperations, true},
		{"quarterly", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseType(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseType(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestProfilesTable(t *testing.T) {
	for _, typ := range Types {
		p, ok := Profiles[typ]
		if !ok {
			t.Errorf("no profile for %s", typ)
			continue
		}
		if p.Type != typ {
			t.Errorf("profile %s has mismatched type %s", typ, p.Type)
		}
		if p.Title == "" {
			t.Errorf("profile %s has no title", typ)
		}
		if p.TopN <= 0 {
			t.Errorf("profile %s has no top bound", typ)
		}
	}
}

func mixedRecs() []*recommendation.Enriched {
	return []*recommendation.Enriched{
		enriched(recommendation.CategoryCost, recommendation.ImpactHigh, "cost high", "", "", "100"),
		enriched(recommendation.CategorySecurity, recommendation.ImpactHigh, "security high", "", "", ""),
		enriched(recommendation.CategorySecurity, recommendation.ImpactMedium, "security medium", "", "", ""),
		enriched(recommendation.CategoryReliability, recommendation.ImpactLow, "reliability low", "", "", ""),
		enriched(recommendation.CategoryPerformance, recommendation.ImpactMedium, "performance medium", "", "", ""),
		enriched(recommendation.CategoryOperationalExcellence, recommendation.ImpactLow, "opex low", "", "", ""),
	}
}

func TestBuildDetailedKeepsEverything(t *testing.T) {
	ctx, err := Build(TypeDetailed, mixedRecs(), time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ctx.Statistics.TotalRecommendations != 6 {
		t.Errorf("TotalRecommendations = %d, want 6", ctx.Statistics.TotalRecommendations)
	}
	if ctx.Score != nil {
		t.Error("detailed report should have no score")
	}
}

func TestBuildCostFilters(t *testing.T) {
	ctx, err := Build(TypeCost, mixedRecs(), time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ctx.Statistics.TotalRecommendations != 1 {
		t.Errorf("TotalRecommendations = %d, want 1", ctx.Statistics.TotalRecommendations)
	}
	for _, b := range ctx.Statistics.ByCategory {
		if b.Category != recommendation.CategoryCost {
			t.Errorf("unexpected category %s in cost report", b.Category)
		}
	}
}

func TestBuildSecurityScore(t *testing.T) {
	ctx, err := Build(TypeSecurity, mixedRecs(), time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ctx.Statistics.TotalRecommendations != 2 {
		t.Errorf("TotalRecommendations = %d, want 2", ctx.Statistics.TotalRecommendations)
	}
	// one high (15) and one medium (7): 100 - 22 = 78
	if ctx.Score == nil {
		t.Fatal("security report should carry a score")
	}
	if *ctx.Score != 78 {
		t.Errorf("Score = %d, want 78", *ctx.Score)
	}
}

func TestBuildOperationsScore(t *testing.T) {
	ctx, err := Build(TypeOperations, mixedRecs(), time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// reliability low (2) + performance medium (5) + opex low (2): 100 - 9 = 91
	if ctx.Statistics.TotalRecommendations != 3 {
		t.Errorf("TotalRecommendations = %d, want 3", ctx.Statistics.TotalRecommendations)
	}
	if ctx.Score == nil || *ctx.Score != 91 {
		t.Errorf("Score = %v, want 91", ctx.Score)
	}
}

func TestScoreFloorsAtZero(t *testing.T) {
	var recs []*recommendation.Enriched
	for i := 0; i < 10; i++ {
		recs = append(recs, enriched(recommendation.CategorySecurity, recommendation.ImpactHigh, "bad", "", "", ""))
	}

	ctx, err := Build(TypeSecurity, recs, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ctx.Score == nil || *ctx.Score != 0 {
		t.Errorf("Score = %v, want 0", ctx.Score)
	}
}

func TestBuildExecutiveTopBound(t *testing.T) {
	var recs []*recommendation.Enriched
	for i := 0; i < 12; i++ {
		recs = append(recs, enriched(recommendation.CategoryCost, recommendation.ImpactHigh, "x", "", "", "10"))
	}

	ctx, err := Build(TypeExecutive, recs, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(ctx.Top) != 5 {
		t.Errorf("executive top = %d, want 5", len(ctx.Top))
	}
}

func TestBuildUnknownType(t *testing.T) {
	if _, err := Build(Type("quarterly"), nil, time.Now()); err == nil {
		t.Error("expected error for unknown report type")
	}
}

func TestBuildUsesInjectedTimestamp(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx, err := Build(TypeDetailed, nil, at)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !ctx.GeneratedAt.Equal(at) {
		t.Errorf("GeneratedAt = %v, want %v", ctx.GeneratedAt, at)
	}
}
