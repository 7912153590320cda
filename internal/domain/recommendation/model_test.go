package recommendation

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/advisorlens/advisorlens/internal/reservation"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"Cost", CategoryCost, true},
		{"cost", CategoryCost, true},
		{"  SECURITY  ", CategorySecurity, true},
		{"operational excellence", CategoryOperationalExcellence, true},
		{"HighAvailability", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseCategory(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseCategory(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseImpact(t *testing.T) {
	tests := []struct {
		in   string
		want Impact
		ok   bool
	}{
		{"High", ImpactHigh, true},
		{"medium", ImpactMedium, true},
		{" LOW ", ImpactLow, true},
		{"Critical", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseImpact(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseImpact(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestImpactRank(t *testing.T) {
	if !(ImpactHigh.Rank() > ImpactMedium.Rank() && ImpactMedium.Rank() > ImpactLow.Rank()) {
		t.Error("impact ranks are not strictly ordered")
	}
	if Impact("bogus").Rank() != 0 {
		t.Error("unknown impact should rank lowest")
	}
}

func TestSavingsNilAsZero(t *testing.T) {
	rec := &Recommendation{}
	if !rec.Savings().Equal(decimal.Zero) {
		t.Errorf("Savings = %s, want 0", rec.Savings())
	}

	d := decimal.NewFromInt(42)
	rec.PotentialSavings = &d
	if !rec.Savings().Equal(d) {
		t.Errorf("Savings = %s, want 42", rec.Savings())
	}
}

func TestEnrich(t *testing.T) {
	savings := decimal.RequireFromString("1200.00")
	rec := &Recommendation{
		Category:         CategoryCost,
		Impact:           ImpactHigh,
		Recommendation:   "Buy a 3 year reserved instance",
		PotentialSavings: &savings,
	}

	e := Enrich(rec)

	if e.Reservation.Category != reservation.PureReservation3Y {
		t.Errorf("commitment category = %s", e.Reservation.Category)
	}
	if e.TotalCommitmentSavings == nil || !e.TotalCommitmentSavings.Equal(decimal.RequireFromString("3600.00")) {
		t.Errorf("TotalCommitmentSavings = %v, want 3600.00", e.TotalCommitmentSavings)
	}
	if e.MonthlySavings == nil || !e.MonthlySavings.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("MonthlySavings = %v, want 100.00", e.MonthlySavings)
	}
}

func TestEnrichNilSavings(t *testing.T) {
	e := Enrich(&Recommendation{
		Category:       CategoryCost,
		Impact:         ImpactHigh,
		Recommendation: "Purchase a savings plan for compute",
	})

	if e.TotalCommitmentSavings != nil || e.MonthlySavings != nil {
		t.Error("derived savings should be nil when potential savings are unknown")
	}
	if !e.Reservation.IsSavingsPlan {
		t.Error("expected savings plan classification")
	}
}

func TestEnrichUsesBenefitsText(t *testing.T) {
	e := Enrich(&Recommendation{
		Category:          CategoryCost,
		Impact:            ImpactHigh,
		Recommendation:    "Reduce your compute spend",
		PotentialBenefits: "Buy reserved instances for 3 years",
	})
	if e.Reservation.Category != reservation.PureReservation3Y {
		t.Errorf("commitment category = %s, benefits text ignored", e.Reservation.Category)
	}
}
