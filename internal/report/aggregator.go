package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/advisorlens/advisorlens/internal/domain/recommendation"
	"github.com/advisorlens/advisorlens/internal/reservation"
)

// CategoryCount is one bucket of the category distribution.
type CategoryCount struct {
	Category   recommendation.Category `json:"category"`
	Count      int                     `json:"count"`
	Percentage float64                 `json:"percentage"`
}

// ImpactCounts is the fixed three-bucket impact distribution.
type ImpactCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// SubscriptionRollup aggregates one subscription's recommendations.
type SubscriptionRollup struct {
	SubscriptionID   string          `json:"subscription_id"`
	SubscriptionName string          `json:"subscription_name"`
	Count            int             `json:"count"`
	TotalSavings     decimal.Decimal `json:"total_savings"`
}

// CommitmentBreakdown counts classified commitments per taxonomy bucket and
// sums their term-adjusted savings.
type CommitmentBreakdown struct {
	Total             int                                    `json:"total"`
	ByCategory        map[reservation.CommitmentCategory]int `json:"by_category"`
	CommitmentSavings decimal.Decimal                        `json:"commitment_savings"`
}

// Statistics aggregates one report's enriched recommendations. It is
// recomputed fresh on each call and never mutated incrementally.
type Statistics struct {
	TotalRecommendations int                        `json:"total_recommendations"`
	ByCategory           []CategoryCount            `json:"by_category"`
	ByImpact             ImpactCounts               `json:"by_impact"`
	TotalSavings         decimal.Decimal            `json:"total_savings"`
	MonthlySavings       decimal.Decimal            `json:"monthly_savings"`
	AverageSavings       decimal.Decimal            `json:"average_savings"`
	Top                  []*recommendation.Enriched `json:"top"`
	Subscriptions        []SubscriptionRollup       `json:"subscriptions"`
	Commitments          CommitmentBreakdown        `json:"commitments"`
}

// Aggregate computes the full statistics over the in-memory list. Null savings
// are treated as zero. topN bounds the top-recommendations ranking.
func Aggregate(recs []*recommendation.Enriched, topN int) *Statistics {
	stats := &Statistics{
		TotalRecommendations: len(recs),
		TotalSavings:         decimal.Zero,
		MonthlySavings:       decimal.Zero,
		AverageSavings:       decimal.Zero,
		Commitments: CommitmentBreakdown{
			ByCategory:        make(map[reservation.CommitmentCategory]int),
			CommitmentSavings: decimal.Zero,
		},
	}

	categoryCounts := make(map[recommendation.Category]int)
	for _, r := range recs {
		categoryCounts[r.Category]++

		switch r.Impact {
		case recommendation.ImpactHigh:
			stats.ByImpact.High++
		case recommendation.ImpactMedium:
			stats.ByImpact.Medium++
		case recommendation.ImpactLow:
			stats.ByImpact.Low++
		}

		stats.TotalSavings = stats.TotalSavings.Add(r.Savings())

		if r.Reservation.IsReservation {
			stats.Commitments.Total++
			stats.Commitments.ByCategory[r.Reservation.Category]++
			if r.TotalCommitmentSavings != nil {
				stats.Commitments.CommitmentSavings = stats.Commitments.CommitmentSavings.Add(*r.TotalCommitmentSavings)
			}
		}
	}

	stats.ByCategory = categoryDistribution(categoryCounts, len(recs))
	stats.MonthlySavings = stats.TotalSavings.Div(decimal.NewFromInt(12)).Round(2)
	if len(recs) > 0 {
		stats.AverageSavings = stats.TotalSavings.Div(decimal.NewFromInt(int64(len(recs)))).Round(2)
	}
	stats.Top = topRecommendations(recs, topN)
	stats.Subscriptions = subscriptionRollups(recs)

	return stats
}

// categoryDistribution produces counts and percentages in the fixed category
// order, guarding the divide-by-zero case with 0%.
func categoryDistribution(counts map[recommendation.Category]int, total int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for _, c := range recommendation.Categories {
		n, ok := counts[c]
		if !ok {
			continue
		}
		pct := 0.0
		if total > 0 {
			pct = float64(n) / float64(total) * 100
		}
		out = append(out, CategoryCount{Category: c, Count: n, Percentage: pct})
	}
	return out
}

// topRecommendations filters to high-impact or positive-savings rows and
// orders them by impact then savings, both descending. Ties keep input order.
func topRecommendations(recs []*recommendation.Enriched, n int) []*recommendation.Enriched {
	if n <= 0 {
		n = 10
	}

	candidates := make([]*recommendation.Enriched, 0, len(recs))
	for _, r := range recs {
		if r.Impact == recommendation.ImpactHigh || r.Savings().IsPositive() {
			candidates = append(candidates, r)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Impact.Rank() != candidates[j].Impact.Rank() {
			return candidates[i].Impact.Rank() > candidates[j].Impact.Rank()
		}
		return candidates[i].Savings().GreaterThan(candidates[j].Savings())
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// subscriptionRollups groups by subscription and orders by savings descending.
func subscriptionRollups(recs []*recommendation.Enriched) []SubscriptionRollup {
	type key struct{ id, name string }
	grouped := make(map[key]*SubscriptionRollup)
	order := []key{}

	for _, r := range recs {
		k := key{r.SubscriptionID, r.SubscriptionName}
		roll, ok := grouped[k]
		if !ok {
			roll = &SubscriptionRollup{
				SubscriptionID:   k.id,
				SubscriptionName: k.name,
				TotalSavings:     decimal.Zero,
			}
			grouped[k] = roll
			order = append(order, k)
		}
		roll.Count++
		roll.TotalSavings = roll.TotalSavings.Add(r.Savings())
	}

	out := make([]SubscriptionRollup, 0, len(order))
	for _, k := range order {
		out = append(out, *grouped[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalSavings.GreaterThan(out[j].TotalSavings)
	})
	return out
}
