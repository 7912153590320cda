package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/advisorlens/advisorlens/internal/domain/recommendation"
)

// Type identifies one of the report generator strategies.
type Type string

const (
	TypeDetailed   Type = "detailed"
	TypeExecutive  Type = "executive"
	TypeCost       Type = "cost"
	TypeSecurity   Type = "security"
	TypeOperations Type = "operations"
)

// Types lists all report types.
var Types = []Type{TypeDetailed, TypeExecutive, TypeCost, TypeSecurity, TypeOperations}

// ParseType matches a report type case-insensitively.
func ParseType(s string) (Type, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, t := range Types {
		if v == string(t) {
			return t, true
		}
	}
	return "", false
}

// Profile is the configuration of one generator strategy. The five strategies
// differ only in this data, keeping them uniform and testable.
type Profile struct {
	Type  Type
	Title string
	// Categories filters the input; empty means all categories.
	Categories []recommendation.Category
	// TopN overrides the default top-recommendations bound when positive.
	TopN int
	// ScoreWeights, when non-nil, enables the 0-100 score computed as
	// max(0, 100 - Σ count×weight) over the impact distribution.
	ScoreWeights map[recommendation.Impact]int
}

// Profiles is the strategy table.
var Profiles = map[Type]Profile{
	TypeDetailed: {
		Type:  TypeDetailed,
		Title: "Azure Advisor Detailed Report",
		TopN:  25,
	},
	TypeExecutive: {
		Type:  TypeExecutive,
		Title: "Azure Advisor Executive Summary",
		TopN:  5,
	},
	TypeCost: {
		Type:       TypeCost,
		Title:      "Cost Optimization Report",
		Categories: []recommendation.Category{recommendation.CategoryCost},
		TopN:       10,
	},
	TypeSecurity: {
		Type:       TypeSecurity,
		Title:      "Security Posture Report",
		Categories: []recommendation.Category{recommendation.CategorySecurity},
		TopN:       10,
		ScoreWeights: map[recommendation.Impact]int{
			recommendation.ImpactHigh:   15,
			recommendation.ImpactMedium: 7,
			recommendation.ImpactLow:    3,
		},
	},
	TypeOperations: {
		Type:  TypeOperations,
		Title: "Operational Health Report",
		Categories: []recommendation.Category{
			recommendation.CategoryOperationalExcellence,
			recommendation.CategoryReliability,
			recommendation.CategoryPerformance,
		},
		TopN: 10,
		ScoreWeights: map[recommendation.Impact]int{
			recommendation.ImpactHigh:   10,
			recommendation.ImpactMedium: 5,
			recommendation.ImpactLow:    2,
		},
	},
}

// Context is the render context handed to the external rendering layer. The
// timestamp is injected by the caller so generation stays deterministic.
type Context struct {
	Type        Type                       `json:"type"`
	Title       string                     `json:"title"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Statistics  *Statistics                `json:"statistics"`
	Score       *int                       `json:"score,omitempty"`
	Top         []*recommendation.Enriched `json:"top"`
}

// Build runs one generator strategy over the enriched recommendations.
func Build(t Type, recs []*recommendation.Enriched, generatedAt time.Time) (*Context, error) {
	profile, ok := Profiles[t]
	if !ok {
		return nil, fmt.Errorf("unknown report type: %s", t)
	}

	filtered := filterByCategory(recs, profile.Categories)
	stats := Aggregate(filtered, profile.TopN)

	ctx := &Context{
		Type:        profile.Type,
		Title:       profile.Title,
		GeneratedAt: generatedAt,
		Statistics:  stats,
		Top:         stats.Top,
	}

	if profile.ScoreWeights != nil {
		score := computeScore(stats.ByImpact, profile.ScoreWeights)
		ctx.Score = &score
	}

	return ctx, nil
}

func filterByCategory(recs []*recommendation.Enriched, categories []recommendation.Category) []*recommendation.Enriched {
	if len(categories) == 0 {
		return recs
	}

	allowed := make(map[recommendation.Category]bool, len(categories))
	for _, c := range categories {
		allowed[c] = true
	}

	out := make([]*recommendation.Enriched, 0, len(recs))
	for _, r := range recs {
		if allowed[r.Category] {
			out = append(out, r)
		}
	}
	return out
}

// computeScore applies the weighted-count penalty: max(0, 100 - Σ count×weight).
func computeScore(counts ImpactCounts, weights map[recommendation.Impact]int) int {
	penalty := counts.High*weights[recommendation.ImpactHigh] +
		counts.Medium*weights[recommendation.ImpactMedium] +
		counts.Low*weights[recommendation.ImpactLow]

	score := 100 - penalty
	if score < 0 {
		score = 0
	}
	return score
}
