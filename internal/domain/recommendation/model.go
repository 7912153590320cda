package recommendation

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/advisorlens/advisorlens/internal/reservation"
)

// Category is an Azure Advisor recommendation category.
type Category string

const (
	CategoryCost                  Category = "Cost"
	CategorySecurity              Category = "Security"
	CategoryPerformance           Category = "Performance"
	CategoryOperationalExcellence Category = "Operational Excellence"
	CategoryReliability           Category = "Reliability"
)

// Categories lists all known categories in presentation order.
var Categories = []Category{
	CategoryCost,
	CategorySecurity,
	CategoryPerformance,
	CategoryOperationalExcellence,
	CategoryReliability,
}

// ParseCategory matches a free-form value against the category allow-list,
// case-insensitively. Returns false when the value is unrecognized.
func ParseCategory(s string) (Category, bool) {
	v := strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(v, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Impact is the business impact tier of a recommendation.
type Impact string

const (
	ImpactHigh   Impact = "High"
	ImpactMedium Impact = "Medium"
	ImpactLow    Impact = "Low"
)

// Impacts lists all impact tiers from most to least severe.
var Impacts = []Impact{ImpactHigh, ImpactMedium, ImpactLow}

// ParseImpact matches a free-form value against the impact tiers,
// case-insensitively. Returns false when the value is unrecognized.
func ParseImpact(s string) (Impact, bool) {
	v := strings.TrimSpace(s)
	for _, i := range Impacts {
		if strings.EqualFold(v, string(i)) {
			return i, true
		}
	}
	return "", false
}

// Rank orders impacts for sorting; higher is more severe.
func (i Impact) Rank() int {
	switch i {
	case ImpactHigh:
		return 3
	case ImpactMedium:
		return 2
	case ImpactLow:
		return 1
	default:
		return 0
	}
}

// Recommendation is one normalized CSV data row. RowIndex is 1-based from the
// first data row and preserved for traceability.
type Recommendation struct {
	RowIndex           int               `json:"row_index"`
	Category           Category          `json:"category"`
	Impact             Impact            `json:"impact"`
	Recommendation     string            `json:"recommendation"`
	ResourceName       string            `json:"resource_name,omitempty"`
	ResourceType       string            `json:"resource_type,omitempty"`
	ResourceGroup      string            `json:"resource_group,omitempty"`
	SubscriptionID     string            `json:"subscription_id,omitempty"`
	SubscriptionName   string            `json:"subscription_name,omitempty"`
	PotentialSavings   *decimal.Decimal  `json:"potential_savings,omitempty"`
	Currency           string            `json:"currency"`
	PotentialBenefits  string            `json:"potential_benefits,omitempty"`
	RetirementDate     *time.Time        `json:"retirement_date,omitempty"`
	RetiringFeature    string            `json:"retiring_feature,omitempty"`
	AdvisorScoreImpact *decimal.Decimal  `json:"advisor_score_impact,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// Enriched is a Recommendation with its reservation classification and the
// derived savings figures attached.
type Enriched struct {
	Recommendation
	Reservation reservation.Analysis `json:"reservation"`
	// TotalCommitmentSavings is potential savings multiplied by the commitment
	// term when the term is fixed; nil when savings are unknown.
	TotalCommitmentSavings *decimal.Decimal `json:"total_commitment_savings,omitempty"`
	// MonthlySavings is potential savings divided by twelve; nil when unknown.
	MonthlySavings *decimal.Decimal `json:"monthly_savings,omitempty"`
}

// Savings returns the potential savings, treating nil as zero.
func (r *Recommendation) Savings() decimal.Decimal {
	if r.PotentialSavings == nil {
		return decimal.Zero
	}
	return *r.PotentialSavings
}

// Enrich attaches the reservation analysis and derived savings to a row.
func Enrich(rec *Recommendation) *Enriched {
	analysis := reservation.Analyze(rec.Recommendation, rec.PotentialBenefits)

	e := &Enriched{
		Recommendation: *rec,
		Reservation:    analysis,
	}

	if rec.PotentialSavings != nil {
		total := reservation.TotalCommitmentSavings(*rec.PotentialSavings, analysis.Term)
		monthly := rec.PotentialSavings.Div(decimal.NewFromInt(12)).Round(2)
		e.TotalCommitmentSavings = &total
		e.MonthlySavings = &monthly
	}

	return e
}

// Report is the persisted envelope for one processed upload.
type Report struct {
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

// Report statuses
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)
