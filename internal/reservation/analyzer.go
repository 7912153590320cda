package reservation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Type identifies the kind of capacity commitment a recommendation refers to.
type Type string

const (
	TypeNone             Type = ""
	TypeReservedInstance Type = "reserved_instance"
	TypeSavingsPlan      Type = "savings_plan"
	TypeReservedCapacity Type = "reserved_capacity"
	TypeOther            Type = "other"
)

// CommitmentCategory is the granular taxonomy bucket for a commitment.
type CommitmentCategory string

const (
	PureReservation1Y          CommitmentCategory = "pure_reservation_1y"
	PureReservation3Y          CommitmentCategory = "pure_reservation_3y"
	PureReservationUnknownTerm CommitmentCategory = "pure_reservation_unknown_term"
	PureSavingsPlan            CommitmentCategory = "pure_savings_plan"
	CombinedSP1Y               CommitmentCategory = "combined_sp_1y"
	CombinedSP3Y               CommitmentCategory = "combined_sp_3y"
	CombinedSPUnknownTerm      CommitmentCategory = "combined_sp_unknown_term"
	Uncategorized              CommitmentCategory = "uncategorized"
)

// TermKind distinguishes the ways a commitment term can be absent. The source
// data conflates "not a commitment", "term not stated" and "term is the user's
// choice" into one null; keeping them separate makes the classifier testable
// without changing the externally visible categories.
type TermKind int

const (
	// TermNone means the text does not describe a commitment at all.
	TermNone TermKind = iota
	// TermUnspecified means the text describes a commitment but states no term.
	TermUnspecified
	// TermUserChoice means the term is explicitly presented as a 1-or-3-year choice.
	TermUserChoice
	// TermFixed means the text states a concrete term in Years.
	TermFixed
)

// Term is a commitment duration.
type Term struct {
	Kind  TermKind
	Years int
}

// Years1 and Years3 are the two fixed terms Azure Advisor ever states.
var (
	Years1 = Term{Kind: TermFixed, Years: 1}
	Years3 = Term{Kind: TermFixed, Years: 3}
)

// Fixed reports whether the term is a concrete number of years.
func (t Term) Fixed() bool { return t.Kind == TermFixed }

// MarshalJSON keeps wire parity with the historical schema: fixed terms
// serialize as 1 or 3, everything else as null.
func (t Term) MarshalJSON() ([]byte, error) {
	if t.Kind == TermFixed {
		return []byte(fmt.Sprintf("%d", t.Years)), nil
	}
	return []byte("null"), nil
}

// Analysis is the full classification of one recommendation's text. It is a
// pure function of the input text: no external state, deterministic, idempotent.
type Analysis struct {
	IsReservation bool               `json:"is_reservation"`
	Type          Type               `json:"reservation_type,omitempty"`
	IsSavingsPlan bool               `json:"is_savings_plan"`
	Term          Term               `json:"commitment_term_years"`
	Category      CommitmentCategory `json:"commitment_category"`
}

// Keyword matching is case-insensitive substring containment, not tokenized
// word-boundary matching. This is deliberately loose and over-matches (note
// "ri " inside unrelated words); tightening it would change classification
// outcomes on real Advisor exports.
var savingsPlanKeywords = []string{
	"savings plan",
	"savings plans",
	"compute savings",
	"azure savings plan",
}

var traditionalKeywords = []string{
	"reserved instance",
	"reserved instances",
	"reserved capacity",
	"capacity reservation",
	"reservation",
	"reservations",
	"reserve",
	"ri ",
	"commitment",
	"buy virtual machine reserved instances",
	"consider virtual machine reserved instance",
	"cost savings over pay-as-you-go",
}

var (
	combinedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`savings\s+plans?.*\b(?:and|with|combined|plus|\+)\b.*reserv`),
		regexp.MustCompile(`reserv\w*.*\b(?:and|with|combined|plus|\+)\b.*savings\s+plans?`),
	}

	typePatterns = []struct {
		typ Type
		re  *regexp.Regexp
	}{
		{TypeReservedInstance, regexp.MustCompile(`reserved\s+(?:virtual\s+machine\s+|vm\s+)?instances?`)},
		{TypeSavingsPlan, regexp.MustCompile(`savings\s+plans?|compute\s+savings`)},
		{TypeReservedCapacity, regexp.MustCompile(`reserved\s+capacity|capacity\s+reservations?`)},
	}

	userChoiceTermPattern = regexp.MustCompile(
		`(?:1|one)(?:[\s-]years?)?\s+or\s+(?:3|three)[\s-]years?|(?:3|three)(?:[\s-]years?)?\s+or\s+(?:1|one)[\s-]years?`)
	threeYearPattern = regexp.MustCompile(`(?:3|three)[\s-]?years?|36[\s-]?months?`)
	oneYearPattern   = regexp.MustCompile(`(?:1|one)[\s-]?years?|12[\s-]?months?`)
)

// normalize lowercases and joins the recommendation text fields the way every
// sub-operation expects them.
func normalize(texts ...string) string {
	return strings.ToLower(strings.TrimSpace(strings.Join(texts, " ")))
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// IsSavingsPlan reports whether the text matches a Savings-Plan keyword.
func IsSavingsPlan(text string) bool {
	return matchesAny(normalize(text), savingsPlanKeywords)
}

// IsTraditionalReservation reports whether the text matches a traditional
// reservation keyword. Savings-Plan matches take precedence: a text is never
// simultaneously a pure traditional reservation.
func IsTraditionalReservation(text string) bool {
	t := normalize(text)
	return !matchesAny(t, savingsPlanKeywords) && matchesAny(t, traditionalKeywords)
}

// IsReservation reports whether the text denotes any capacity commitment.
func IsReservation(text string) bool {
	t := normalize(text)
	return matchesAny(t, savingsPlanKeywords) || matchesAny(t, traditionalKeywords)
}

// IsCombinedCommitment reports whether the text describes a Savings Plan
// combined with a traditional reservation, either through an explicit
// combining phrase or by independently matching both keyword families.
func IsCombinedCommitment(text string) bool {
	t := normalize(text)
	for _, re := range combinedPatterns {
		if re.MatchString(t) {
			return true
		}
	}
	return matchesAny(t, savingsPlanKeywords) && matchesAny(t, traditionalKeywords)
}

// ExtractType determines the commitment type from the text. Pattern groups are
// tried in order and the first match wins; texts that denote a commitment but
// match no pattern are typed as other.
func ExtractType(text string) Type {
	t := normalize(text)
	for _, p := range typePatterns {
		if p.re.MatchString(t) {
			return p.typ
		}
	}
	if matchesAny(t, savingsPlanKeywords) || matchesAny(t, traditionalKeywords) {
		return TypeOther
	}
	return TypeNone
}

// ExtractTerm determines the commitment term. A "1 or 3 year" phrasing means
// the term is the user's choice, not fixed by the data, and must never default
// to either value. A commitment with no stated term is TermUnspecified.
func ExtractTerm(text string) Term {
	t := normalize(text)
	switch {
	case userChoiceTermPattern.MatchString(t):
		return Term{Kind: TermUserChoice}
	case threeYearPattern.MatchString(t):
		return Years3
	case oneYearPattern.MatchString(t):
		return Years1
	case matchesAny(t, savingsPlanKeywords) || matchesAny(t, traditionalKeywords):
		return Term{Kind: TermUnspecified}
	default:
		return Term{Kind: TermNone}
	}
}

// Categorize assigns the taxonomy bucket. Combined commitments take precedence
// over pure Savings Plans, which take precedence over pure reservations.
func Categorize(text string) CommitmentCategory {
	t := normalize(text)
	term := ExtractTerm(t)

	switch {
	case IsCombinedCommitment(t):
		switch {
		case term == Years1:
			return CombinedSP1Y
		case term == Years3:
			return CombinedSP3Y
		default:
			return CombinedSPUnknownTerm
		}
	case matchesAny(t, savingsPlanKeywords):
		return PureSavingsPlan
	case matchesAny(t, traditionalKeywords):
		switch {
		case term == Years1:
			return PureReservation1Y
		case term == Years3:
			return PureReservation3Y
		default:
			return PureReservationUnknownTerm
		}
	default:
		return Uncategorized
	}
}

// Analyze classifies one recommendation from its free text and optional
// benefits text. Both inputs are concatenated before matching.
func Analyze(recommendationText, potentialBenefitsText string) Analysis {
	t := normalize(recommendationText, potentialBenefitsText)
	return Analysis{
		IsReservation: IsReservation(t),
		Type:          ExtractType(t),
		IsSavingsPlan: IsSavingsPlan(t),
		Term:          ExtractTerm(t),
		Category:      Categorize(t),
	}
}

// TotalCommitmentSavings multiplies annual savings by the commitment term.
// When the term is not fixed the annual figure is returned unchanged.
func TotalCommitmentSavings(annual decimal.Decimal, term Term) decimal.Decimal {
	if term.Fixed() {
		return annual.Mul(decimal.NewFromInt(int64(term.Years)))
	}
	return annual
}

// Summary produces a one-line human-readable description of an analysis.
func Summary(a Analysis) string {
	if !a.IsReservation {
		return "not a capacity commitment"
	}

	var b strings.Builder
	switch a.Category {
	case CombinedSP1Y, CombinedSP3Y, CombinedSPUnknownTerm:
		b.WriteString("combined savings plan and reservation")
	case PureSavingsPlan:
		b.WriteString("savings plan")
	case PureReservation1Y, PureReservation3Y, PureReservationUnknownTerm:
		b.WriteString("reservation")
	default:
		b.WriteString("capacity commitment")
	}

	switch a.Term.Kind {
	case TermFixed:
		fmt.Fprintf(&b, ", %d-year term", a.Term.Years)
	case TermUserChoice:
		b.WriteString(", 1-or-3-year term (user's choice)")
	case TermUnspecified:
		b.WriteString(", term not stated")
	}

	if a.Type != TypeNone && a.Type != TypeOther {
		fmt.Fprintf(&b, " (%s)", strings.ReplaceAll(string(a.Type), "_", " "))
	}

	return b.String()
}
