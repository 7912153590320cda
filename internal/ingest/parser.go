package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/advisorlens/advisorlens/internal/config"
	"github.com/advisorlens/advisorlens/internal/domain/recommendation"
	"github.com/advisorlens/advisorlens/internal/pkg/errors"
	"github.com/advisorlens/advisorlens/internal/pkg/logger"
)

// Stats summarizes one parse invocation. Parsed plus skipped always equals
// the total number of data rows in the file.
type Stats struct {
	TotalRows    int                           `json:"total_rows"`
	ParsedRows   int                           `json:"parsed_rows"`
	SkippedRows  int                           `json:"skipped_rows"`
	Warnings     int                           `json:"warnings"`
	TotalSavings decimal.Decimal               `json:"total_savings"`
	ByImpact     map[recommendation.Impact]int `json:"by_impact"`
}

// Parser streams validated CSV content into normalized recommendation rows.
// Row-level defects are logged and skipped; only file-level problems fail the
// parse.
type Parser struct {
	fallbackCategory recommendation.Category
	fallbackImpact   recommendation.Impact
	log              *logger.Logger
}

// NewParser creates a parser. Unrecognized categories and impacts are
// normalized to the configured fallbacks; unparseable config falls back to the
// historical defaults.
func NewParser(cfg config.UploadConfig, log *logger.Logger) *Parser {
	fc, ok := recommendation.ParseCategory(cfg.FallbackCategory)
	if !ok {
		fc = recommendation.CategoryOperationalExcellence
	}
	fi, ok := recommendation.ParseImpact(cfg.FallbackImpact)
	if !ok {
		fi = recommendation.ImpactMedium
	}
	return &Parser{fallbackCategory: fc, fallbackImpact: fi, log: log}
}

// Parse reads the decoded file content and returns the surviving rows plus
// statistics. The context is checked between rows so a caller can cancel a
// long file at row granularity.
func (p *Parser) Parse(ctx context.Context, content string) ([]*recommendation.Recommendation, *Stats, error) {
	dialect := Sniff(sniffSample(content))

	r := csv.NewReader(strings.NewReader(content))
	r.Comma = dialect.Delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, nil, errors.MalformedCSV("failed to read CSV header", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, nil, err
	}

	stats := &Stats{
		TotalSavings: decimal.Zero,
		ByImpact:     make(map[recommendation.Impact]int),
	}
	var recs []*recommendation.Recommendation

	for rowIndex := 1; ; rowIndex++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// encoding/csv recovers at the next line; count the bad row
			stats.TotalRows++
			stats.SkippedRows++
			p.log.WithFields(map[string]interface{}{
				"row": rowIndex,
			}).WithError(err).Warn("skipping unparseable row")
			continue
		}

		stats.TotalRows++
		rec, ok := p.buildRow(cols, record, rowIndex, stats)
		if !ok {
			stats.SkippedRows++
			continue
		}

		stats.ParsedRows++
		stats.ByImpact[rec.Impact]++
		if rec.PotentialSavings != nil {
			stats.TotalSavings = stats.TotalSavings.Add(*rec.PotentialSavings)
		}
		recs = append(recs, rec)
	}

	if stats.ParsedRows == 0 {
		return nil, nil, errors.NoValidRows()
	}

	return recs, stats, nil
}

// sniffSample returns the initial portion of content used for dialect sniffing.
func sniffSample(content string) string {
	const sampleSize = 4096
	if len(content) > sampleSize {
		return content[:sampleSize]
	}
	return content
}

// columns holds the resolved column index per field; -1 means absent.
type columns struct {
	category           int
	impact             int
	recommendation     int
	title              int
	description        int
	resourceName       int
	resourceType       int
	resourceGroup      int
	subscriptionID     int
	subscriptionName   int
	potentialSavings   int
	currency           int
	potentialBenefits  int
	retirementDate     int
	retiringFeature    int
	advisorScoreImpact int
	metadata           map[string]int
}

var columnSynonyms = map[string][]string{
	"category":           {"category"},
	"impact":             {"impact", "business impact"},
	"recommendation":     {"recommendation"},
	"title":              {"title"},
	"description":        {"description"},
	"resourceName":       {"resource name", "impacted resource", "resource"},
	"resourceType":       {"resource type", "impacted field"},
	"resourceGroup":      {"resource group"},
	"subscriptionID":     {"subscription id"},
	"subscriptionName":   {"subscription name"},
	"potentialSavings":   {"potential savings", "potential annual savings", "potential annual cost savings", "savings"},
	"currency":           {"currency", "savings currency"},
	"potentialBenefits":  {"potential benefits", "benefits"},
	"retirementDate":     {"retirement date"},
	"retiringFeature":    {"retiring feature"},
	"advisorScoreImpact": {"advisor score impact", "score impact"},
}

// metadataColumns is the fixed allow-list of optional columns preserved in the
// metadata bag. Anything else unrecognized is silently dropped.
var metadataColumns = []string{
	"recommendation id",
	"last updated",
	"state",
	"source",
	"tenant id",
	"region",
}

// mapColumns resolves header names case-insensitively. The canonical schema
// requires Category and Recommendation; the legacy schema
// (Category/Impact/Title/Description) is accepted as a compatibility alias.
func mapColumns(header []string) (*columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, exists := index[key]; !exists {
			index[key] = i
		}
	}

	lookup := func(field string) int {
		for _, name := range columnSynonyms[field] {
			if i, ok := index[name]; ok {
				return i
			}
		}
		return -1
	}

	c := &columns{
		category:           lookup("category"),
		impact:             lookup("impact"),
		recommendation:     lookup("recommendation"),
		title:              lookup("title"),
		description:        lookup("description"),
		resourceName:       lookup("resourceName"),
		resourceType:       lookup("resourceType"),
		resourceGroup:      lookup("resourceGroup"),
		subscriptionID:     lookup("subscriptionID"),
		subscriptionName:   lookup("subscriptionName"),
		potentialSavings:   lookup("potentialSavings"),
		currency:           lookup("currency"),
		potentialBenefits:  lookup("potentialBenefits"),
		retirementDate:     lookup("retirementDate"),
		retiringFeature:    lookup("retiringFeature"),
		advisorScoreImpact: lookup("advisorScoreImpact"),
		metadata:           make(map[string]int),
	}

	for _, name := range metadataColumns {
		if i, ok := index[name]; ok {
			c.metadata[name] = i
		}
	}

	canonical := c.category >= 0 && c.recommendation >= 0
	legacy := c.category >= 0 && c.impact >= 0 && c.title >= 0 && c.description >= 0
	if !canonical && !legacy {
		missing := []string{}
		if c.category < 0 {
			missing = append(missing, "Category")
		}
		if c.recommendation < 0 {
			missing = append(missing, "Recommendation")
		}
		return nil, errors.MissingColumns(missing)
	}

	return c, nil
}

// ValidateHeader confirms the required columns are present without parsing
// any rows. Used by the upload validator before the file is accepted.
func ValidateHeader(header []string) error {
	_, err := mapColumns(header)
	return err
}

func normalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(h))), " ")
}

// cell returns the trimmed value at index i, or "" when absent.
func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// buildRow maps one CSV record to a normalized recommendation. Returns false
// when a required field is blank; such rows are skipped, never fatal.
func (p *Parser) buildRow(c *columns, record []string, rowIndex int, stats *Stats) (*recommendation.Recommendation, bool) {
	category := cell(record, c.category)
	text := cell(record, c.recommendation)
	if text == "" {
		text = composeLegacyText(cell(record, c.title), cell(record, c.description))
	}

	if category == "" || text == "" {
		p.log.WithFields(map[string]interface{}{
			"row": rowIndex,
		}).Warn("skipping row with blank required field")
		return nil, false
	}

	cat, ok := recommendation.ParseCategory(category)
	if !ok {
		stats.Warnings++
		p.log.WithFields(map[string]interface{}{
			"row":      rowIndex,
			"category": category,
			"fallback": string(p.fallbackCategory),
		}).Warn("unrecognized category, using fallback")
		cat = p.fallbackCategory
	}

	impact := p.fallbackImpact
	if raw := cell(record, c.impact); raw != "" {
		if parsed, ok := recommendation.ParseImpact(raw); ok {
			impact = parsed
		} else {
			stats.Warnings++
			p.log.WithFields(map[string]interface{}{
				"row":      rowIndex,
				"impact":   raw,
				"fallback": string(p.fallbackImpact),
			}).Warn("unrecognized impact, using fallback")
		}
	}

	rec := &recommendation.Recommendation{
		RowIndex:          rowIndex,
		Category:          cat,
		Impact:            impact,
		Recommendation:    text,
		ResourceName:      cell(record, c.resourceName),
		ResourceType:      cell(record, c.resourceType),
		ResourceGroup:     cell(record, c.resourceGroup),
		SubscriptionID:    cell(record, c.subscriptionID),
		SubscriptionName:  cell(record, c.subscriptionName),
		Currency:          normalizeCurrency(cell(record, c.currency)),
		PotentialBenefits: cell(record, c.potentialBenefits),
		RetiringFeature:   cell(record, c.retiringFeature),
	}

	if raw := cell(record, c.potentialSavings); raw != "" {
		if d, err := parseSavings(raw); err == nil {
			rec.PotentialSavings = d
		} else {
			stats.Warnings++
			p.log.WithFields(map[string]interface{}{
				"row":   rowIndex,
				"value": raw,
			}).Warn("unparseable potential savings, leaving null")
		}
	}

	if raw := cell(record, c.advisorScoreImpact); raw != "" {
		if d, err := decimal.NewFromString(raw); err == nil {
			rec.AdvisorScoreImpact = &d
		}
	}

	if raw := cell(record, c.retirementDate); raw != "" {
		if t, ok := parseDate(raw); ok {
			rec.RetirementDate = &t
		}
	}

	for name, i := range c.metadata {
		if v := cell(record, i); v != "" {
			if rec.Metadata == nil {
				rec.Metadata = make(map[string]string)
			}
			rec.Metadata[name] = v
		}
	}

	return rec, true
}

// composeLegacyText builds the recommendation text from the legacy
// Title/Description pair.
func composeLegacyText(title, description string) string {
	switch {
	case title != "" && description != "":
		return title + ": " + description
	case title != "":
		return title
	default:
		return description
	}
}

// parseSavings parses a currency-formatted amount, tolerating dollar signs,
// thousands separators and surrounding whitespace.
func parseSavings(raw string) (*decimal.Decimal, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	time.RFC3339,
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeCurrency validates a 3-letter currency code, defaulting to USD.
func normalizeCurrency(raw string) string {
	if len(raw) != 3 {
		return "USD"
	}
	for _, r := range raw {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return "USD"
		}
	}
	return strings.ToUpper(raw)
}
