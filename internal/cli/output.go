package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/advisorlens/advisorlens/internal/services"
)

// printResult renders a pipeline result in the requested format.
func printResult(w io.Writer, result *services.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Context)
	case "yaml":
		return yaml.NewEncoder(w).Encode(result.Context)
	default:
		return printTable(w, result)
	}
}

func printTable(w io.Writer, result *services.Result) error {
	stats := result.Statistics
	ctx := result.Context

	fmt.Fprintf(w, "%s\n\n", ctx.Title)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Rows parsed\t%d\n", result.ParseStats.ParsedRows)
	fmt.Fprintf(tw, "Rows skipped\t%d\n", result.ParseStats.SkippedRows)
	fmt.Fprintf(tw, "Recommendations\t%d\n", stats.TotalRecommendations)
	fmt.Fprintf(tw, "Total savings\t%s %s\n", stats.TotalSavings.StringFixed(2), result.Report.Currency)
	fmt.Fprintf(tw, "Monthly savings\t%s %s\n", stats.MonthlySavings.StringFixed(2), result.Report.Currency)
	if ctx.Score != nil {
		fmt.Fprintf(tw, "Score\t%d/100\n", *ctx.Score)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "CATEGORY\tCOUNT\tSHARE")
	for _, c := range stats.ByCategory {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", c.Category, c.Count, c.Percentage)
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "IMPACT\thigh %d\tmedium %d\tlow %d\n", stats.ByImpact.High, stats.ByImpact.Medium, stats.ByImpact.Low)
	fmt.Fprintln(tw)

	if stats.Commitments.Total > 0 {
		fmt.Fprintf(tw, "Commitments\t%d (term-adjusted savings %s)\n", stats.Commitments.Total, stats.Commitments.CommitmentSavings.StringFixed(2))
		for cat, n := range stats.Commitments.ByCategory {
			fmt.Fprintf(tw, "  %s\t%d\n", cat, n)
		}
		fmt.Fprintln(tw)
	}

	if len(stats.Top) > 0 {
		fmt.Fprintln(tw, "TOP RECOMMENDATIONS")
		for i, rec := range stats.Top {
			fmt.Fprintf(tw, "%d.\t[%s/%s]\t%s\t%s\n",
				i+1, rec.Category, rec.Impact, truncate(rec.Recommendation.Recommendation, 70), rec.Savings().StringFixed(2))
		}
	}

	return tw.Flush()
}

// truncate shortens s to at most n runes, ending in "..." when cut. Counting
// runes keeps multi-byte characters intact at the boundary.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
