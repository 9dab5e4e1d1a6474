package cli

import (
	"fmt"
	"strings"

	"github.com/Veraticus/spicecat/internal/model"
)

// RenderResult formats a classification result for the terminal.
func RenderResult(result *model.ClassificationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n",
		BoldStyle.Render(result.Category),
		ConfidenceStyle(result.Confidence).Render(fmt.Sprintf("(%.2f)", result.Confidence)))

	b.WriteString("\n" + SubtleStyle.Render("Why:") + "\n")
	for _, reason := range result.Why {
		fmt.Fprintf(&b, "  • %s\n", reason)
	}

	if len(result.Alternatives) > 0 {
		b.WriteString("\n" + SubtleStyle.Render("Alternatives:") + "\n")
		for _, alt := range result.Alternatives {
			fmt.Fprintf(&b, "  %s %s\n",
				alt.Category,
				ConfidenceStyle(alt.Confidence).Render(fmt.Sprintf("%.2f", alt.Confidence)))
		}
	}

	return RenderBox(SpiceIcon+" "+result.TransactionID, strings.TrimRight(b.String(), "\n"))
}

// Summary counts the outcomes of a bulk run.
type Summary struct {
	Categories map[string]int
	Total      int
	Failed     int
}

// Summarize tallies items by winning category.
func Summarize(items []model.BulkItem) Summary {
	s := Summary{Categories: make(map[string]int), Total: len(items)}
	for _, item := range items {
		if item.Failed() {
			s.Failed++
			continue
		}
		s.Categories[item.Result.Category]++
	}
	return s
}

// RenderSummary formats a bulk run summary.
func RenderSummary(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classified: %d\n", s.Total-s.Failed)
	if s.Failed > 0 {
		fmt.Fprintf(&b, "%s\n", ErrorStyle.Render(fmt.Sprintf("Failed: %d", s.Failed)))
	}
	fmt.Fprintf(&b, "Categories: %d", len(s.Categories))
	return RenderBox(ChartIcon+" Bulk classification", b.String())
}
