package sheets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/spicecat/internal/model"
)

const (
	// detailColumns is the width of the transaction detail table.
	detailColumns = 6
	// confidenceColumn is the zero-based column holding detail confidences.
	confidenceColumn = 2
)

// reportLayout records where buildRows put things, for formatting.
type reportLayout struct {
	headings    []int
	detailStart int
	detailRows  int
}

type categoryStats struct {
	category      string
	count         int
	confidenceSum float64
}

// buildRows lays out the report: a summary block, a per-category breakdown
// and one detail row per item in input order.
func buildRows(items []model.BulkItem) ([][]any, reportLayout) {
	var (
		failed        int
		uncategorized int
		byCategory    = map[string]*categoryStats{}
	)
	for _, item := range items {
		if item.Failed() || item.Result == nil {
			failed++
			continue
		}
		r := item.Result
		if r.Category == model.Uncategorized {
			uncategorized++
		}
		stats, ok := byCategory[r.Category]
		if !ok {
			stats = &categoryStats{category: r.Category}
			byCategory[r.Category] = stats
		}
		stats.count++
		stats.confidenceSum += r.Confidence
	}

	categories := make([]*categoryStats, 0, len(byCategory))
	for _, stats := range byCategory {
		categories = append(categories, stats)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].count != categories[j].count {
			return categories[i].count > categories[j].count
		}
		return categories[i].category < categories[j].category
	})

	values := make([][]any, 0, 12+len(categories)+len(items))
	values = append(values,
		[]any{"Classification Report"},
		[]any{},
		[]any{"Summary"},
		[]any{"Total Transactions", len(items)},
		[]any{"Classified", len(items) - failed},
		[]any{"Uncategorized", uncategorized},
		[]any{"Failed", failed},
		[]any{},
		[]any{"Category Breakdown"},
		[]any{"Category", "Count", "Average Confidence"},
	)
	layout := reportLayout{headings: []int{2, 8, 9}}
	for _, stats := range categories {
		values = append(values, []any{
			stats.category,
			stats.count,
			fmt.Sprintf("%.2f", stats.confidenceSum/float64(stats.count)),
		})
	}

	values = append(values,
		[]any{},
		[]any{"Transaction Details"},
		[]any{"Transaction", "Category", "Confidence", "Why", "Alternatives", "Error"},
	)
	layout.headings = append(layout.headings, len(values)-2, len(values)-1)
	layout.detailStart = len(values)
	layout.detailRows = len(items)
	for _, item := range items {
		if item.Failed() || item.Result == nil {
			values = append(values, []any{item.TransactionID, "", "", "", "", item.Error})
			continue
		}
		r := item.Result
		values = append(values, []any{
			item.TransactionID,
			r.Category,
			fmt.Sprintf("%.2f", r.Confidence),
			strings.Join(r.Why, " | "),
			formatAlternatives(r.Alternatives),
			"",
		})
	}

	return values, layout
}

func formatAlternatives(alternatives []model.Alternative) string {
	parts := make([]string, 0, len(alternatives))
	for _, alt := range alternatives {
		parts = append(parts, fmt.Sprintf("%s (%.2f)", alt.Category, alt.Confidence))
	}
	return strings.Join(parts, ", ")
}
