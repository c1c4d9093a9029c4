package export

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-lead-finder/internal/model"
)

const tableWidth = 100

// WriteTable prints leads sorted by ascending score, followed by totals per
// category. The input slice is not reordered.
func WriteTable(w io.Writer, results []model.LeadResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "\nNo leads found.")
		return eris.Wrap(err, "export: write table")
	}

	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b model.LeadResult) int { return a.SEOScore - b.SEOScore })

	rule := strings.Repeat("=", tableWidth)
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", rule)
	fmt.Fprintf(&b, "%-30s %-15s %-10s %-20s %-25s\n", "Business", "Industry", "SEO Score", "Category", "Website")
	fmt.Fprintln(&b, rule)

	counts := map[model.Category]int{}
	for _, r := range sorted {
		cat := r.Category()
		counts[cat]++
		fmt.Fprintf(&b, "%-30s %-15s %-10d %-20s %-25s\n",
			truncate(r.Business, 29), truncate(r.Industry, 14), r.SEOScore,
			CategoryLabel(cat), truncate(r.Website, 24))
	}

	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "\nTotal leads found: %d\n", len(sorted))
	fmt.Fprintf(&b, "  HOT (Poor SEO): %d\n", counts[model.CategoryHot])
	fmt.Fprintf(&b, "  WARM: %d\n", counts[model.CategoryWarm])
	fmt.Fprintf(&b, "  COLD (Good SEO): %d\n", counts[model.CategoryCold])

	if _, err := io.WriteString(w, b.String()); err != nil {
		return eris.Wrap(err, "export: write table")
	}
	return nil
}

// WriteStoredTable prints stored leads newest first, as read from the store.
func WriteStoredTable(w io.Writer, leads []model.StoredLead) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %-30s %-15s %-20s %5s %-25s\n", "Date", "Business", "Industry", "Location", "Score", "Website")
	fmt.Fprintln(&b, strings.Repeat("-", tableWidth+12))
	for _, l := range leads {
		fmt.Fprintf(&b, "%-12s %-30s %-15s %-20s %5d %-25s\n",
			l.CreatedAt.Format(DateLayout), truncate(l.Business, 29), truncate(l.Industry, 14),
			truncate(l.Location, 19), l.SEOScore, truncate(l.Website, 24))
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return eris.Wrap(err, "export: write table")
	}
	return nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
