// Package export writes lead lists as CSV, XLSX, JSON, YAML and console
// tables.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-lead-finder/internal/model"
)

// IssueSeparator joins a lead's issues into one cell.
const IssueSeparator = "; "

// DateLayout formats stored lead dates in the dashboard export.
const DateLayout = "2006-01-02"

var (
	searchColumns    = []string{"Business", "Industry", "Website", "SEO Score", "Phone", "Issues"}
	dashboardColumns = []string{"Business", "Industry", "Location", "Website", "SEO Score", "Phone", "Email", "Date"}
	fullColumns      = []string{"business", "industry", "location", "website", "phone", "seo_score", "category", "issues", "rating", "reviews"}
)

// CategoryLabel is the human label for a lead category.
func CategoryLabel(c model.Category) string {
	switch c {
	case model.CategoryHot:
		return "HOT (Poor SEO)"
	case model.CategoryCold:
		return "COLD (Good SEO)"
	default:
		return string(c)
	}
}

// WriteSearchCSV writes the search results download.
func WriteSearchCSV(w io.Writer, results []model.LeadResult) error {
	return writeCSV(w, searchColumns, len(results), func(i int) []string {
		r := results[i]
		return []string{
			r.Business,
			r.Industry,
			r.Website,
			strconv.Itoa(r.SEOScore),
			r.Phone,
			strings.Join(r.Issues, IssueSeparator),
		}
	})
}

// WriteDashboardCSV writes stored leads as shown on the results dashboard.
func WriteDashboardCSV(w io.Writer, leads []model.StoredLead) error {
	return writeCSV(w, dashboardColumns, len(leads), func(i int) []string {
		l := leads[i]
		return []string{
			l.Business,
			l.Industry,
			l.Location,
			l.Website,
			strconv.Itoa(l.SEOScore),
			l.Phone,
			l.Email,
			l.CreatedAt.Format(DateLayout),
		}
	})
}

// WriteFullCSV writes every lead field plus its category.
func WriteFullCSV(w io.Writer, results []model.LeadResult) error {
	return writeCSV(w, fullColumns, len(results), func(i int) []string {
		return fullRow(results[i])
	})
}

func fullRow(r model.LeadResult) []string {
	return []string{
		r.Business,
		r.Industry,
		r.Location,
		r.Website,
		r.Phone,
		strconv.Itoa(r.SEOScore),
		CategoryLabel(r.Category()),
		strings.Join(r.Issues, IssueSeparator),
		strconv.FormatFloat(r.Rating, 'f', -1, 64),
		strconv.Itoa(r.Reviews),
	}
}

func writeCSV(w io.Writer, header []string, n int, row func(i int) []string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write CSV header")
	}
	for i := range n {
		if err := cw.Write(row(i)); err != nil {
			return eris.Wrap(err, "export: write CSV row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush CSV")
	}
	return nil
}
