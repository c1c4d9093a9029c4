// Package scorer turns a business's web presence into an SEO score and an
// ordered list of human-readable issues.
package scorer

import (
	"math"

	"github.com/sells-group/seo-lead-finder/internal/model"
)

// Issue texts reported to users and written to exports.
const (
	IssueNoWebsite        = "No website found"
	IssueAnalysisFailed   = "Could not analyze SEO"
	IssueSlowPage         = "Slow page speed"
	IssueSEOImprovements  = "SEO improvements needed"
	IssueMetaDescriptions = "Missing meta descriptions"
	IssueMobile           = "No mobile optimization"
	IssueSchemaMarkup     = "Missing schema markup"
	IssueNone             = "No major issues detected"
)

// Fixed scores for the outcomes that carry no quality report.
const (
	NoWebsiteScore = 30
	DefaultScore   = 50
)

// Thresholds on category scores in [0,1].
const (
	slowPerformance = 0.5
	weakSEO         = 0.7
	defaultSEO      = 0.5
)

// Kind identifies which analysis path a candidate took.
type Kind int

const (
	KindUnknown Kind = iota
	KindNoWebsite
	KindReport
	KindAnalysisFailed
)

func (k Kind) String() string {
	switch k {
	case KindNoWebsite:
		return "no_website"
	case KindReport:
		return "report"
	case KindAnalysisFailed:
		return "analysis_failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of analyzing one website. Build it with NoWebsite,
// WithReport or AnalysisFailed.
type Outcome struct {
	kind   Kind
	report *model.QualityReport
}

// NoWebsite is the outcome for a business without a website.
func NoWebsite() Outcome { return Outcome{kind: KindNoWebsite} }

// WithReport is the outcome when the quality provider answered. A nil
// report is treated as a report with every category absent.
func WithReport(r *model.QualityReport) Outcome {
	if r == nil {
		r = &model.QualityReport{}
	}
	return Outcome{kind: KindReport, report: r}
}

// AnalysisFailed is the outcome when the quality provider errored or timed out.
func AnalysisFailed() Outcome { return Outcome{kind: KindAnalysisFailed} }

// Kind returns the outcome variant.
func (o Outcome) Kind() Kind { return o.kind }

// Assessment is the score and issue list derived from an Outcome. Issues is
// never empty.
type Assessment struct {
	Score  int
	Issues []string
}

// auditIssues maps audits to the issue raised when they score zero, in
// reporting order.
var auditIssues = []struct {
	audit string
	issue string
}{
	{model.AuditMetaDescription, IssueMetaDescriptions},
	{model.AuditViewport, IssueMobile},
	{model.AuditStructuredData, IssueSchemaMarkup},
}

// Assess applies the scoring policy to o.
func Assess(o Outcome) Assessment {
	var a Assessment

	switch o.kind {
	case KindNoWebsite:
		a.Score = NoWebsiteScore
		a.Issues = []string{IssueNoWebsite}
	case KindAnalysisFailed:
		a.Score = DefaultScore
		a.Issues = []string{IssueAnalysisFailed}
	case KindReport:
		seo := defaultSEO
		if o.report.SEOScore != nil {
			seo = *o.report.SEOScore
		}
		a.Score = Percent(seo)

		if p := o.report.PerformanceScore; p != nil && *p < slowPerformance {
			a.Issues = append(a.Issues, IssueSlowPage)
		}
		if seo < weakSEO {
			a.Issues = append(a.Issues, IssueSEOImprovements)
		}
		for _, ai := range auditIssues {
			if o.report.AuditFailed(ai.audit) {
				a.Issues = append(a.Issues, ai.issue)
			}
		}
	default:
		a.Score = DefaultScore
	}

	if len(a.Issues) == 0 {
		a.Issues = []string{IssueNone}
	}
	return a
}

// Percent converts a [0,1] category score to an integer percentage,
// rounding half up and clamping to 0..100.
func Percent(f float64) int {
	if math.IsNaN(f) {
		return 0
	}
	p := math.Floor(f*100 + 0.5)
	return int(math.Max(0, math.Min(100, p)))
}
