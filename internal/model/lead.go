// Package model defines the lead search domain types shared by the pipeline,
// the store and the presentation surfaces.
package model

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// NotAvailable is reported for contact fields the pipeline could not fill.
const NotAvailable = "N/A"

// Mode selects how the industry list for a search is built.
type Mode string

const (
	ModeAuto   Mode = "auto"   // curated defaults only
	ModeManual Mode = "manual" // user-supplied list only
	ModeHybrid Mode = "hybrid" // user list plus a shorter default list
)

// ParseMode validates a mode string from a request or flag.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAuto, ModeManual, ModeHybrid:
		return m, nil
	default:
		return "", eris.Errorf("model: unknown industry mode %q", s)
	}
}

// SearchRequest is a single lead search.
type SearchRequest struct {
	Location      string `json:"location"`
	IndustriesRaw string `json:"industries"`
	Mode          Mode   `json:"mode"`
}

// Candidate is a business returned by a Places text search.
type Candidate struct {
	PlaceID string `json:"place_id"`
	Name    string `json:"name"`
}

// Detail holds the contact and site fields of a place. Website is empty when
// the business has none, which is a meaningful state rather than an error.
type Detail struct {
	Name        string  `json:"name"`
	Phone       string  `json:"phone,omitempty"`
	Website     string  `json:"website,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"review_count,omitempty"`
}

// Audit identifiers consulted by the issue policy.
const (
	AuditMetaDescription = "meta-description"
	AuditViewport        = "viewport"
	AuditStructuredData  = "structured-data"
	AuditDocumentTitle   = "document-title"
	AuditHTTPS           = "is-on-https"
)

// QualityReport is the site-quality provider's view of a website. Category
// scores are in [0,1]; nil means the provider did not report the category.
// An audit with a nil score was not applicable.
type QualityReport struct {
	SEOScore         *float64            `json:"seo_score,omitempty"`
	PerformanceScore *float64            `json:"performance_score,omitempty"`
	Audits           map[string]*float64 `json:"audits,omitempty"`
	Source           string              `json:"source,omitempty"`
}

// AuditFailed reports whether the named audit ran and scored exactly zero.
func (q *QualityReport) AuditFailed(id string) bool {
	if q == nil {
		return false
	}
	s, ok := q.Audits[id]
	return ok && s != nil && *s == 0
}

// FailedAudits lists every audit that scored zero, sorted by id.
func (q *QualityReport) FailedAudits() []string {
	if q == nil {
		return nil
	}
	var failed []string
	for id := range q.Audits {
		if q.AuditFailed(id) {
			failed = append(failed, id)
		}
	}
	slices.Sort(failed)
	return failed
}

// WebsiteError reports that a business's own website could not be audited:
// it is unreachable, answers with an error status or is not a page the
// provider can load. It says nothing about the health of the provider.
type WebsiteError struct {
	URL string
	Err error
}

func (e *WebsiteError) Error() string { return e.Err.Error() }

func (e *WebsiteError) Unwrap() error { return e.Err }

// IsWebsiteError reports whether err is, or wraps, a *WebsiteError.
func IsWebsiteError(err error) bool {
	var we *WebsiteError
	return errors.As(err, &we)
}

// LeadResult is one scored business. It is built once by the analyzer and
// not modified afterwards.
type LeadResult struct {
	Business string   `json:"business" yaml:"business"`
	Industry string   `json:"industry" yaml:"industry"`
	Location string   `json:"location" yaml:"location"`
	Website  string   `json:"website" yaml:"website"`
	SEOScore int      `json:"seo_score" yaml:"seo_score"`
	Phone    string   `json:"phone" yaml:"phone"`
	Email    string   `json:"email" yaml:"email"`
	Issues   []string `json:"issues" yaml:"issues"`
	Rating   float64  `json:"rating" yaml:"rating"`
	Reviews  int      `json:"reviews" yaml:"reviews"`
}

// Category buckets a lead by how much its site needs SEO work.
type Category string

const (
	CategoryHot  Category = "HOT"  // poor SEO, best prospect
	CategoryWarm Category = "WARM"
	CategoryCold Category = "COLD" // good SEO already
)

// CategoryFor maps an SEO score to a lead category.
func CategoryFor(score int) Category {
	switch {
	case score >= 70:
		return CategoryCold
	case score >= 50:
		return CategoryWarm
	default:
		return CategoryHot
	}
}

// Category returns the lead's category.
func (l LeadResult) Category() Category {
	return CategoryFor(l.SEOScore)
}

// StoredLead is a row of the leads table served by the read endpoint.
type StoredLead struct {
	ID        int64     `json:"id"`
	Business  string    `json:"business"`
	Industry  string    `json:"industry"`
	Location  string    `json:"location"`
	Website   string    `json:"website"`
	SEOScore  int       `json:"seo_score"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Issues    []string  `json:"issues"`
	CreatedAt time.Time `json:"created_at"`
}

// AutomationConfig is the singleton schedule record. The pipeline never
// reads it; an external scheduler does.
type AutomationConfig struct {
	ID         int64      `json:"id"`
	Enabled    bool       `json:"enabled"`
	Location   string     `json:"location"`
	DayOfWeek  string     `json:"day_of_week"`
	Time       string     `json:"time"`
	Industries string     `json:"industries"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// Validate checks the day and time fields of an automation config.
func (a AutomationConfig) Validate() error {
	if !weekdays[strings.ToLower(a.DayOfWeek)] {
		return eris.Errorf("model: invalid day_of_week %q", a.DayOfWeek)
	}
	if _, err := time.Parse("15:04", a.Time); err != nil {
		return eris.Errorf("model: invalid time %q, want HH:MM", a.Time)
	}
	return nil
}
