// Package industry turns a search mode and a raw industry list into the
// concrete set of industries a lead search queries.
package industry

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/seo-lead-finder/internal/model"
)

// Set is an ordered list of industry names without duplicates.
type Set []string

// Limit returns the first n industries. The receiver is not modified.
func (s Set) Limit(n int) Set {
	if n < 0 || n >= len(s) {
		return append(Set(nil), s...)
	}
	return append(Set(nil), s[:n]...)
}

// Resolver builds industry sets from configured default lists.
type Resolver struct {
	auto   Set
	hybrid Set
}

// NewResolver creates a Resolver. auto is used verbatim for ModeAuto and
// hybrid is merged with the user's list for ModeHybrid.
func NewResolver(auto, hybrid []string) *Resolver {
	return &Resolver{
		auto:   dedupe(auto),
		hybrid: dedupe(hybrid),
	}
}

// Resolve returns the industries for mode. Unknown modes and empty manual
// lists yield an empty set, never an error.
func (r *Resolver) Resolve(mode model.Mode, raw string) Set {
	switch mode {
	case model.ModeAuto:
		return r.auto.Limit(-1)
	case model.ModeManual:
		return dedupe(Parse(raw))
	case model.ModeHybrid:
		// User entries keep their position ahead of the defaults.
		merged := append(Parse(raw), r.hybrid...)
		return dedupe(merged)
	default:
		return Set{}
	}
}

// Parse splits a comma separated list, trims each entry and drops empties.
func Parse(raw string) []string {
	var out []string
	for _, tok := range strings.Split(raw, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// dedupe keeps the first spelling of each case-folded name.
func dedupe(names []string) Set {
	fold := cases.Fold()
	seen := make(map[string]bool, len(names))
	out := make(Set, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := fold.String(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
