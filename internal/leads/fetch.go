package leads

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-lead-finder/internal/model"
)

// Fetcher finds candidate businesses for one industry in one location.
type Fetcher struct {
	places         PlacesProvider
	maxPerIndustry int
	policy         callPolicy
}

// Query builds the free-text Places query for an industry and location.
func Query(industry, location string) string {
	return fmt.Sprintf("%s in %s", industry, location)
}

// FetchCandidates returns at most maxPerIndustry candidates in provider
// order. A provider error yields an empty slice and the error.
func (f *Fetcher) FetchCandidates(ctx context.Context, industry, location string) ([]model.Candidate, error) {
	query := Query(industry, location)
	cands, err := call(ctx, f.policy, "text_search", func(ctx context.Context) ([]model.Candidate, error) {
		return f.places.TextSearch(ctx, query)
	})
	if err != nil {
		return []model.Candidate{}, eris.Wrapf(err, "leads: search %q", query)
	}
	if f.maxPerIndustry > 0 && len(cands) > f.maxPerIndustry {
		cands = cands[:f.maxPerIndustry]
	}
	if cands == nil {
		cands = []model.Candidate{}
	}
	return cands, nil
}
