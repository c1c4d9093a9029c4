package leads

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sells-group/seo-lead-finder/internal/model"
)

// fakePlaces is an in-memory PlacesProvider keyed by query and place id.
type fakePlaces struct {
	mu          sync.Mutex
	results     map[string][]model.Candidate
	searchErrs  map[string]error
	details     map[string]*model.Detail
	detailErrs  map[string]error
	delays      map[string]time.Duration
	queries     []string
	detailCalls atomic.Int64
}

func newFakePlaces() *fakePlaces {
	return &fakePlaces{
		results:    map[string][]model.Candidate{},
		searchErrs: map[string]error{},
		details:    map[string]*model.Detail{},
		detailErrs: map[string]error{},
		delays:     map[string]time.Duration{},
	}
}

// add registers a business for an industry query and returns its id.
func (f *fakePlaces) add(query, id string, d *model.Detail) {
	f.results[query] = append(f.results[query], model.Candidate{PlaceID: id, Name: "cand-" + id})
	if d != nil {
		f.details[id] = d
	}
}

func (f *fakePlaces) TextSearch(ctx context.Context, query string) ([]model.Candidate, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	err := f.searchErrs[query]
	res := f.results[query]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return append([]model.Candidate(nil), res...), ctx.Err()
}

func (f *fakePlaces) PlaceDetails(ctx context.Context, placeID string) (*model.Detail, error) {
	f.detailCalls.Add(1)
	if d := f.delays[placeID]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.detailErrs[placeID]; err != nil {
		return nil, err
	}
	d, ok := f.details[placeID]
	if !ok {
		return &model.Detail{}, nil
	}
	cp := *d
	return &cp, nil
}

func (f *fakePlaces) searchedQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// fakeQuality is an in-memory QualityProvider keyed by URL.
type fakeQuality struct {
	reports map[string]*model.QualityReport
	errs    map[string]error
	block   bool
	calls   atomic.Int64
}

func newFakeQuality() *fakeQuality {
	return &fakeQuality{reports: map[string]*model.QualityReport{}, errs: map[string]error{}}
}

func (f *fakeQuality) Analyze(ctx context.Context, url string) (*model.QualityReport, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	if r, ok := f.reports[url]; ok {
		return r, nil
	}
	return &model.QualityReport{}, nil
}

func score(v float64) *float64 { return &v }
