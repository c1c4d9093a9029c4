package leads

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/seo-lead-finder/internal/cache"
	"github.com/sells-group/seo-lead-finder/internal/model"
	"github.com/sells-group/seo-lead-finder/pkg/google"
	"github.com/sells-group/seo-lead-finder/pkg/pagespeed"
)

// PlacesProvider finds businesses and looks up their contact details.
type PlacesProvider interface {
	TextSearch(ctx context.Context, query string) ([]model.Candidate, error)
	PlaceDetails(ctx context.Context, placeID string) (*model.Detail, error)
}

// QualityProvider audits a website.
type QualityProvider interface {
	Analyze(ctx context.Context, url string) (*model.QualityReport, error)
}

// GooglePlaces adapts the Places API client to PlacesProvider.
type GooglePlaces struct {
	client google.Client
}

// NewGooglePlaces wraps a Places API client.
func NewGooglePlaces(c google.Client) *GooglePlaces {
	return &GooglePlaces{client: c}
}

func (g *GooglePlaces) TextSearch(ctx context.Context, query string) ([]model.Candidate, error) {
	resp, err := g.client.TextSearch(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]model.Candidate, 0, len(resp.Places))
	for _, p := range resp.Places {
		out = append(out, model.Candidate{PlaceID: p.ID, Name: p.DisplayName.Text})
	}
	return out, nil
}

func (g *GooglePlaces) PlaceDetails(ctx context.Context, placeID string) (*model.Detail, error) {
	p, err := g.client.PlaceDetails(ctx, placeID)
	if err != nil {
		return nil, err
	}
	return &model.Detail{
		Name:        p.DisplayName.Text,
		Phone:       p.NationalPhoneNumber,
		Website:     p.WebsiteURI,
		Rating:      p.Rating,
		ReviewCount: p.UserRatingCount,
	}, nil
}

// PageSpeed adapts the PageSpeed Insights client to QualityProvider.
type PageSpeed struct {
	client pagespeed.Client
}

// NewPageSpeed wraps a PageSpeed Insights client.
func NewPageSpeed(c pagespeed.Client) *PageSpeed {
	return &PageSpeed{client: c}
}

// Analyze runs PageSpeed on url. Lighthouse failures to load the page are
// returned as *model.WebsiteError.
func (p *PageSpeed) Analyze(ctx context.Context, url string) (*model.QualityReport, error) {
	res, err := p.client.Run(ctx, url, pagespeed.CategorySEO, pagespeed.CategoryPerformance)
	if err != nil {
		var te *pagespeed.TargetError
		if errors.As(err, &te) {
			return nil, &model.WebsiteError{URL: url, Err: err}
		}
		return nil, err
	}
	report := &model.QualityReport{
		SEOScore:         res.CategoryScore("seo"),
		PerformanceScore: res.CategoryScore("performance"),
		Audits:           make(map[string]*float64, len(res.LighthouseResult.Audits)),
		Source:           "pagespeed",
	}
	for id, a := range res.LighthouseResult.Audits {
		report.Audits[id] = a.Score
	}
	return report, nil
}

// CachedQuality serves reports from a cache before asking the wrapped
// provider. Cache failures are logged and otherwise ignored.
type CachedQuality struct {
	next  QualityProvider
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedQuality wraps next with c.
func NewCachedQuality(next QualityProvider, c cache.Cache, ttl time.Duration) *CachedQuality {
	return &CachedQuality{next: next, cache: c, ttl: ttl}
}

func (q *CachedQuality) Analyze(ctx context.Context, url string) (*model.QualityReport, error) {
	log := zap.L().With(zap.String("url", url))

	report, ok, err := q.cache.Get(ctx, url)
	if err != nil {
		log.Debug("leads: quality cache get failed", zap.Error(err))
	}
	if ok {
		log.Debug("leads: quality cache hit")
		return report, nil
	}

	report, err = q.next.Analyze(ctx, url)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, eris.Errorf("leads: empty quality report for %s", url)
	}
	if err := q.cache.Set(ctx, url, report, q.ttl); err != nil {
		log.Debug("leads: quality cache set failed", zap.Error(err))
	}
	return report, nil
}
