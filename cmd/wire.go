package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/seo-lead-finder/internal/cache"
	"github.com/sells-group/seo-lead-finder/internal/config"
	"github.com/sells-group/seo-lead-finder/internal/industry"
	"github.com/sells-group/seo-lead-finder/internal/leads"
	"github.com/sells-group/seo-lead-finder/internal/sitecheck"
	"github.com/sells-group/seo-lead-finder/internal/store"
	"github.com/sells-group/seo-lead-finder/pkg/google"
	"github.com/sells-group/seo-lead-finder/pkg/pagespeed"
)

// searchEnv holds the finder and the resources it owns.
type searchEnv struct {
	Finder *leads.Finder
	cache  cache.Cache
}

// Close releases resources held by the search environment.
func (e *searchEnv) Close() {
	if e.cache != nil {
		_ = e.cache.Close()
	}
}

// initSearch builds the providers and the Finder from configuration.
// Callers should defer env.Close().
func initSearch(c *config.Config, opts leads.Options) (*searchEnv, error) {
	qc, err := cache.New(c.Cache)
	if err != nil {
		return nil, err
	}

	places := newPlaces(c)
	quality := newQuality(c, qc)
	if places == nil {
		zap.L().Warn("google places key not set; searches will fail")
	}

	resolver := industry.NewResolver(c.Industries.Auto, c.Industries.Hybrid)
	return &searchEnv{
		Finder: leads.NewFinder(resolver, places, quality, opts),
		cache:  qc,
	}, nil
}

// newPlaces returns nil when no Places key is configured.
func newPlaces(c *config.Config) leads.PlacesProvider {
	if c.Google.Key == "" {
		return nil
	}
	return leads.NewGooglePlaces(google.NewClient(c.Google.Key, google.WithBaseURL(c.Google.BaseURL)))
}

// newQuality picks PageSpeed when a key is set, else the local site check
// when enabled, else nothing. The chosen provider is wrapped in the cache.
func newQuality(c *config.Config, qc cache.Cache) leads.QualityProvider {
	var q leads.QualityProvider
	switch {
	case c.PageSpeed.Key != "":
		q = leads.NewPageSpeed(pagespeed.NewClient(c.PageSpeed.Key, pagespeed.WithBaseURL(c.PageSpeed.BaseURL)))
		zap.L().Debug("quality provider: pagespeed")
	case c.SiteCheck.Enabled:
		q = sitecheck.New(c.SiteCheck)
		zap.L().Debug("quality provider: sitecheck")
	default:
		zap.L().Warn("no site quality provider configured; websites will not be analyzed")
		return nil
	}
	if qc == nil {
		return q
	}
	return leads.NewCachedQuality(q, qc, cache.TTL(c.Cache))
}

// openStore connects to the configured store and applies the schema.
func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	if err := c.Validate("store"); err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, c.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
