// Package leads runs the lead search pipeline: resolve industries, find
// candidate businesses, analyze each one and collect the scored leads.
package leads

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/seo-lead-finder/internal/config"
	"github.com/sells-group/seo-lead-finder/internal/industry"
	"github.com/sells-group/seo-lead-finder/internal/metrics"
	"github.com/sells-group/seo-lead-finder/internal/model"
	"github.com/sells-group/seo-lead-finder/internal/resilience"
)

var (
	// ErrMissingCredentials is returned before any work when no Places
	// provider is configured.
	ErrMissingCredentials = eris.New("Google Places API key not configured")
	// ErrInvalidRequest is returned for a request without a location.
	ErrInvalidRequest = eris.New("leads: location is required")
)

// Options bounds a search.
type Options struct {
	MaxIndustries  int
	MaxPerIndustry int
	Concurrency    int

	PlacesTimeout  time.Duration
	QualityTimeout time.Duration
	// PlacesRate is the shared Places request budget per second. Zero
	// disables limiting.
	PlacesRate float64

	PlacesRetry  resilience.Backoff
	QualityRetry resilience.Backoff

	// BreakerThreshold and BreakerCooldown configure the circuit breaker
	// in front of the quality provider. A zero threshold disables it.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// OptionsFromConfig maps configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	p := cfg.Pipeline
	return Options{
		MaxIndustries:    p.MaxIndustries,
		MaxPerIndustry:   p.MaxPerIndustry,
		Concurrency:      p.Concurrency,
		PlacesTimeout:    time.Duration(p.PlacesTimeoutSecs) * time.Second,
		QualityTimeout:   time.Duration(p.QualityTimeoutSecs) * time.Second,
		PlacesRate:       cfg.Google.RateLimit,
		PlacesRetry:      resilience.BackoffFromConfig(p.Retry),
		QualityRetry:     resilience.Backoff{MaxAttempts: cfg.PageSpeed.MaxAttempts},
		BreakerThreshold: cfg.PageSpeed.FailureThreshold,
		BreakerCooldown:  time.Duration(cfg.PageSpeed.ResetTimeoutSecs) * time.Second,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxIndustries <= 0 {
		o.MaxIndustries = 3
	}
	if o.MaxPerIndustry <= 0 {
		o.MaxPerIndustry = 3
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	return o
}

// Stats counts what happened during a search.
type Stats struct {
	Candidates        int `json:"candidates"`
	IndustryFailures  int `json:"industry_failures"`
	CandidateFailures int `json:"candidate_failures"`
	Hot               int `json:"hot"`
	Warm              int `json:"warm"`
	Cold              int `json:"cold"`
}

// Summary is a finished search with the context needed to report on it.
type Summary struct {
	RunID      string              `json:"run_id"`
	Request    model.SearchRequest `json:"request"`
	Industries []string            `json:"industries"`
	Results    []model.LeadResult  `json:"results"`
	Stats      Stats               `json:"stats"`
	Duration   time.Duration       `json:"duration"`
}

// Finder runs lead searches.
type Finder struct {
	resolver *industry.Resolver
	places   PlacesProvider
	opts     Options
	fetcher  *Fetcher
	analyzer *Analyzer
}

// NewFinder wires a Finder. places may be nil, in which case every search
// fails with ErrMissingCredentials. quality may be nil, in which case every
// website-bearing lead is reported as not analyzable.
func NewFinder(resolver *industry.Resolver, places PlacesProvider, quality QualityProvider, opts Options) *Finder {
	opts = opts.withDefaults()

	placesPolicy := callPolicy{
		provider: "places",
		timeout:  opts.PlacesTimeout,
		backoff:  opts.PlacesRetry,
	}
	if opts.PlacesRate > 0 {
		placesPolicy.limiter = rate.NewLimiter(rate.Limit(opts.PlacesRate), 1)
	}

	qualityPolicy := callPolicy{
		provider: "quality",
		timeout:  opts.QualityTimeout,
		backoff:  opts.QualityRetry,
	}
	if opts.BreakerThreshold > 0 {
		qualityPolicy.breaker = resilience.NewBreaker("quality", opts.BreakerThreshold, opts.BreakerCooldown).
			CountIf(isProviderFailure).
			OnStateChange(func(name string, from, to resilience.State) {
				zap.L().Warn("leads: circuit state changed",
					zap.String("provider", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to),
				)
				metrics.SetCircuitState(name, int(to))
			})
	}

	return &Finder{
		resolver: resolver,
		places:   places,
		opts:     opts,
		fetcher:  &Fetcher{places: places, maxPerIndustry: opts.MaxPerIndustry, policy: placesPolicy},
		analyzer: &Analyzer{places: places, quality: quality, placesPolicy: placesPolicy, qualityPolicy: qualityPolicy},
	}
}

// isProviderFailure reports whether a quality error says anything about the
// provider. A business's broken website does not.
func isProviderFailure(err error) bool {
	return !model.IsWebsiteError(err)
}

// Run executes a search and returns the leads in industry order, then
// candidate order.
func (f *Finder) Run(ctx context.Context, req model.SearchRequest) ([]model.LeadResult, error) {
	s, err := f.RunSummary(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.Results, nil
}

// RunSummary executes a search and returns the leads with run statistics.
// Per-industry and per-candidate failures are logged and counted, never
// returned.
func (f *Finder) RunSummary(ctx context.Context, req model.SearchRequest) (*Summary, error) {
	if f.places == nil {
		metrics.ObserveSearch("error")
		return nil, ErrMissingCredentials
	}
	req.Location = strings.TrimSpace(req.Location)
	if req.Location == "" {
		metrics.ObserveSearch("invalid")
		return nil, ErrInvalidRequest
	}

	start := time.Now()
	runID := uuid.NewString()
	log := zap.L().With(
		zap.String("run_id", runID),
		zap.String("location", req.Location),
		zap.String("mode", string(req.Mode)),
	)

	industries := f.resolver.Resolve(req.Mode, req.IndustriesRaw).Limit(f.opts.MaxIndustries)
	log.Info("leads: search started", zap.Strings("industries", industries))

	var industryFailures, candidateFailures atomic.Int64

	// Phase 1: candidates per industry.
	candidates := make([][]model.Candidate, len(industries))
	g := new(errgroup.Group)
	g.SetLimit(f.opts.Concurrency)
	for i, ind := range industries {
		g.Go(func() error {
			cands, err := f.fetcher.FetchCandidates(ctx, ind, req.Location)
			if err != nil {
				industryFailures.Add(1)
				metrics.ObserveIndustryFailure()
				log.Warn("leads: industry search failed", zap.String("industry", ind), zap.Error(err))
			}
			candidates[i] = cands
			return nil
		})
	}
	_ = g.Wait()

	// Phase 2: analyze every candidate into its own slot.
	slots := make([][]*model.LeadResult, len(industries))
	g = new(errgroup.Group)
	g.SetLimit(f.opts.Concurrency)
	for i, ind := range industries {
		slots[i] = make([]*model.LeadResult, len(candidates[i]))
		for j, c := range candidates[i] {
			g.Go(func() error {
				res, err := f.analyzer.Analyze(ctx, c, ind, req.Location)
				if err != nil {
					candidateFailures.Add(1)
					metrics.ObserveCandidateFailure()
					log.Warn("leads: candidate skipped",
						zap.String("industry", ind),
						zap.String("place_id", c.PlaceID),
						zap.String("name", c.Name),
						zap.Error(err),
					)
					return nil
				}
				slots[i][j] = res
				return nil
			})
		}
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		metrics.ObserveSearch("canceled")
		return nil, eris.Wrap(err, "leads: search canceled")
	}

	summary := &Summary{
		RunID:      runID,
		Request:    req,
		Industries: industries,
		Results:    []model.LeadResult{},
	}
	for i := range slots {
		summary.Stats.Candidates += len(candidates[i])
		for _, res := range slots[i] {
			if res == nil {
				continue
			}
			summary.Results = append(summary.Results, *res)
			cat := res.Category()
			metrics.ObserveResult(string(cat))
			switch cat {
			case model.CategoryHot:
				summary.Stats.Hot++
			case model.CategoryWarm:
				summary.Stats.Warm++
			case model.CategoryCold:
				summary.Stats.Cold++
			}
		}
	}
	summary.Stats.IndustryFailures = int(industryFailures.Load())
	summary.Stats.CandidateFailures = int(candidateFailures.Load())
	summary.Duration = time.Since(start)

	metrics.ObserveSearch("ok")
	log.Info("leads: search complete",
		zap.Int("results", len(summary.Results)),
		zap.Int("industry_failures", summary.Stats.IndustryFailures),
		zap.Int("candidate_failures", summary.Stats.CandidateFailures),
		zap.Duration("elapsed", summary.Duration),
	)
	return summary, nil
}
