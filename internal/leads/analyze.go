package leads

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/seo-lead-finder/internal/metrics"
	"github.com/sells-group/seo-lead-finder/internal/model"
	"github.com/sells-group/seo-lead-finder/internal/scorer"
)

// Analyzer turns a candidate into a scored lead.
type Analyzer struct {
	places        PlacesProvider
	quality       QualityProvider
	placesPolicy  callPolicy
	qualityPolicy callPolicy
}

// Analyze fetches the candidate's details, audits its website when it has
// one, and builds the lead. Only a detail lookup failure is returned as an
// error; quality failures degrade the lead instead.
func (a *Analyzer) Analyze(ctx context.Context, c model.Candidate, industry, location string) (*model.LeadResult, error) {
	detail, err := call(ctx, a.placesPolicy, "place_details", func(ctx context.Context) (*model.Detail, error) {
		return a.places.PlaceDetails(ctx, c.PlaceID)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "leads: details for %s", c.PlaceID)
	}
	if detail == nil {
		detail = &model.Detail{}
	}

	website := strings.TrimSpace(detail.Website)
	outcome := a.assessWebsite(ctx, website)
	assessment := scorer.Assess(outcome)
	metrics.ObserveQualityCheck(outcome.Kind().String())

	name := detail.Name
	if name == "" {
		name = c.Name
	}

	return &model.LeadResult{
		Business: name,
		Industry: industry,
		Location: location,
		Website:  orNA(website),
		SEOScore: assessment.Score,
		Phone:    orNA(detail.Phone),
		Email:    model.NotAvailable,
		Issues:   assessment.Issues,
		Rating:   detail.Rating,
		Reviews:  detail.ReviewCount,
	}, nil
}

func (a *Analyzer) assessWebsite(ctx context.Context, website string) scorer.Outcome {
	if website == "" {
		return scorer.NoWebsite()
	}
	if a.quality == nil {
		return scorer.AnalysisFailed()
	}

	report, err := call(ctx, a.qualityPolicy, "analyze", func(ctx context.Context) (*model.QualityReport, error) {
		return a.quality.Analyze(ctx, website)
	})
	if err != nil {
		zap.L().Warn("leads: quality analysis failed",
			zap.String("website", website),
			zap.Error(err),
		)
		return scorer.AnalysisFailed()
	}
	return scorer.WithReport(report)
}

func orNA(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return model.NotAvailable
	}
	return s
}
