// Package pagespeed provides a client for the PageSpeed Insights v5 API.
package pagespeed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-lead-finder/internal/resilience"
)

const defaultBaseURL = "https://www.googleapis.com/pagespeedonline/v5"

// Lighthouse categories accepted by the API.
const (
	CategorySEO         = "SEO"
	CategoryPerformance = "PERFORMANCE"
)

// Client runs PageSpeed Insights audits.
type Client interface {
	// Run audits targetURL for the given categories. With no categories the
	// client requests SEO and PERFORMANCE.
	Run(ctx context.Context, targetURL string, categories ...string) (*Result, error)
}

// Result is the subset of the runPagespeed response the lead finder reads.
type Result struct {
	ID               string            `json:"id"`
	LighthouseResult *LighthouseResult `json:"lighthouseResult"`
}

// LighthouseResult holds category and audit scores. Scores are nullable.
type LighthouseResult struct {
	FinalURL   string              `json:"finalUrl"`
	Categories map[string]Category `json:"categories"`
	Audits     map[string]Audit    `json:"audits"`
}

// Category is a Lighthouse category keyed by lower-case id ("seo",
// "performance").
type Category struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Score *float64 `json:"score"`
}

// Audit is a single Lighthouse audit. A nil score means not applicable.
type Audit struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Score *float64 `json:"score"`
}

// CategoryScore returns the score of category id, or nil when absent.
func (r *Result) CategoryScore(id string) *float64 {
	if r == nil || r.LighthouseResult == nil {
		return nil
	}
	c, ok := r.LighthouseResult.Categories[id]
	if !ok {
		return nil
	}
	return c.Score
}

// TargetError reports that Lighthouse could not load or audit the page at
// URL. The API answered normally; the page is the problem.
type TargetError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TargetError) Error() string { return e.Err.Error() }

func (e *TargetError) Unwrap() error { return e.Err }

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// isTargetFailure reports whether an error response is about the audited
// page rather than the API. Lighthouse failures carry a "Lighthouse
// returned error" message on 400 or 500; other 400s reject the url, except
// those about the API key.
func isTargetFailure(status int, body []byte) bool {
	var e apiError
	_ = json.Unmarshal(body, &e)
	msg := e.Error.Message
	if strings.HasPrefix(msg, "Lighthouse returned error") {
		return true
	}
	return status == http.StatusBadRequest && !strings.Contains(strings.ToLower(msg), "api key")
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a PageSpeed Insights client. Lighthouse runs take tens
// of seconds, so the default timeout is generous; callers bound each run
// with their own context.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Run(ctx context.Context, targetURL string, categories ...string) (*Result, error) {
	if targetURL == "" {
		return nil, eris.New("pagespeed: url is required")
	}
	if len(categories) == 0 {
		categories = []string{CategorySEO, CategoryPerformance}
	}

	q := url.Values{}
	q.Set("url", targetURL)
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	for _, cat := range categories {
		q.Add("category", cat)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/runPagespeed?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "pagespeed: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pagespeed: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "pagespeed: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := resilience.StatusError("pagespeed", resp.StatusCode, string(body))
		if isTargetFailure(resp.StatusCode, body) {
			return nil, &TargetError{URL: targetURL, StatusCode: resp.StatusCode, Err: err}
		}
		return nil, err
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "pagespeed: unmarshal response")
	}
	if result.LighthouseResult == nil {
		return nil, eris.Errorf("pagespeed: no lighthouse result for %s", targetURL)
	}
	return &result, nil
}
