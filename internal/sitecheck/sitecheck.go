// Package sitecheck audits a homepage locally when no PageSpeed key is
// configured. It produces the same QualityReport shape as PageSpeed so the
// scoring policy does not care which provider answered.
package sitecheck

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/seo-lead-finder/internal/config"
	"github.com/sells-group/seo-lead-finder/internal/model"
)

// Source identifies reports produced by this package.
const Source = "sitecheck"

// Page weight and response time bounds for the performance estimate.
const (
	fastResponse = 1 * time.Second
	slowResponse = 5 * time.Second
	lightPage    = 500 * 1024
	heavyPage    = 3 * 1024 * 1024
)

// ErrPrivateAddress is returned when a site resolves to a loopback,
// link-local, private or otherwise non-public address.
var ErrPrivateAddress = eris.New("sitecheck: refusing to dial non-public address")

// Shared address space (RFC 6598), not covered by netip's IsPrivate.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// Checker fetches and audits homepages.
type Checker struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

// Option configures a Checker.
type Option func(*Checker)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Checker) { c.client = hc }
}

// New creates a Checker from config. Unless cfg.AllowPrivate is set, the
// default client refuses to connect to non-public addresses, redirects
// included.
func New(cfg config.SiteCheckConfig, opts ...Option) *Checker {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	if !cfg.AllowPrivate {
		dialer.Control = publicOnly
	}
	c := &Checker{
		client: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		maxBytes:  cfg.MaxBytes,
		userAgent: cfg.UserAgent,
	}
	if c.maxBytes <= 0 {
		c.maxBytes = 2 * 1024 * 1024
	}
	if c.userAgent == "" {
		c.userAgent = "seo-lead-finder/1.0"
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Analyze fetches targetURL and scores it. Failures come from the target
// site and are returned as *model.WebsiteError, except caller cancellation.
func (c *Checker) Analyze(ctx context.Context, targetURL string) (*model.QualityReport, error) {
	report, err := c.analyze(ctx, targetURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &model.WebsiteError{URL: targetURL, Err: err}
	}
	return report, nil
}

func (c *Checker) analyze(ctx context.Context, targetURL string) (*model.QualityReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sitecheck: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "sitecheck: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, eris.Wrap(err, "sitecheck: read body")
	}
	elapsed := time.Since(start)

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("sitecheck: status %d from %s", resp.StatusCode, targetURL)
	}

	doc, err := goquery.NewDocumentFromReader(decode(resp.Header.Get("Content-Type"), body))
	if err != nil {
		return nil, eris.Wrap(err, "sitecheck: parse html")
	}

	final := resp.Request.URL
	report := Audit(doc, final.Scheme == "https")
	perf := Performance(elapsed, len(body))
	report.PerformanceScore = &perf

	zap.L().Debug("sitecheck: analyzed",
		zap.String("url", targetURL),
		zap.String("final_url", final.String()),
		zap.Duration("elapsed", elapsed),
		zap.Int("bytes", len(body)),
	)
	return report, nil
}

// publicOnly is a net.Dialer Control that rejects non-public addresses.
// It runs after DNS resolution, so hostnames that resolve inward are
// caught too.
func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return eris.Wrapf(err, "sitecheck: parse dial address %s", address)
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return eris.Wrapf(err, "sitecheck: parse dial address %s", address)
	}
	if !IsPublic(ip) {
		return eris.Wrapf(ErrPrivateAddress, "sitecheck: %s", ip)
	}
	return nil
}

// IsPublic reports whether ip is a globally routable unicast address.
func IsPublic(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsGlobalUnicast() &&
		!ip.IsPrivate() &&
		!sharedAddressSpace.Contains(ip)
}

// decode converts body to UTF-8 when the response declares another charset.
// Unknown charsets are passed through unchanged.
func decode(contentType string, body []byte) io.Reader {
	raw := bytes.NewReader(body)
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return raw
	}
	cs := strings.ToLower(params["charset"])
	if cs == "" || cs == "utf-8" || cs == "utf8" {
		return raw
	}
	enc, err := htmlindex.Get(cs)
	if err != nil {
		return raw
	}
	return enc.NewDecoder().Reader(raw)
}

// Audit runs the markup checks on a parsed page. The SEO score is the
// fraction of audits passed.
func Audit(doc *goquery.Document, https bool) *model.QualityReport {
	checks := map[string]bool{
		model.AuditMetaDescription: metaContent(doc, "description") != "",
		model.AuditViewport:        metaContent(doc, "viewport") != "",
		model.AuditStructuredData:  hasStructuredData(doc),
		model.AuditDocumentTitle:   strings.TrimSpace(doc.Find("head title").First().Text()) != "",
		model.AuditHTTPS:           https,
	}

	report := &model.QualityReport{
		Audits: make(map[string]*float64, len(checks)),
		Source: Source,
	}
	passed := 0
	for id, ok := range checks {
		score := 0.0
		if ok {
			score = 1
			passed++
		}
		report.Audits[id] = &score
	}
	seo := float64(passed) / float64(len(checks))
	report.SEOScore = &seo
	return report
}

func metaContent(doc *goquery.Document, name string) string {
	var content string
	doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if n, _ := s.Attr("name"); strings.EqualFold(n, name) {
			content, _ = s.Attr("content")
			content = strings.TrimSpace(content)
			return false
		}
		return true
	})
	return content
}

func hasStructuredData(doc *goquery.Document) bool {
	found := false
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = strings.TrimSpace(s.Text()) != ""
		return !found
	})
	return found || doc.Find("[itemscope][itemtype]").Length() > 0
}

// Performance estimates a [0,1] score from response time and page weight,
// each scaled linearly between a good and a bad bound and then averaged.
func Performance(elapsed time.Duration, size int) float64 {
	t := scale(float64(elapsed), float64(fastResponse), float64(slowResponse))
	w := scale(float64(size), lightPage, heavyPage)
	return (t + w) / 2
}

func scale(v, good, bad float64) float64 {
	switch {
	case v <= good:
		return 1
	case v >= bad:
		return 0
	default:
		return 1 - (v-good)/(bad-good)
	}
}
