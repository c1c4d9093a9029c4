package sitecheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/sells-group/seo-lead-finder/internal/config"
	"github.com/sells-group/seo-lead-finder/internal/model"
)

const goodPage = `<!doctype html>
<html><head>
<title>Bright Smiles Dental</title>
<meta name="description" content="Family dentist in Austin">
<meta name="viewport" content="width=device-width, initial-scale=1">
<script type="application/ld+json">{"@type":"Dentist","name":"Bright Smiles"}</script>
</head><body><h1>Welcome</h1></body></html>`

const barePage = `<html><head></head><body><p>Under construction</p></body></html>`

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestAudit_AllPassing(t *testing.T) {
	r := Audit(parse(t, goodPage), true)

	require.NotNil(t, r.SEOScore)
	assert.InDelta(t, 1.0, *r.SEOScore, 0.0001)
	assert.Empty(t, r.FailedAudits())
	assert.Equal(t, Source, r.Source)
}

func TestAudit_BarePage(t *testing.T) {
	r := Audit(parse(t, barePage), false)

	require.NotNil(t, r.SEOScore)
	assert.InDelta(t, 0.0, *r.SEOScore, 0.0001)
	assert.Equal(t, []string{
		model.AuditDocumentTitle, model.AuditHTTPS, model.AuditMetaDescription,
		model.AuditStructuredData, model.AuditViewport,
	}, r.FailedAudits())
}

func TestAudit_Partial(t *testing.T) {
	html := `<html><head><title>Joe's Plumbing</title><meta name="Description" content="  "></head>
<body><div itemscope itemtype="https://schema.org/Plumber">Joe</div></body></html>`
	r := Audit(parse(t, html), true)

	assert.True(t, r.AuditFailed(model.AuditMetaDescription), "blank description fails")
	assert.True(t, r.AuditFailed(model.AuditViewport))
	assert.False(t, r.AuditFailed(model.AuditStructuredData), "microdata counts")
	assert.False(t, r.AuditFailed(model.AuditDocumentTitle))
	assert.InDelta(t, 0.6, *r.SEOScore, 0.0001)
}

func TestPerformance(t *testing.T) {
	assert.InDelta(t, 1.0, Performance(200*time.Millisecond, 10*1024), 0.0001)
	assert.InDelta(t, 0.0, Performance(10*time.Second, 5*1024*1024), 0.0001)
	assert.InDelta(t, 0.5, Performance(10*time.Second, 1024), 0.0001)
	assert.InDelta(t, 0.75, Performance(3*time.Second, 0), 0.0001)
}

// localConfig lets the checker reach httptest servers on loopback.
func localConfig() config.SiteCheckConfig {
	return config.SiteCheckConfig{AllowPrivate: true}
}

func TestAnalyze_Server(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(goodPage))
	}))
	defer srv.Close()

	c := New(config.SiteCheckConfig{UserAgent: "test-agent", AllowPrivate: true})
	r, err := c.Analyze(context.Background(), srv.URL)
	require.NoError(t, err)

	// httptest serves plain http.
	assert.True(t, r.AuditFailed(model.AuditHTTPS))
	assert.InDelta(t, 0.8, *r.SEOScore, 0.0001)
	require.NotNil(t, r.PerformanceScore)
	assert.Greater(t, *r.PerformanceScore, 0.9)
}

func TestAnalyze_TLSServer(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(goodPage))
	}))
	defer srv.Close()

	c := New(config.SiteCheckConfig{}, WithHTTPClient(srv.Client()))
	r, err := c.Analyze(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, r.AuditFailed(model.AuditHTTPS))
	assert.InDelta(t, 1.0, *r.SEOScore, 0.0001)
}

func TestAnalyze_Latin1Charset(t *testing.T) {
	page := `<html><head><title>Café Olé</title></head><body></body></html>`
	encoded, err := charmap.ISO8859_1.NewEncoder().String(page)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=ISO-8859-1")
		_, _ = w.Write([]byte(encoded))
	}))
	defer srv.Close()

	r, err := New(localConfig()).Analyze(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, r.AuditFailed(model.AuditDocumentTitle))

	doc := parse(t, page)
	assert.Equal(t, "Café Olé", doc.Find("title").Text())
}

func TestAnalyze_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(localConfig()).Analyze(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "status 404")
	assert.True(t, model.IsWebsiteError(err))
}

func TestAnalyze_RefusedConnectionIsWebsiteError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(localConfig()).Analyze(context.Background(), url)
	require.Error(t, err)
	assert.True(t, model.IsWebsiteError(err))
}

func TestAnalyze_RefusesLoopbackByDefault(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		_, _ = w.Write([]byte(goodPage))
	}))
	defer srv.Close()

	_, err := New(config.SiteCheckConfig{}).Analyze(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrivateAddress)
	assert.True(t, model.IsWebsiteError(err))
	assert.False(t, called)
}

func TestIsPublic(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"93.184.216.34", true},
		{"2606:2800:220:1:248:1893:25c8:1946", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.1.2.3", false},
		{"172.16.0.9", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"fe80::1", false},
		{"fc00::1", false},
		{"100.64.0.1", false},
		{"0.0.0.0", false},
		{"224.0.0.1", false},
		{"::ffff:127.0.0.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPublic(netip.MustParseAddr(tt.addr)))
		})
	}
}

func TestPublicOnly(t *testing.T) {
	assert.NoError(t, publicOnly("tcp4", "93.184.216.34:443", nil))
	assert.ErrorIs(t, publicOnly("tcp4", "127.0.0.1:80", nil), ErrPrivateAddress)
	assert.ErrorIs(t, publicOnly("tcp6", "[::1]:80", nil), ErrPrivateAddress)
	assert.Error(t, publicOnly("tcp4", "no-port", nil))
}

func TestAnalyze_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := New(config.SiteCheckConfig{}).Analyze(ctx, "http://192.0.2.1:1")
	assert.Error(t, err)
}

func TestDecode_UnknownCharsetPassesThrough(t *testing.T) {
	r := decode("text/html; charset=made-up", []byte("abc"))
	doc, err := goquery.NewDocumentFromReader(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", doc.Text())
}
