package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seo-lead-finder/internal/cache"
	"github.com/sells-group/seo-lead-finder/internal/leads"
	"github.com/sells-group/seo-lead-finder/internal/model"
)

func TestNewPlaces(t *testing.T) {
	c := testConfig()
	assert.Nil(t, newPlaces(c), "no key means no provider")

	c.Google.Key = "k"
	assert.NotNil(t, newPlaces(c))
}

func TestNewQuality(t *testing.T) {
	c := testConfig()
	qc := cache.NewMemory()

	c.PageSpeed.Key = "psi"
	assert.IsType(t, &leads.CachedQuality{}, newQuality(c, qc))

	c.PageSpeed.Key = ""
	assert.IsType(t, &leads.CachedQuality{}, newQuality(c, qc))

	c.SiteCheck.Enabled = false
	assert.Nil(t, newQuality(c, qc))
}

func TestInitSearch_UnknownCacheDriver(t *testing.T) {
	c := testConfig()
	c.Cache.Driver = "memcached"

	_, err := initSearch(c, leads.OptionsFromConfig(c))
	assert.Error(t, err)
}

func TestStoreCommands(t *testing.T) {
	c := testConfig()
	c.Store.DatabaseURL = filepath.Join(t.TempDir(), "leads.db")
	ctx := context.Background()

	st, err := openStore(ctx, c)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	var buf bytes.Buffer
	require.NoError(t, printAutomation(ctx, st, &buf))
	assert.Contains(t, buf.String(), "no automation config saved")

	buf.Reset()
	err = saveAutomation(ctx, st, model.AutomationConfig{DayOfWeek: "someday", Time: "09:00"}, &buf)
	assert.Error(t, err)

	buf.Reset()
	require.NoError(t, saveAutomation(ctx, st, model.AutomationConfig{
		Enabled: true, Location: "Austin, TX", DayOfWeek: "monday", Time: "09:00", Industries: "dentists",
	}, &buf))
	assert.Contains(t, buf.String(), `"location": "Austin, TX"`)

	buf.Reset()
	require.NoError(t, printAutomation(ctx, st, &buf))
	assert.Contains(t, buf.String(), `"day_of_week": "monday"`)

	for _, format := range []string{"table", "csv", "json"} {
		buf.Reset()
		assert.NoError(t, listLeads(ctx, st, format, 0, &buf), format)
	}
	buf.Reset()
	require.NoError(t, listLeads(ctx, st, "csv", 0, &buf))
	assert.Equal(t, "Business,Industry,Location,Website,SEO Score,Phone,Email,Date\n", buf.String())

	assert.Error(t, listLeads(ctx, st, "xml", 0, &buf))
}

func TestOpenStore_InvalidConfig(t *testing.T) {
	c := testConfig()
	c.Store.Driver = "mysql"
	_, err := openStore(context.Background(), c)
	assert.Error(t, err)
}
