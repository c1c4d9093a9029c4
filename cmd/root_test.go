package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"search", "serve", "automation", "leads", "migrate"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "seo-leads", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestSearchCommand_Flags(t *testing.T) {
	for _, name := range []string{"mode", "auto", "industries", "max-per-industry", "max-industries", "output", "save"} {
		assert.NotNil(t, searchCmd.Flags().Lookup(name), "search should have --%s", name)
	}
	assert.Equal(t, "i", searchCmd.Flags().Lookup("industries").Shorthand)
	assert.Equal(t, "m", searchCmd.Flags().Lookup("max-per-industry").Shorthand)
	assert.Equal(t, "table", searchCmd.Flags().Lookup("output").DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestAutomationCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range automationCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["get"])
	assert.True(t, names["set"])

	for _, name := range []string{"enabled", "location", "day", "time", "industries"} {
		assert.NotNil(t, automationSetCmd.Flags().Lookup(name), "automation set should have --%s", name)
	}
}

func TestLeadsListCommand_Flags(t *testing.T) {
	flag := leadsListCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "table", flag.DefValue)
	assert.NotNil(t, leadsListCmd.Flags().Lookup("limit"))
}
