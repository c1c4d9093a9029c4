package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/seo-lead-finder/internal/config"
	"github.com/sells-group/seo-lead-finder/internal/export"
	"github.com/sells-group/seo-lead-finder/internal/leads"
	"github.com/sells-group/seo-lead-finder/internal/model"
)

type searchFlags struct {
	mode           string
	auto           bool
	industries     string
	maxPerIndustry int
	maxIndustries  int
	output         string
	save           string
}

var searchOpts searchFlags

var searchCmd = &cobra.Command{
	Use:   "search <location>",
	Short: "Search a location for businesses with weak SEO",
	Example: `  seo-leads search "Seattle, WA" --auto
  seo-leads search "Austin, TX" -i "dentists, roofers" -m 5 --save leads.xlsx
  seo-leads search "Denver, CO" --mode hybrid -i bakers -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runSearch(ctx, cfg, args[0], searchOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

// searchMode derives the industry mode from the flags: an explicit --mode
// wins, then --auto, then a non-empty --industries means manual.
func searchMode(f searchFlags) (model.Mode, error) {
	switch {
	case f.mode != "":
		return model.ParseMode(f.mode)
	case f.auto:
		return model.ModeAuto, nil
	case strings.TrimSpace(f.industries) != "":
		return model.ModeManual, nil
	default:
		return "", eris.New("must specify either --industries, --auto or --mode")
	}
}

func runSearch(ctx context.Context, c *config.Config, location string, f searchFlags, out, info io.Writer) error {
	mode, err := searchMode(f)
	if err != nil {
		return err
	}
	write, err := export.ForFormat(f.output)
	if err != nil {
		return err
	}
	if f.save != "" {
		if _, err := export.ForFile(f.save); err != nil {
			return err
		}
	}

	if f.maxPerIndustry > 0 {
		c.Pipeline.MaxPerIndustry = f.maxPerIndustry
	}
	if f.maxIndustries > 0 {
		c.Pipeline.MaxIndustries = f.maxIndustries
	}
	if err := c.Validate("search"); err != nil {
		return err
	}

	env, err := initSearch(c, leads.OptionsFromConfig(c))
	if err != nil {
		return err
	}
	defer env.Close()

	summary, err := env.Finder.RunSummary(ctx, model.SearchRequest{
		Location:      location,
		IndustriesRaw: f.industries,
		Mode:          mode,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(info, "Location: %s\n", summary.Request.Location)
	fmt.Fprintf(info, "Industries: %s\n", strings.Join(summary.Industries, ", "))
	fmt.Fprintf(info, "Max per industry: %d\n", c.Pipeline.MaxPerIndustry)
	if s := summary.Stats; s.IndustryFailures > 0 || s.CandidateFailures > 0 {
		fmt.Fprintf(info, "Skipped: %d industries, %d businesses (see log)\n", s.IndustryFailures, s.CandidateFailures)
	}

	if err := write(out, summary.Results); err != nil {
		return err
	}

	if f.save != "" {
		if err := export.SaveFile(f.save, summary.Results); err != nil {
			return err
		}
		fmt.Fprintf(info, "\nResults saved to %s\n", f.save)
	}
	return nil
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchOpts.mode, "mode", "", "industry mode: auto, manual or hybrid")
	f.BoolVar(&searchOpts.auto, "auto", false, "use the default high-value industries")
	f.StringVarP(&searchOpts.industries, "industries", "i", "", "comma-separated industries to search")
	f.IntVarP(&searchOpts.maxPerIndustry, "max-per-industry", "m", 0, "maximum results per industry (default from config)")
	f.IntVar(&searchOpts.maxIndustries, "max-industries", 0, "maximum industries per search (default from config)")
	f.StringVarP(&searchOpts.output, "output", "o", export.FormatTable, "output format: table, json, yaml or csv")
	f.StringVarP(&searchOpts.save, "save", "s", "", "also save results to a .csv, .xlsx, .json or .yaml file")
	searchCmd.MarkFlagsMutuallyExclusive("mode", "auto")
	rootCmd.AddCommand(searchCmd)
}
