package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/seo-lead-finder/internal/model"
	"github.com/sells-group/seo-lead-finder/internal/store"
)

var automationCmd = &cobra.Command{
	Use:   "automation",
	Short: "Show or change the weekly search schedule",
}

var automationGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the saved schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return printAutomation(cmd.Context(), st, cmd.OutOrStdout())
	},
}

var automationSet struct {
	enabled    bool
	location   string
	day        string
	time       string
	industries string
}

var automationSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save the schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return saveAutomation(cmd.Context(), st, model.AutomationConfig{
			Enabled:    automationSet.enabled,
			Location:   strings.TrimSpace(automationSet.location),
			DayOfWeek:  strings.ToLower(strings.TrimSpace(automationSet.day)),
			Time:       strings.TrimSpace(automationSet.time),
			Industries: automationSet.industries,
		}, cmd.OutOrStdout())
	},
}

func printAutomation(ctx context.Context, st store.Store, out io.Writer) error {
	ac, err := st.GetAutomationConfig(ctx)
	if err != nil {
		return err
	}
	if ac == nil {
		_, err := fmt.Fprintln(out, "no automation config saved")
		return err
	}
	return writeIndentedJSON(out, ac)
}

func saveAutomation(ctx context.Context, st store.Store, ac model.AutomationConfig, out io.Writer) error {
	if err := ac.Validate(); err != nil {
		return err
	}
	saved, err := st.SaveAutomationConfig(ctx, ac)
	if err != nil {
		return err
	}
	return writeIndentedJSON(out, saved)
}

func writeIndentedJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode json")
}

func init() {
	f := automationSetCmd.Flags()
	f.BoolVar(&automationSet.enabled, "enabled", false, "run the scheduled search")
	f.StringVar(&automationSet.location, "location", "", "location to search")
	f.StringVar(&automationSet.day, "day", "monday", "day of week")
	f.StringVar(&automationSet.time, "time", "09:00", "time of day, HH:MM")
	f.StringVar(&automationSet.industries, "industries", "", "comma-separated industries")

	automationCmd.AddCommand(automationGetCmd, automationSetCmd)
	rootCmd.AddCommand(automationCmd)
}
