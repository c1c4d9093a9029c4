package main

import (
	"context"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/seo-lead-finder/internal/export"
	"github.com/sells-group/seo-lead-finder/internal/store"
)

var (
	leadsFormat string
	leadsLimit  int
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect stored leads",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored leads, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return listLeads(cmd.Context(), st, leadsFormat, leadsLimit, cmd.OutOrStdout())
	},
}

func listLeads(ctx context.Context, st store.Store, format string, limit int, out io.Writer) error {
	rows, err := st.ListLeads(ctx, limit)
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case export.FormatTable, "":
		return export.WriteStoredTable(out, rows)
	case export.FormatCSV:
		return export.WriteDashboardCSV(out, rows)
	case export.FormatJSON:
		return writeIndentedJSON(out, map[string]any{"leads": rows})
	default:
		return eris.Errorf("unsupported format %q", format)
	}
}

func init() {
	leadsListCmd.Flags().StringVarP(&leadsFormat, "format", "f", export.FormatTable, "output format: table, csv or json")
	leadsListCmd.Flags().IntVar(&leadsLimit, "limit", 0, "maximum rows (0 for all)")
	leadsCmd.AddCommand(leadsListCmd)
	rootCmd.AddCommand(leadsCmd)
}
