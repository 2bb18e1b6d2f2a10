package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"paycheck/internal/ledger/files"
	"paycheck/internal/pipeline"
	"paycheck/internal/sheets"
)

func newDashboardCmd(opts *reportOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard FILE...",
		Short: "Print every dashboard view as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.compute(cmd.Context(), args)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), d)
		},
	}
}

func newViewCmd(opts *reportOptions) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "view NAME FILE...",
		Short: "Print one dashboard view as JSON",
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return nil
			}
			return cobra.MinimumNArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(pipeline.ViewNames, "\n"))
				return err
			}
			d, err := opts.compute(cmd.Context(), args[1:])
			if err != nil {
				return err
			}
			v, ok := d.View(args[0])
			if !ok {
				return fmt.Errorf("unknown view %q (see --list)", args[0])
			}
			return writeJSON(cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list view names and exit")
	return cmd
}

func newTablesCmd(opts *reportOptions) *cobra.Command {
	var ledgersDir string
	cmd := &cobra.Command{
		Use:   "tables FILE...",
		Short: "Print the spreadsheet export tabs as text tables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := opts.compute(ctx, args)
			if err != nil {
				return err
			}
			export := sheets.Export{Dashboard: d, GeneratedAt: time.Now().UTC()}
			if ledgersDir != "" {
				export.Ledgers = files.OpenLedgers(ledgersDir, opts.logger).Snapshots(ctx)
			}
			return writeTables(cmd.OutOrStdout(), sheets.BuildTables(export))
		},
	}
	cmd.Flags().StringVar(&ledgersDir, "ledgers-dir", "", "include the ledgers stored in this files-backend data directory")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTables(w io.Writer, tables []sheets.Table) error {
	for i, t := range tables {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "== %s ==\n", t.Name)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, row := range t.Rows {
			cells := make([]string, len(row))
			for j, c := range row {
				cells[j] = fmt.Sprint(c)
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
