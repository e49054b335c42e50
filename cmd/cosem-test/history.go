package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cosem-conformance/conformance-go/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var (
		db     string
		device string
		runID  string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history --db FILE",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(db)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if runID != "" {
				findings, err := store.Findings(cmd.Context(), runID)
				if err != nil {
					return err
				}
				for _, f := range findings {
					fmt.Fprintf(out, "%-7s %s\n", f.Severity, f.Message)
				}
				return nil
			}

			runs, err := store.List(cmd.Context(), device, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDEVICE\tSTARTED\tDURATION\tRESULT\tERRORS\tWARNINGS")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
					r.ID, r.Device, r.StartedAt.Local().Format(time.DateTime),
					r.Duration.Round(time.Millisecond), r.Severity, r.Errors, r.Warnings)
			}
			return tw.Flush()
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&db, "db", "", "History database")
	fl.StringVar(&device, "device", "", "Only runs of this meter")
	fl.StringVar(&runID, "run", "", "Show the findings of one run")
	fl.IntVar(&limit, "limit", 20, "Maximum number of runs")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}
