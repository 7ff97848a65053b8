package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"candy-drop/pkg/mint"
	sol "candy-drop/pkg/solana"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the local mint journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		journal, err := mint.NewJournal(cfg.JournalDir())
		if err != nil {
			return err
		}
		entries, err := journal.Entries()
		if err != nil {
			return err
		}
		summary, err := journal.Summary()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tOUTCOME\tMINT\tFEE (SOL)\tMESSAGE")
		for _, entry := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.6f\t%s\n",
				entry.Timestamp.Format(time.DateTime),
				entry.Outcome,
				entry.Mint,
				float64(entry.Fee)/sol.LamportsPerSol,
				entry.Message,
			)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(out, "\n%d succeeded, %d failed, %.6f SOL in fees\n",
			summary.Succeeded, summary.Failed, float64(summary.TotalFees)/sol.LamportsPerSol)
		return nil
	},
}
