package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"candy-drop/pkg/machine"
	sol "candy-drop/pkg/solana"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the candy machine supply and go-live date",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		stats, err := a.session.RefreshState(cmd.Context())
		if err != nil {
			return err
		}
		printStats(cmd.OutOrStdout(), stats, time.Now())
		return nil
	},
}

func printStats(w io.Writer, stats *machine.Stats, now time.Time) {
	fmt.Fprintf(w, "Items available: %d\n", stats.ItemsAvailable)
	fmt.Fprintf(w, "Items redeemed:  %d\n", stats.ItemsRedeemed)
	fmt.Fprintf(w, "Items remaining: %d\n", stats.ItemsRemaining)
	fmt.Fprintf(w, "Price:           %.4f SOL\n", float64(stats.Price)/sol.LamportsPerSol)
	if stats.GoLiveSet {
		fmt.Fprintf(w, "Go live date:    %s\n", stats.GoLiveDisplay)
	} else {
		fmt.Fprintln(w, "Go live date:    not set")
	}

	switch {
	case stats.SoldOut():
		fmt.Fprintln(w, "Status:          SOLD OUT")
	case !stats.Live(now):
		fmt.Fprintln(w, "Status:          not live yet")
	default:
		fmt.Fprintln(w, "Status:          live")
	}
}
