package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"candy-drop/pkg/drop"
)

var countdownCmd = &cobra.Command{
	Use:   "countdown",
	Short: "Count down to the go-live date",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		if _, err := a.session.RefreshState(ctx); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		timer, err := a.session.Countdown()
		if errors.Is(err, drop.ErrNotGated) {
			fmt.Fprintln(out, "Minting is not time gated")
			return nil
		}
		if err != nil {
			return err
		}
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				fmt.Fprintln(out)
				return nil
			case tick, ok := <-timer.C:
				if !ok {
					return nil
				}
				if tick.Elapsed {
					fmt.Fprintf(out, "\rMinting is live since %s\n", a.session.Stats().GoLiveDisplay)
					return nil
				}
				fmt.Fprintf(out, "\r%s   ", tick.Remaining)
			}
		}
	},
}
