package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"candy-drop/pkg/drop"
	"candy-drop/pkg/machine"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the candy machine and print supply changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if err := a.session.Load(ctx); err != nil {
			logger.Warn("initial load incomplete", zap.Error(err))
		}
		fmt.Fprintf(out, "Minted so far: %d\n", len(a.session.Gallery()))

		monitor := drop.NewMonitor(a.session, cfg.RefreshInterval, func(stats *machine.Stats) {
			fmt.Fprintf(out, "[%s] %d/%d remaining\n", time.Now().Format("15:04:05"), stats.ItemsRemaining, stats.ItemsAvailable)
		}, logger.Named("monitor"))
		monitor.Start(ctx)

		<-ctx.Done()
		monitor.Stop()
		return nil
	},
}
