package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go/text"
	"github.com/spf13/cobra"

	"candy-drop/pkg/drop"
	"candy-drop/pkg/mint"
	sol "candy-drop/pkg/solana"
)

var dryRun bool

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint one NFT from the candy machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if err := a.connectWallet(ctx); err != nil {
			return err
		}
		stats, err := a.session.RefreshState(ctx)
		if err != nil {
			return err
		}

		if dryRun {
			tx, receipt, err := a.submitter.Preview(ctx)
			if err != nil {
				return err
			}
			if _, err := tx.EncodeTree(text.NewTreeEncoder(out, "Mint transaction")); err != nil {
				return err
			}
			fmt.Fprintf(out, "Mint:  %s\nPrice: %.4f SOL\n", receipt.Mint, float64(stats.Price)/sol.LamportsPerSol)
			return nil
		}

		receipt, err := a.session.Mint(ctx)
		switch {
		case errors.Is(err, drop.ErrSoldOut):
			fmt.Fprintln(out, "SOLD OUT!")
			return nil
		case errors.Is(err, drop.ErrNotLive):
			fmt.Fprintf(out, "Minting opens %s\n", stats.GoLiveDisplay)
			return nil
		}

		var mintErr *mint.MintError
		if errors.As(err, &mintErr) {
			fmt.Fprintln(os.Stderr, mintErr.Message())
			return err
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(out, "Congratulations! Mint succeeded!")
		fmt.Fprintf(out, "Mint:      %s\n", receipt.Mint)
		fmt.Fprintf(out, "Signature: %s\n", receipt.Signature)
		if receipt.Fee > 0 {
			fmt.Fprintf(out, "Fee:       %.6f SOL\n", float64(receipt.Fee)/sol.LamportsPerSol)
		}
		if latest := a.session.Stats(); latest != nil {
			fmt.Fprintf(out, "Remaining: %d/%d\n", latest.ItemsRemaining, latest.ItemsAvailable)
		}
		return nil
	},
}

func init() {
	mintCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Build and print the transaction without sending it")
}
