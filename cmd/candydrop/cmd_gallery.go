package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "List the images of items minted so far",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		images, err := a.lister.ListMinted(cmd.Context(), a.chain.CandyMachine)
		if err != nil {
			// Partial results are still worth printing
			logger.Warn("some minted items could not be listed", zap.Error(err))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Minted items (%d)\n", len(images))
		for _, image := range images {
			fmt.Fprintln(out, image)
		}
		return nil
	},
}
