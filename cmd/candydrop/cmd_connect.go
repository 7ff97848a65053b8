package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var revokeTrust bool

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect the configured wallet and remember it",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if revokeTrust {
			if !a.connector.TryAutoConnect(ctx) {
				fmt.Fprintln(out, "Wallet was not trusted")
				return nil
			}
			address, _ := a.connector.Address()
			a.connector.Disconnect()
			if err := a.store.Revoke(ctx, address.String()); err != nil {
				return err
			}
			fmt.Fprintf(out, "Forgot wallet %s\n", address)
			return nil
		}

		if a.connector.TryAutoConnect(ctx) {
			address, _ := a.connector.Address()
			fmt.Fprintf(out, "Wallet %s already connected\n", address)
			return nil
		}
		address, ok := a.connector.Connect(ctx)
		if !ok {
			fmt.Fprintln(out, "Wallet not connected")
			return nil
		}
		fmt.Fprintf(out, "Connected wallet %s\n", address)
		return nil
	},
}

func init() {
	connectCmd.Flags().BoolVar(&revokeTrust, "revoke", false, "Forget a previously trusted wallet")
}
