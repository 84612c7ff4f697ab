package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var forceAuthorize bool

var authorizeCmd = &cobra.Command{
	Use:   "authorize",
	Short: "Link an ecobee account with a PIN and wait for approval",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.lifecycle.HasToken() && !forceAuthorize {
			if a.lifecycle.EnsureValid(ctx) {
				fmt.Fprintln(cmd.OutOrStdout(), "Already authorized. Use --force to re-authorize.")
				return nil
			}
		}

		req, err := a.lifecycle.RequestPin(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "PIN: %s\n", req.PIN)
		fmt.Fprintln(out, "Log in at https://www.ecobee.com, open My Apps > Add Application and enter the PIN.")
		fmt.Fprintf(out, "Waiting up to %s for approval...\n", req.ExpiresIn)

		tokens, err := a.lifecycle.WaitForApproval(ctx, req)
		if err != nil {
			return fmt.Errorf("authorization failed: %w", err)
		}
		fmt.Fprintf(out, "Authorized. Access token valid until %s UTC.\n", tokens.Expires.Format("2006-01-02 15:04:05"))

		result, err := a.orchestrator.Discover(ctx)
		if err != nil {
			return fmt.Errorf("discovery failed: %w", err)
		}
		fmt.Fprintf(out, "Found %d thermostat(s).\n", result.Thermostats)
		return nil
	},
}

func init() {
	authorizeCmd.Flags().BoolVar(&forceAuthorize, "force", false, "Request a new PIN even if valid tokens are stored")
	rootCmd.AddCommand(authorizeCmd)
}
