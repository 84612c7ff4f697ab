package main

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Enumerate thermostats and print the nodes they produce",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.orchestrator.Discover(cmd.Context()); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), a.nodes.List())
	},
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Discover, run one poll cycle and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.orchestrator.Discover(cmd.Context()); err != nil {
			return err
		}
		result, err := a.orchestrator.Poll(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

var tokenStatusCmd = &cobra.Command{
	Use:   "token-status",
	Short: "Show the stored ecobee token state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		return printJSON(cmd.OutOrStdout(), a.lifecycle.Status())
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(pollCmd)
	rootCmd.AddCommand(tokenStatusCmd)
}
