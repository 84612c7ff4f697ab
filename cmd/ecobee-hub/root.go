package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "config.json"

var (
	configPath string
	useEnv     bool
	envFile    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ecobee-hub",
	Short: "Bridge ecobee thermostats into a polling home-automation hub",
	Long: `ecobee-hub authorizes against the ecobee cloud API with a PIN, discovers
thermostats, remote sensors and weather, and keeps their values current by
polling for revision changes.

Start with 'ecobee-hub authorize' to link your ecobee account, then run
'ecobee-hub serve'.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&useEnv, "env", false, "Load configuration from ECOBEEHUB_* environment variables")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional .env file merged into the environment with --env")
}
