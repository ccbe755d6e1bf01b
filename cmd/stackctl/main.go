package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pogolab/stackctl/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// exitErrors is the error count the process exits with, so scripted
// invocations can test for "how many things are wrong" rather than
// just pass/fail
var exitErrors int

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if exitErrors > 125 {
		exitErrors = 125
	}
	os.Exit(exitErrors)
}

var rootCmd = &cobra.Command{
	Use:   "stackctl",
	Short: "stackctl - reconciliation and maintenance for a compose-managed mapping stack",
	Long: `stackctl keeps a docker-compose Pokémon-GO mapping stack healthy:
it generates and distributes credentials across service configs, checks
that every config file agrees with the canonical env file, reconciles
required MariaDB databases and users, and runs gated cleanup routines
against the scanner's data.

The exit code equals the number of problems found, so it can gate
scripts and health checks directly.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		jsonOut, _ := cmd.Flags().GetBool("log-json")
		log.Init(log.Config{
			Level:      log.Level(level),
			JSONOutput: jsonOut,
		})
	},
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"stackctl version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("env-file", ".env", "Canonical environment file")
	rootCmd.PersistentFlags().String("config-dir", "./configs", "Directory holding service config files")
	rootCmd.PersistentFlags().String("compose-file", "./docker-compose.yml", "Compose file of the stack")
	rootCmd.PersistentFlags().String("data-dir", ".", "Directory for stackctl's local state")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Log as JSON instead of console output")

	// Add subcommands
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(secretsCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(menuCmd)
}
