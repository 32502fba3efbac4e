package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/modkit-go/unison/internal/version"
	"github.com/modkit-go/unison/pkg/logging"
)

var (
	verbosity int

	rootCmd = &cobra.Command{
		Use:   "unison",
		Short: "Coordination harness for statically duplicated library copies",
		Long: `unison lets many independently packaged extension modules, each embedding
its own private copy of a shared support library, behave as if exactly one
canonical copy existed: every copy registers a versioned candidate, and when
the host reaches its post-load event the newest copy's initialization runs
exactly once.

The simulate command drives a manifest of module copies through a full load
sequence against a simulated host.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newSimulateCmd())
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print version information for unison`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("unison version %s\n", version.Version)
		fmt.Printf("  commit: %s\n", version.Commit)
		fmt.Printf("  built:  %s\n", version.Date)
	},
}
