package commands

import (
	"context"
	"fmt"
	"os"

	"webharvest/lib/telemetry"

	"github.com/spf13/cobra"
)

var verbose *bool
var debugHttpDir *string

var rootCmd = &cobra.Command{
	Use:   "harvest-cli",
	Short: "harvest-cli drives authenticated web sessions, scrapes and extracts data.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging.")
	debugHttpDir = rootCmd.PersistentFlags().String(
		"debug-http", "",
		"Dump every request/response pair to the given directory (requires --verbose).",
	)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
