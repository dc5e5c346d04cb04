// Package cli provides the command-line interface for the concierge.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cribconcierge/concierge-go/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	serverURL string

	api *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "Property listing assistant",
	Long: `Concierge answers questions about property listings using semantic
retrieval over the stored records, with a deterministic fallback when
the semantic index is unavailable.

Run 'concierge serve' to start the backend, then use the other commands
to talk to it.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// The serve command runs the backend in-process and needs no
		// client connection.
		if cmd.Name() == "serve" || cmd.Name() == "version" || cmd.Name() == "help" {
			return
		}
		api = client.New(serverURL)
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "concierge server URL (default from CONCIERGE_SERVER_URL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(statsCmd)
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
