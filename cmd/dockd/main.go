// Command dockd accepts Newton docking connections over TCP and includes
// tools for inspecting NSOF objects and dock command streams.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dockd: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dockd",
		Short: "Newton dock protocol server and tools",
		Long: `dockd talks the Newton dock protocol.

  serve    accept docking connections and log the sessions
  decode   print an NSOF object
  frame    print the commands in a captured dock stream`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCmd(),
		decodeCmd(),
		frameCmd(),
	)
	return root
}
