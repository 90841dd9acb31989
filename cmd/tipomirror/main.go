package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jason0860907/tipomirror/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "tipomirror",
		Short: "Parallel FTPS directory tree mirroring utility",
		Long: `tipomirror mirrors remote FTPS directory trees to local storage.
It counts each tree's remote subdirectories up front, mirrors every
countable tree in parallel with lftp, and verifies the mirrored
subdirectory count against the remote one.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	cli.AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(cli.NewMirrorCommand())
	rootCmd.AddCommand(cli.NewCountCommand())
	rootCmd.AddCommand(cli.NewConfigCommand())
	rootCmd.AddCommand(cli.NewVersionCommand())

	return rootCmd.Execute()
}
