package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "inkctl",
	Short: "inkctl - manage and browse an inkwell blog",
	Long: `inkctl talks to the inkwell content API to manage posts and
categories, and reads the public content server to browse and search
the blog the way a reader sees it.

Connection settings come from flags, then INKCTL_* environment
variables, then the profile file (default $HOME/.inkctl.yaml).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("inkctl version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("config", "", "Profile file (default $HOME/.inkctl.yaml)")
	rootCmd.PersistentFlags().String("server", "", "Content API base URL")
	rootCmd.PersistentFlags().String("public", "", "Public content server base URL")
	rootCmd.PersistentFlags().String("key", "", "API key")

	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(hashKeyCmd)
}
