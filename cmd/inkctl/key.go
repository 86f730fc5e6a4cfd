package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"inkwell/api/internal/auth"
)

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key <key>",
	Short: "Print a bcrypt hash of an API key for API_KEYS",
	Long: `Print a bcrypt hash of an API key. The server accepts the hash in
API_KEYS in place of the plain key, so the key itself never sits in the
server's environment.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashKey(args[0])
		if err != nil {
			return fmt.Errorf("failed to hash key: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
