package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ndavault-server",
	Short: "ndavault HTTP server",
	Long: `ndavault-server runs the identity, process, and audit services
behind the HTTP surface described by the ndavault core, backed by
either an in-memory or PostgreSQL persistence store and a
Stellar-compatible ledger.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
