// Package cli defines the eqcraft command tree: batch generation from
// measurement directories and the HTTP API server.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "eqcraft",
	Short: "eqcraft generates headphone equalization configs from frequency response measurements",
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
