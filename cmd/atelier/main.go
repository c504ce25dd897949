package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Seeders register themselves from init().
	_ "github.com/atelier/storefront/database/seeders"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "atelier",
	Short:         "ATELIER storefront API",
	Long:          "Runs and administers the ATELIER fashion storefront backend.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)
	rootCmd.AddCommand(seedCmd)
}
