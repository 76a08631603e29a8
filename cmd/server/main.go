// Package main is the entry point for the TravelSuites dashboard server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	rootCmd := &cobra.Command{
		Use:           "travelsuites",
		Short:         "TravelSuites property dashboard",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to the YAML config file")

	rootCmd.AddCommand(
		serveCmd(),
		checkoutsCmd(),
		healthcheckCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
