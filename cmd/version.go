package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/synapsbranch/synapse/internal/config"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and configuration",
	RunE: func(_ *cobra.Command, _ []string) error {
		fmt.Printf("Synapse %s\n", AppVersion)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

		cfg, err := config.Load()
		if err != nil {
			fmt.Println()
			fmt.Printf("Configuration: invalid (%v)\n", err)
			return nil
		}
		fmt.Println()
		fmt.Println("Configuration:")
		fmt.Printf("  Server: %s\n", cfg.ServerURL)
		fmt.Printf("  Model: %s\n", cfg.Model)
		fmt.Printf("  Default branch: %s\n", cfg.Branch)
		if cfg.Token != "" {
			fmt.Println("  Token: configured")
		} else {
			fmt.Println("  Token: not set (export SYNAPSE_TOKEN to authenticate)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
