package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var canvasCmd = &cobra.Command{
	Use:   "canvas",
	Short: "Inspect saved canvas artifacts",
}

func init() {
	canvasCmd.AddCommand(canvasShowCmd)
	canvasCmd.AddCommand(canvasVersionsCmd)
	rootCmd.AddCommand(canvasCmd)
}

var canvasShowCmd = &cobra.Command{
	Use:   "show <artifact-id>",
	Short: "Print the latest content of an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		artifact, err := rt.client.GetArtifact(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("fetching artifact: %w", err)
		}
		fmt.Print(artifact.Content)
		if artifact.Content != "" && artifact.Content[len(artifact.Content)-1] != '\n' {
			fmt.Println()
		}
		return nil
	},
}

var canvasVersionsCmd = &cobra.Command{
	Use:   "versions <artifact-id>",
	Short: "List the version history of an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		artifact, err := rt.client.GetArtifact(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("fetching artifact: %w", err)
		}
		if len(artifact.Versions) == 0 {
			fmt.Println("No versions.")
			return nil
		}
		for i, v := range artifact.Versions {
			fmt.Printf("%d  %s  %s  %d bytes\n",
				i+1, v.Timestamp.Format("2006-01-02 15:04:05"), v.Language, len(v.Content))
		}
		return nil
	},
}
