package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/synapsbranch/synapse/internal/workspace"
)

var workspacesCmd = &cobra.Command{
	Use:   "workspaces",
	Short: "Manage workspaces",
}

func init() {
	workspacesCmd.AddCommand(workspacesListCmd)
	workspacesCmd.AddCommand(workspacesNewCmd)
	workspacesCmd.AddCommand(workspacesRenameCmd)
	workspacesCmd.AddCommand(workspacesRmCmd)
	rootCmd.AddCommand(workspacesCmd)
}

var workspacesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all workspaces",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		dir := workspace.NewDirectory(rt.client)

		workspaces, err := dir.Workspaces(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing workspaces: %w", err)
		}
		if len(workspaces) == 0 {
			fmt.Println("No workspaces. Create one with: synapse workspaces new <name>")
			return nil
		}
		for _, ws := range workspaces {
			fmt.Printf("%s  %s", ws.ID, ws.Name)
			if ws.Description != "" {
				fmt.Printf("  (%s)", ws.Description)
			}
			fmt.Println()
		}
		return nil
	},
}

var workspacesNewCmd = &cobra.Command{
	Use:   "new <name> [description]",
	Short: "Create a workspace",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		dir := workspace.NewDirectory(rt.client)

		description := ""
		if len(args) > 1 {
			description = args[1]
		}
		ws, err := dir.Create(cmd.Context(), args[0], description)
		if err != nil {
			return fmt.Errorf("creating workspace: %w", err)
		}
		fmt.Printf("Created workspace %s (%s)\n", ws.Name, ws.ID)
		return nil
	},
}

var workspacesRenameCmd = &cobra.Command{
	Use:   "rename <workspace-id> <name> [description]",
	Short: "Rename a workspace",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		dir := workspace.NewDirectory(rt.client)

		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		ws, err := dir.Rename(cmd.Context(), args[0], args[1], description)
		if err != nil {
			return fmt.Errorf("renaming workspace: %w", err)
		}
		fmt.Printf("Renamed workspace %s to %s\n", ws.ID, ws.Name)
		return nil
	},
}

var workspacesRmCmd = &cobra.Command{
	Use:   "rm <workspace-id>",
	Short: "Delete a workspace and its conversations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		dir := workspace.NewDirectory(rt.client)

		if err := dir.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("deleting workspace: %w", err)
		}
		fmt.Printf("Deleted workspace %s\n", args[0])
		return nil
	},
}
