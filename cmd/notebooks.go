// File: cmd/notebooks.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xkilldash9x/nlm-research/internal/notebooks"
)

// newNotebooksCmd groups the local notebook-library subcommands.
func newNotebooksCmd() *cobra.Command {
	notebooksCmd := &cobra.Command{
		Use:   "notebooks",
		Short: "Manage the local notebook library",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered notebooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := notebooks.Open(cfg.Browser.DataDir)
			if err != nil {
				return err
			}
			entries := lib.List()
			if len(entries) == 0 {
				fmt.Println("No notebooks registered. Use `notebooks add`.")
				return nil
			}
			for _, nb := range entries {
				marker := " "
				if nb.ID == lib.Active {
					marker = "*"
				}
				fmt.Printf("%s %-20s %-30s %s\n", marker, nb.ID, nb.Name, nb.URL)
			}
			return nil
		},
	}

	var addName string
	addCmd := &cobra.Command{
		Use:   "add <id> <url>",
		Short: "Register a notebook",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := notebooks.Open(cfg.Browser.DataDir)
			if err != nil {
				return err
			}
			name := addName
			if name == "" {
				name = args[0]
			}
			if err := lib.Add(args[0], name, args[1]); err != nil {
				return err
			}
			if err := lib.Save(); err != nil {
				return err
			}
			fmt.Printf("Added notebook %q.\n", args[0])
			return nil
		},
	}
	addCmd.Flags().StringVar(&addName, "name", "", "display name (defaults to the id)")

	removeCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a notebook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := notebooks.Open(cfg.Browser.DataDir)
			if err != nil {
				return err
			}
			if err := lib.Remove(args[0]); err != nil {
				return err
			}
			if err := lib.Save(); err != nil {
				return err
			}
			fmt.Printf("Removed notebook %q.\n", args[0])
			return nil
		},
	}

	useCmd := &cobra.Command{
		Use:   "use <id>",
		Short: "Set the active notebook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := notebooks.Open(cfg.Browser.DataDir)
			if err != nil {
				return err
			}
			if err := lib.SetActive(args[0]); err != nil {
				return err
			}
			if err := lib.Save(); err != nil {
				return err
			}
			fmt.Printf("Active notebook is now %q.\n", args[0])
			return nil
		},
	}

	notebooksCmd.AddCommand(listCmd, addCmd, removeCmd, useCmd)
	return notebooksCmd
}
