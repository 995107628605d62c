// File: cmd/discover.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xkilldash9x/nlm-research/internal/browser"
	"github.com/xkilldash9x/nlm-research/internal/discovery"
	"github.com/xkilldash9x/nlm-research/internal/observability"
)

// newDiscoverCmd creates the `discover` command: a one-shot diagnostic dump
// of the notebook page's interactive elements, used to re-tune selectors
// after a UI change.
func newDiscoverCmd() *cobra.Command {
	var (
		notebookURL string
		notebookID  string
		asJSON      bool
	)

	discoverCmd := &cobra.Command{
		Use:   "discover",
		Short: "Dump the notebook UI and test the configured selectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			url, err := resolveNotebookURL(notebookURL, notebookID, logger)
			if err != nil {
				return err
			}

			sess, err := browser.NewSession(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("starting browser: %w", err)
			}
			defer sess.Close()

			authed, err := sess.Authenticated(ctx)
			if err != nil {
				return fmt.Errorf("authentication check failed: %w", err)
			}
			if !authed {
				return fmt.Errorf("no authenticated session; run `nlm-research setup` first")
			}

			if err := sess.Navigate(ctx, url); err != nil {
				return err
			}

			dump, err := discovery.Run(ctx, sess.Page(), cfg.Selectors, logger)
			if err != nil {
				return fmt.Errorf("discovery failed: %w", err)
			}

			if asJSON {
				data, err := json.MarshalIndent(dump, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding dump: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}
			printDump(dump)
			return nil
		},
	}

	discoverCmd.Flags().StringVar(&notebookURL, "notebook-url", "", "NotebookLM notebook URL")
	discoverCmd.Flags().StringVar(&notebookID, "notebook-id", "", "notebook id from the local library")
	discoverCmd.Flags().BoolVar(&asJSON, "json", false, "print the dump as JSON")
	return discoverCmd
}

func printDump(d *discovery.Dump) {
	fmt.Println("--- BUTTONS ---")
	for i, b := range d.Buttons {
		fmt.Printf("  [%d] text=%q aria=%q class=%q visible=%v\n", i, b.Text, b.AriaLabel, b.Class, b.Visible)
	}
	fmt.Println("\n--- INPUTS ---")
	for i, in := range d.Inputs {
		fmt.Printf("  [%d] <%s> type=%q placeholder=%q aria=%q visible=%v\n",
			i, in.Tag, in.Type, in.Placeholder, in.AriaLabel, in.Visible)
	}
	fmt.Println("\n--- DROPDOWNS ---")
	for i, dd := range d.Dropdowns {
		fmt.Printf("  [%d] <%s> role=%q aria=%q text=%q\n", i, dd.Tag, dd.Role, dd.AriaLabel, dd.Text)
	}
	fmt.Println("\n--- SELECTOR TESTS ---")
	for _, c := range d.Selectors {
		if c.Found {
			fmt.Printf("  [OK]   %s: %s\n", c.Element, c.Selector)
		} else {
			fmt.Printf("  [MISS] %s: no configured selector matched\n", c.Element)
		}
	}
}
