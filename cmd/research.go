// File: cmd/research.go
package cmd

import (
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xkilldash9x/nlm-research/internal/browser"
	"github.com/xkilldash9x/nlm-research/internal/humanoid"
	"github.com/xkilldash9x/nlm-research/internal/notebooks"
	"github.com/xkilldash9x/nlm-research/internal/observability"
	"github.com/xkilldash9x/nlm-research/internal/research"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newResearchCmd creates the `research` command.
func newResearchCmd() *cobra.Command {
	var (
		topic       string
		notebookURL string
		notebookID  string
		mode        string
		timeoutSec  int
		asJSON      bool
	)

	researchCmd := &cobra.Command{
		Use:   "research",
		Short: "Run a research request against a NotebookLM notebook",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if topic == "" {
				return fmt.Errorf("--topic is required")
			}
			if mode != string(research.ModeDeep) && mode != string(research.ModeFast) {
				return fmt.Errorf("--mode must be %q or %q", research.ModeDeep, research.ModeFast)
			}
			return viper.BindPFlags(cmd.Flags())
		},
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

			jitter := humanoid.New(cfg.Humanoid.Enabled,
				cfg.Humanoid.KeyDelayMin, cfg.Humanoid.KeyDelayMax, cfg.Humanoid.Seed)
			driver := browser.NewActionDriver(sess, cfg, jitter, logger)
			runner := research.NewRunner(cfg, sess, driver, driver.Page(), logger)

			outcome := runner.Run(ctx, research.Request{
				Topic:       topic,
				NotebookURL: url,
				Mode:        research.Mode(mode),
				Timeout:     time.Duration(timeoutSec) * time.Second,
			})

			if asJSON {
				data, err := json.MarshalIndent(outcome, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding outcome: %w", err)
				}
				fmt.Println(string(data))
			} else {
				printOutcome(outcome)
			}

			if !outcome.Success {
				// Keep stdout for the outcome and signal failure via the
				// exit code.
				logger.Warn("Research failed.",
					zap.String("error_kind", string(outcome.ErrorKind)),
					zap.String("error", outcome.Error))
				os.Exit(1)
			}
			return nil
		},
	}

	researchCmd.Flags().StringVar(&topic, "topic", "", "research topic or question (required)")
	researchCmd.Flags().StringVar(&notebookURL, "notebook-url", "", "NotebookLM notebook URL")
	researchCmd.Flags().StringVar(&notebookID, "notebook-id", "", "notebook id from the local library")
	researchCmd.Flags().StringVar(&mode, "mode", string(research.ModeDeep), "research mode: deep or fast")
	researchCmd.Flags().IntVar(&timeoutSec, "timeout", 0, "max wait in seconds (0 = configured default)")
	researchCmd.Flags().BoolVar(&asJSON, "json", false, "print the outcome as JSON")
	return researchCmd
}

// resolveNotebookURL picks the target notebook: explicit URL, then library
// id, then the active library entry.
func resolveNotebookURL(url, id string, logger *zap.Logger) (string, error) {
	if url != "" {
		return url, nil
	}
	lib, err := notebooks.Open(cfg.Browser.DataDir)
	if err != nil {
		return "", err
	}
	if id != "" {
		nb, ok := lib.Get(id)
		if !ok {
			return "", fmt.Errorf("notebook %q not found in library", id)
		}
		return nb.URL, nil
	}
	if nb, ok := lib.ActiveNotebook(); ok {
		logger.Info("Using active notebook.", zap.String("notebook", nb.Name))
		return nb.URL, nil
	}
	return "", fmt.Errorf("no notebook given; use --notebook-url, --notebook-id, or `notebooks use`")
}

func printOutcome(o research.Outcome) {
	if o.Success {
		fmt.Println("Research complete.")
		fmt.Printf("New sources: %d (total %d), elapsed %ds, via %s\n\n",
			o.NewSourceCount, o.TotalSources, o.ElapsedSeconds, o.Strategy)
		fmt.Println(o.Report)
		return
	}
	fmt.Printf("Research failed: %s (%s)\n", o.Error, o.ErrorKind)
	if o.NewSourceCount > 0 {
		fmt.Printf("Sources found before failure: %d\n", o.NewSourceCount)
	}
	if o.Report != "" {
		fmt.Printf("\nPartial capture (%s):\n\n%s\n", o.Strategy, o.Report)
	}
}
