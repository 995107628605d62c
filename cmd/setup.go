// File: cmd/setup.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/xkilldash9x/nlm-research/internal/browser"
	"github.com/xkilldash9x/nlm-research/internal/observability"
)

// newSetupCmd creates the `setup` command: open a visible browser on the
// persistent profile and wait for the user to sign in to Google. The login
// lives in the profile dir afterward, so research runs can check the
// precondition without interaction.
func newSetupCmd() *cobra.Command {
	var loginTimeout time.Duration

	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Sign in to NotebookLM and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// Setup must be visible regardless of the configured default:
			// the user has to complete the sign-in by hand.
			setupCfg := *cfg
			setupCfg.Browser.Headless = false

			sess, err := browser.NewSession(ctx, &setupCfg, logger)
			if err != nil {
				return fmt.Errorf("starting browser: %w", err)
			}
			defer sess.Close()

			authed, err := sess.Authenticated(ctx)
			if err != nil {
				return err
			}
			if authed {
				fmt.Println("Already signed in; session is ready.")
				return nil
			}

			fmt.Println("Sign in to Google in the browser window.")
			fmt.Printf("Waiting up to %s for the NotebookLM home page...\n", loginTimeout)

			deadline, cancel := context.WithTimeout(ctx, loginTimeout)
			defer cancel()
			ticker := time.NewTicker(5 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-deadline.Done():
					return fmt.Errorf("sign-in not completed within %s", loginTimeout)
				case <-ticker.C:
					authed, err := sess.Authenticated(deadline)
					if err != nil {
						continue
					}
					if authed {
						fmt.Println("Signed in. The session is persisted in the browser profile.")
						return nil
					}
				}
			}
		},
	}

	setupCmd.Flags().DurationVar(&loginTimeout, "login-timeout", 10*time.Minute, "how long to wait for the manual sign-in")
	return setupCmd
}
