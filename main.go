// ./main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/nlm-research/cmd"
)

// main is the entry point for the nlm-research CLI. Commands receive a
// signal-aware context so Ctrl+C cancels an in-flight research run cleanly
// instead of killing the browser mid-action.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.ExecuteContext(ctx)
}
