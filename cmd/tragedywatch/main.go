// tragedywatch polls news sources for tragedies, stores new matches and
// broadcasts a push alert for each one.
//
// Usage:
//
//	tragedywatch [serve]
//	tragedywatch poll
//	tragedywatch recent [--limit=N]
//	tragedywatch notify-test
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
