// natives - picks accelerated codec implementations with portable fallbacks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"natives/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "natives: %v\n", err)
		os.Exit(1)
	}
}
