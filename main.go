package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	drand "github.com/drand/go-verifier/internal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := drand.CLI()
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		stop()
		os.Exit(1)
	}
}
