package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	// Default schedule timezone must resolve on hosts without zoneinfo
	_ "time/tzdata"

	"github.com/ibeckermayer/dashverify/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	gs := cli.NewGlobalState(ctx)
	err := cli.NewRootCommand(gs).ExecuteContext(ctx)
	stop()

	if err != nil {
		gs.Logger.WithError(err).Error("dashverify failed")
		os.Exit(1)
	}
}
