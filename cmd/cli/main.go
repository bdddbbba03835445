package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/lip/internal/client/cli"
	"github.com/dmitrijs2005/lip/internal/client/config"
	"github.com/dmitrijs2005/lip/internal/flagx"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx, flagx.StripArgs(os.Args[1:], config.GlobalFlags)); err != nil {
		stop()
		os.Exit(1)
	}
}
