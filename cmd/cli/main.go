package main

import (
	"context"
	"log"
	"os"

	"github.com/veristamp/veristamp/internal/client/cli"
	"github.com/veristamp/veristamp/internal/client/config"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig(os.Getenv("VERISTAMP_CONFIG"))
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		os.Exit(1)
	}

}
