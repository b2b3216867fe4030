package main

import (
	"context"
	"immigration_crm_go/app"
	"immigration_crm_go/cli"
	"immigration_crm_go/config"
	"immigration_crm_go/logging"
	"os"
	_ "time/tzdata"
)

func main() {
	root := cli.NewRootCommand(func(ctx context.Context) (*app.App, func(), error) {
		cfg := config.Load()
		log := logging.New(cfg.Environment, cfg.LogLevel)

		a, err := app.New(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return a, func() { a.Close() }, nil
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
