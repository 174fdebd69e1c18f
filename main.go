package main

import (
	"context"
	"os"
	"os/signal"

	"hermannm.dev/devlog/log"
	"hermannm.dev/widgets/cli"
	"hermannm.dev/widgets/config"
	"hermannm.dev/widgets/logging"
)

func main() {
	config, err := config.ReadFromEnv()
	if err != nil {
		log.ErrorCause(err, "failed to read config from env")
		os.Exit(1)
	}

	if err := logging.Setup(config, os.Stdout); err != nil {
		log.ErrorCause(err, "failed to set up logging")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand(config).ExecuteContext(ctx); err != nil {
		log.ErrorCause(err, "command failed")
		stop()
		os.Exit(1)
	}
}
