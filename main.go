package main

import (
	"context"
	"os"

	"omnipost/infrastructure/configuration"
	"omnipost/infrastructure/logger"
	"omnipost/interfaces/cli"
)

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
		os.Exit(2)
	}
}

func main() {
	defer recoverPanic()

	// Non-destructive: OS env keeps precedence over the files.
	configuration.LoadEnvFromFile("config.env", ".env")
	for _, f := range []string{"config.env", ".env"} {
		if _, err := os.Stat(f); err == nil {
			logger.GetLogger().WithField("file", f).Debug("Detected env file in working directory")
		}
	}
	configuration.Reload()

	root := cli.NewRootCommand(cli.DefaultFactory, os.Stdin, os.Stdout)
	if err := root.ExecuteContext(context.Background()); err != nil {
		logger.GetLogger().WithField("error", err).Error("Command failed")
		os.Exit(1)
	}
}
