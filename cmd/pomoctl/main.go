// Package main is the entry point for the pomoctl terminal client.
package main

import (
	"fmt"
	"os"

	"pomofocus/backend/internal/cli"
	"pomofocus/backend/internal/config"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	return cli.NewRootCommand(version).Execute()
}
