package main

import (
	"os"

	"github.com/asaidimu/go-fetchxml/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
