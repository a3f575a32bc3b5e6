package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	root := &cli.Command{
		Name:    "twmbot",
		Usage:   "chat relay bot: authorized users talk to an LLM from Telegram, Slack or Discord",
		Version: resolveVersion(),
		Commands: []*cli.Command{
			cmdVersion(),
			cmdGateway(),
			cmdUsers(),
			cmdStatus(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		cli.HandleExitCoder(err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
