package main

import (
	"context"
	"runtime/debug"
	"strings"

	"github.com/urfave/cli/v3"
)

// buildVersion is stamped via -ldflags on release builds; plain
// `go install` builds fall back to the module version in build info.
var buildVersion = "dev"

func cmdVersion() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "print version (same as --version)",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cli.ShowVersion(cmd.Root())
			return nil
		},
	}
}

func resolveVersion() string {
	return versionFrom(buildVersion, debug.ReadBuildInfo)
}

func versionFrom(stamped string, readBuildInfo func() (*debug.BuildInfo, bool)) string {
	if v := strings.TrimSpace(stamped); v != "" && v != "dev" {
		return v
	}
	if bi, ok := readBuildInfo(); ok {
		if mv := strings.TrimSpace(bi.Main.Version); mv != "" && mv != "(devel)" {
			return mv
		}
	}
	return "dev"
}
