package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/ksander314/twmbot/paths"
)

func cmdStatus() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "show resolved configuration",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dir, err := paths.StateDir()
			if err != nil {
				return err
			}
			fmt.Printf("admin=%s\n", cfg.Admin)
			fmt.Printf("state_dir=%s\n", dir)
			fmt.Printf("allowlist=%s\n", paths.AllowListPath(dir))
			fmt.Printf("llm.model=%s\n", cfg.LLM.Model)
			fmt.Printf("llm.apiKey=%s\n", maskSecret(cfg.LLM.APIKey))
			fmt.Printf("telegram.enabled=%v\n", cfg.Channels.Telegram.Enabled)
			fmt.Printf("slack.enabled=%v\n", cfg.Channels.Slack.Enabled)
			fmt.Printf("discord.enabled=%v\n", cfg.Channels.Discord.Enabled)
			return nil
		},
	}
}

func maskSecret(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unset)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
