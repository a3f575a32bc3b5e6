package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/ksander314/twmbot/allowlist"
	"github.com/ksander314/twmbot/bus"
	"github.com/ksander314/twmbot/channels"
	"github.com/ksander314/twmbot/channels/discord"
	"github.com/ksander314/twmbot/channels/slack"
	"github.com/ksander314/twmbot/channels/telegram"
	"github.com/ksander314/twmbot/dispatch"
	"github.com/ksander314/twmbot/llm"
	"github.com/ksander314/twmbot/paths"
)

func cmdGateway() *cli.Command {
	return &cli.Command{
		Name:  "gateway",
		Usage: "run the long-lived relay gateway (all enabled channels)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Usage: "HTTP listen address for Slack Events API (default from config.gateway.listen)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			stateDir, err := paths.EnsureStateDir()
			if err != nil {
				return err
			}
			store, err := allowlist.Load(paths.AllowListPath(stateDir))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := slog.New(slog.NewTextHandler(os.Stderr, nil))
			b := bus.New(256)

			loop, err := dispatch.NewLoop(dispatch.Options{
				Bus:   b,
				Store: store,
				Completer: &llm.Client{
					BaseURL: cfg.LLM.BaseURL,
					APIKey:  cfg.LLM.APIKey,
					Model:   cfg.LLM.Model,
				},
				Admin:  cfg.Admin,
				Logger: log,
			})
			if err != nil {
				return err
			}

			cm := channels.NewManager(b, log)
			if cfg.Channels.Telegram.Enabled {
				cm.Add(telegram.New(cfg.Channels.Telegram, b))
			}
			if cfg.Channels.Discord.Enabled {
				cm.Add(discord.New(cfg.Channels.Discord, b))
			}
			var sl *slack.Channel
			if cfg.Channels.Slack.Enabled {
				sl = slack.New(cfg.Channels.Slack, b)
				cm.Add(sl)
			}

			if err := cm.StartAll(ctx); err != nil {
				return err
			}

			if sl != nil {
				addr := cfg.Gateway.Listen
				if v := strings.TrimSpace(cmd.String("listen")); v != "" {
					addr = v
				}
				evPath := cfg.Channels.Slack.EventsPath
				if evPath == "" {
					evPath = "/slack/events"
				}
				go func() {
					if err := runSlackServer(ctx, addr, evPath, sl); err != nil && err != http.ErrServerClosed {
						log.Error("slack events server stopped", "error", err)
					}
				}()
			}

			go func() { _ = loop.Run(ctx) }()

			fmt.Printf("gateway running\n- admin: %s\n- allowlist: %s\n", cfg.Admin, paths.AllowListPath(stateDir))
			fmt.Println("stop: Ctrl+C")
			<-ctx.Done()

			cm.StopAll()
			return nil
		},
	}
}

func runSlackServer(ctx context.Context, addr, evPath string, sl *slack.Channel) error {
	mux := http.NewServeMux()
	mux.HandleFunc(evPath, sl.EventsHandler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	return srv.ListenAndServe()
}
