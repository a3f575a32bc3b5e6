package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ksander314/twmbot/allowlist"
	"github.com/ksander314/twmbot/paths"
)

// cmdUsers manages the allow list from the local machine, without
// going through a chat admin command.
func cmdUsers() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "manage the allow list",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "show allowed users",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					store, err := openStore()
					if err != nil {
						return err
					}
					users := store.List()
					if len(users) == 0 {
						fmt.Println("allow list is empty")
						return nil
					}
					for _, u := range users {
						fmt.Println(u)
					}
					return nil
				},
			},
			{
				Name:      "add",
				Usage:     "allow a user",
				ArgsUsage: "<username>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() < 1 {
						return cli.Exit("usage: twmbot users add <username>", 2)
					}
					store, err := openStore()
					if err != nil {
						return err
					}
					id := cmd.Args().Get(0)
					added, err := store.Add(id)
					if err != nil {
						return err
					}
					if !added {
						fmt.Printf("%s is already allowed\n", id)
						return nil
					}
					fmt.Printf("added %s\n", id)
					return nil
				},
			},
			{
				Name:      "remove",
				Usage:     "disallow a user",
				ArgsUsage: "<username>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() < 1 {
						return cli.Exit("usage: twmbot users remove <username>", 2)
					}
					store, err := openStore()
					if err != nil {
						return err
					}
					id := cmd.Args().Get(0)
					removed, err := store.Remove(id)
					if err != nil {
						return err
					}
					if !removed {
						fmt.Printf("%s is not on the allow list\n", id)
						return nil
					}
					fmt.Printf("removed %s\n", id)
					return nil
				},
			},
		},
	}
}

func openStore() (*allowlist.Store, error) {
	dir, err := paths.EnsureStateDir()
	if err != nil {
		return nil, err
	}
	return allowlist.Load(paths.AllowListPath(dir))
}
