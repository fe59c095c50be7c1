package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/dr0pmead/rplus-server-sub000/cmd/app/commands"
	"github.com/dr0pmead/rplus-server-sub000/internal/app"
	"github.com/dr0pmead/rplus-server-sub000/internal/config"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "rotate-signing-key",
			Usage: "Generate a fresh signing key and promote it to active",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				rotator, err := container.Rotator(ctx)
				if err != nil {
					return err
				}

				return commands.RunRotateSigningKey(
					ctx,
					rotator,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "cleanup-signing-keys",
			Usage: "Remove signing keys that are past their validity window",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				store, err := container.KeyStore(ctx)
				if err != nil {
					return err
				}

				return commands.RunCleanupSigningKeys(
					ctx,
					store,
					container.Logger(),
					commands.DefaultIO().Writer,
				)
			},
		},
		{
			Name:  "list-signing-keys",
			Usage: "List every known signing key and mark the active one",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				store, err := container.KeyStore(ctx)
				if err != nil {
					return err
				}

				return commands.RunListSigningKeys(
					ctx,
					store,
					container.Clock(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
