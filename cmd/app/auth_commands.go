package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/dr0pmead/rplus-server-sub000/cmd/app/commands"
	"github.com/dr0pmead/rplus-server-sub000/internal/app"
	authDomain "github.com/dr0pmead/rplus-server-sub000/internal/auth/domain"
	"github.com/dr0pmead/rplus-server-sub000/internal/config"
)

func getAuthCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "revoke-user-sessions",
			Usage: "Revoke every session and refresh token of a user",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "user-id",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "User ID (UUID)",
				},
				&cli.StringFlag{
					Name:    "reason",
					Aliases: []string{"r"},
					Value:   authDomain.RevokeReasonAdmin,
					Usage:   "Revocation reason recorded on the sessions",
				},
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

				tokenUseCase, err := container.TokenUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunRevokeUserSessions(
					ctx,
					tokenUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("user-id"),
					cmd.String("reason"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "purge-expired-tokens",
			Usage: "Delete refresh tokens whose validity window has ended",
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

				tokenUseCase, err := container.TokenUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunPurgeExpiredTokens(
					ctx,
					tokenUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
