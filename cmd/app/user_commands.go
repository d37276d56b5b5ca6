package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/envstore/cmd/app/commands"
	"github.com/allisson/envstore/internal/app"
	"github.com/allisson/envstore/internal/config"
)

func getUserCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-user",
			Usage: "Create a new user account",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Email address of the account",
				},
				&cli.StringFlag{
					Name:     "full-name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Full name of the account holder",
				},
				&cli.StringFlag{
					Name:     "password",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Password for the account",
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

				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateUser(
					ctx,
					userUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("email"),
					cmd.String("full-name"),
					cmd.String("password"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "create-api-token",
			Usage: "Mint an API token for an existing user",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Email address of the token owner",
				},
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Token name, unique per user",
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

				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}

				apiTokenUseCase, err := container.APITokenUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateAPIToken(
					ctx,
					userUseCase,
					apiTokenUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("email"),
					cmd.String("name"),
					cmd.String("format"),
				)
			},
		},
	}
}
