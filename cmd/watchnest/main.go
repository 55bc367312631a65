package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dom/watchnest/internal/logging"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := logging.New(os.Stderr, "info")

	if err := newApp(os.Stdin, os.Stdout).Run(context.Background(), os.Args); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			logger.Error(apiErr.Message, "status", apiErr.Status, "details", apiErr.Details)
			os.Exit(1)
		}
		logger.Fatal("command failed", "err", err)
	}
}

func newApp(in io.Reader, out io.Writer) *cli.Command {
	client := func(cmd *cli.Command) *APIClient {
		return NewAPIClient(cmd.String("api"))
	}

	return &cli.Command{
		Name:      "watchnest",
		Usage:     "Command-line client for the WatchNest API",
		Writer:    out,
		Reader:    in,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "Backend base URL",
				Value:   "http://localhost:8000",
				Sources: cli.EnvVars("WATCHNEST_API"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "full-name", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "username", Usage: "Derived from the email when omitted"},
					&cli.StringFlag{Name: "password", Usage: "Prompted for when omitted"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					password, err := passwordFlag(cmd, in, out)
					if err != nil {
						return err
					}
					user, err := client(cmd).Register(ctx, RegisterInput{
						FullName: cmd.String("full-name"),
						Email:    cmd.String("email"),
						Username: cmd.String("username"),
						Password: password,
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "registered %s (%s)\n", user.Username, user.ID)
					return nil
				},
			},
			{
				Name:      "login",
				Usage:     "Log in with a username or email and print the token pair",
				ArgsUsage: "<username|email>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "password", Usage: "Prompted for when omitted"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					login := cmd.Args().First()
					if login == "" {
						return cli.Exit("login requires a username or email", 2)
					}
					password, err := passwordFlag(cmd, in, out)
					if err != nil {
						return err
					}
					pair, err := client(cmd).Login(ctx, login, password)
					if err != nil {
						return err
					}
					printTokens(out, pair)
					return nil
				},
			},
			{
				Name:  "refresh",
				Usage: "Rotate a refresh token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "refresh-token", Required: true, Sources: cli.EnvVars("WATCHNEST_REFRESH_TOKEN")},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					pair, err := client(cmd).Refresh(ctx, cmd.String("refresh-token"))
					if err != nil {
						return err
					}
					printTokens(out, pair)
					return nil
				},
			},
			{
				Name:  "whoami",
				Usage: "Show the user an access token belongs to",
				Flags: []cli.Flag{tokenFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					user, err := client(cmd).CurrentUser(ctx, cmd.String("token"))
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", user.ID, user.Username, user.Email, user.FullName)
					return nil
				},
			},
			{
				Name:      "subscribe",
				Usage:     "Toggle a subscription to a channel",
				ArgsUsage: "<channelID>",
				Flags:     []cli.Flag{tokenFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					channelID := cmd.Args().First()
					if channelID == "" {
						return cli.Exit("subscribe requires a channel id", 2)
					}
					result, err := client(cmd).ToggleSubscription(ctx, cmd.String("token"), channelID)
					if err != nil {
						return err
					}
					state := "unsubscribed"
					if result.IsSubscribed {
						state = "subscribed"
					}
					fmt.Fprintf(out, "%s, channel now has %d subscribers\n", state, result.SubscribersCount)
					return nil
				},
			},
			{
				Name:  "videos",
				Usage: "List published videos",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}},
					&cli.IntFlag{Name: "page", Value: 1},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					page, err := client(cmd).ListVideos(ctx, cmd.String("query"), cmd.Int("page"))
					if err != nil {
						return err
					}
					for _, v := range page.Items {
						owner := ""
						if v.Owner != nil {
							owner = v.Owner.Username
						}
						fmt.Fprintf(out, "%s\t%-40s\t%s\t%d views\n", v.ID, v.Title, owner, v.Views)
					}
					fmt.Fprintf(out, "page %d of %d (%d videos)\n", page.Page, page.TotalPages, page.Total)
					return nil
				},
			},
		},
	}
}

func tokenFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "token",
		Usage:    "Access token",
		Required: true,
		Sources:  cli.EnvVars("WATCHNEST_TOKEN"),
	}
}

func passwordFlag(cmd *cli.Command, in io.Reader, out io.Writer) (string, error) {
	if pw := cmd.String("password"); pw != "" {
		return pw, nil
	}
	return promptPassword(out, in, "Password")
}

func printTokens(out io.Writer, pair *TokenPair) {
	if pair.User != nil {
		fmt.Fprintf(out, "user:          %s (%s)\n", pair.User.Username, pair.User.ID)
	}
	fmt.Fprintf(out, "access token:  %s\n", pair.AccessToken)
	fmt.Fprintf(out, "refresh token: %s\n", pair.RefreshToken)
}
