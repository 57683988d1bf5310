package main

import (
	"fmt"
	"time"

	"github.com/Conceptual-Machines/magda-melody/internal/middleware"
	"github.com/urfave/cli"
)

func tokenCommand() cli.Command {
	return cli.Command{
		Name:  "token",
		Usage: "issue a bearer token for AUTH_MODE=jwt",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "user, u", Usage: "user id to embed"},
			cli.StringFlag{Name: "email", Usage: "optional email claim"},
			cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour, Usage: "token lifetime"},
			cli.StringFlag{Name: "secret", EnvVar: "JWT_SECRET", Usage: "signing secret"},
		},
		Action: func(c *cli.Context) error {
			user := c.String("user")
			if user == "" {
				return fmt.Errorf("--user is required")
			}
			token, err := middleware.IssueToken(c.String("secret"), user, c.String("email"), c.Duration("ttl"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, token)
			return err
		},
	}
}
