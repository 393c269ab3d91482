package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	domainauth "github.com/target/crud-console/internal/domain/auth"
	apperrors "github.com/target/crud-console/internal/errors"
	"github.com/target/crud-console/internal/output"
)

// passwordEnv supplies the password for login and register when --password is not given.
const passwordEnv = "CRUDCTL_PASSWORD"

type sessionView struct {
	UserName   string    `json:"userName"`
	Roles      []string  `json:"roles"`
	Expiration time.Time `json:"tokenExpiration"`
	ExpiresIn  string    `json:"expiresIn"`
}

func (v sessionView) table() output.Table {
	return output.Table{
		Header: []string{"USER", "ROLES", "EXPIRES", "EXPIRES IN"},
		Rows: [][]string{{
			v.UserName,
			strings.Join(v.Roles, ","),
			v.Expiration.Format(time.RFC3339),
			v.ExpiresIn,
		}},
		Data: v,
	}
}

func newSessionView(info domainauth.Info, now time.Time) sessionView {
	roles := info.Roles
	if roles == nil {
		roles = []string{}
	}
	return sessionView{
		UserName:   info.UserName,
		Roles:      roles,
		Expiration: info.TokenExpiration,
		ExpiresIn:  info.TokenExpiration.Sub(now).Truncate(time.Second).String(),
	}
}

// password resolves the flag, then the environment, then an interactive prompt.
func (c *cli) password(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := c.getenv(passwordEnv); v != "" {
		return v, nil
	}
	return c.prompt("Password: ")
}

func (c *cli) loginCmd() *cobra.Command {
	var user, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Long: `Exchange a user name and password for a bearer token. The password is read
from --password, then $` + passwordEnv + `, then prompted on stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := c.ensureApp(ctx)
			if err != nil {
				return err
			}
			if user == "" {
				if user, err = c.prompt("User name: "); err != nil {
					return err
				}
			}
			pw, err := c.password(password)
			if err != nil {
				return err
			}
			info, err := app.Auth.Login(ctx, domainauth.Credentials{UserName: user, Password: pw})
			if err != nil {
				return err
			}
			return c.print(newSessionView(info, app.Now()).table())
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "user name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prefer $"+passwordEnv+")")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var user, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := c.ensureApp(ctx)
			if err != nil {
				return err
			}
			pw, err := c.password(password)
			if err != nil {
				return err
			}
			reg := domainauth.Registration{UserName: user, Email: email, Password: pw}
			if err := app.Auth.Register(ctx, reg); err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.Out, "registered %s; run `crudctl login -u %s` to start a session\n", user, user)
			return err
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "user name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prefer $"+passwordEnv+")")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := c.ensureApp(ctx)
			if err != nil {
				return err
			}
			if err := app.Auth.Logout(ctx); err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.Out, "logged out")
			return err
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := c.ensureApp(ctx)
			if err != nil {
				return err
			}
			if !app.Auth.IsAuthenticated(ctx) {
				return apperrors.Unauthorized("not logged in")
			}
			info, ok := app.Auth.Current(ctx)
			if !ok {
				return apperrors.Unauthorized("not logged in")
			}
			if app.Auth.IsTokenExpiringSoon(ctx, app.Config.Session.ExpiryWarning) {
				_, _ = fmt.Fprintf(c.Err, "warning: session for %s expires at %s\n",
					info.UserName, info.TokenExpiration.Format(time.RFC3339))
			}
			return c.print(newSessionView(info, app.Now()).table())
		},
	}
}
