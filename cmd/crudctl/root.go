package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/target/crud-console/internal/bootstrap"
	"github.com/target/crud-console/internal/output"
)

type streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// appFactory builds the wired services on first use.
type appFactory func(ctx context.Context, envFiles []string, errOut io.Writer) (*bootstrap.App, error)

type cli struct {
	streams
	newApp appFactory
	getenv func(string) string

	envFiles []string
	format   string
	query    string

	app   *bootstrap.App
	input *bufio.Reader
}

func newCLI(s streams, factory appFactory) *cli {
	return &cli{streams: s, newApp: factory, getenv: os.Getenv}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "crudctl",
		Short: "Manage employees, shippers, cultures and departments",
		Long: `crudctl talks to a CRUD backend exposing employees, shippers, cultures and
departments. Log in once with "crudctl login"; the session is kept in the
configured store (a file under the user config directory by default).

Configuration comes from the environment and .env files (see --env-file).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			_, err := c.printer()
			return err
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.format, "output", "o", "table", "output format: table, json or yaml")
	flags.StringVarP(&c.query, "query", "q", "", "JMESPath expression applied to the result")
	flags.StringSliceVar(&c.envFiles, "env-file", nil, "env files to load (default .env)")

	root.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.resourcesCmd(),
		c.dashboardCmd(),
		c.listCmd(),
		c.getCmd(),
		c.createCmd(),
		c.updateCmd(),
		c.deleteCmd(),
		c.probeCmd(),
	)
	return root
}

// ensureApp builds the services once per invocation.
func (c *cli) ensureApp(ctx context.Context) (*bootstrap.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	app, err := c.newApp(ctx, c.envFiles, c.Err)
	if err != nil {
		return nil, err
	}
	c.app = app
	return app, nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

func (c *cli) printer() (*output.Printer, error) {
	format, err := output.ParseFormat(c.format)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(c.Out, output.Options{Format: format, Query: c.query})
}

func (c *cli) print(t output.Table) error {
	p, err := c.printer()
	if err != nil {
		return err
	}
	return p.Print(t)
}

// readLine reads one line from stdin without the trailing newline.
func (c *cli) readLine() (string, error) {
	if c.input == nil {
		c.input = bufio.NewReader(c.In)
	}
	line, err := c.input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// prompt writes msg to stderr and reads the answer from stdin.
func (c *cli) prompt(msg string) (string, error) {
	if _, err := fmt.Fprint(c.Err, msg); err != nil {
		return "", err
	}
	return c.readLine()
}
