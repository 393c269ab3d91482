// Command crudctl manages employees, shippers, cultures and departments on a
// CRUD backend from the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/target/crud-console/internal/bootstrap"
	apperrors "github.com/target/crud-console/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}, defaultAppFactory)
	stop()
	os.Exit(code) //nolint:forbidigo // CLI must propagate command failure to the shell
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, s streams, factory appFactory) int {
	c := newCLI(s, factory)
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(s.In)
	root.SetOut(s.Out)
	root.SetErr(s.Err)

	err := root.ExecuteContext(ctx)
	if closeErr := c.close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	if err != nil {
		reportError(s.Err, err)
		return 1
	}
	return 0
}

// defaultAppFactory loads configuration from env files and the environment.
func defaultAppFactory(ctx context.Context, envFiles []string, errOut io.Writer) (*bootstrap.App, error) {
	cfg, err := bootstrap.LoadConfig(envFiles...)
	if err != nil {
		return nil, err
	}
	logger := bootstrap.InitLogger(cfg.Observability.Logging, errOut)
	return bootstrap.NewApp(ctx, bootstrap.AppDeps{Config: cfg, Logger: logger})
}

func reportError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "error: %v\n", err)

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return
	}
	if len(appErr.Fields) > 1 {
		names := make([]string, 0, len(appErr.Fields))
		for name := range appErr.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			_, _ = fmt.Fprintf(w, "  %s: %s\n", name, appErr.Fields[name])
		}
	}
	if appErr.Code == apperrors.ErrCodeUnauthorized {
		_, _ = fmt.Fprintln(w, "hint: run `crudctl login` to start a session")
	}
}
