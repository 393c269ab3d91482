package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/target/crud-console/internal/bootstrap"
	apperrors "github.com/target/crud-console/internal/errors"
	"github.com/target/crud-console/internal/output"
	"github.com/target/crud-console/internal/resources"
)

const resourceArgHelp = "employees, shippers, cultures or departments (aliases: emp, ship, cult, dept)"

func (c *cli) lookup(app *bootstrap.App, name string) (resources.Handle, error) {
	h, ok := app.Resources.Lookup(name)
	if !ok {
		return nil, apperrors.ValidationField("resource",
			fmt.Sprintf("unknown resource %q (want one of: %s)", name, strings.Join(app.Resources.Names(), ", ")))
	}
	return h, nil
}

// requireWriter enforces the writer role on mutations when configured.
func (c *cli) requireWriter(ctx context.Context, app *bootstrap.App) error {
	s := app.Config.Session
	if !s.RequireWriterRole {
		return nil
	}
	if !app.Auth.IsAuthenticated(ctx) {
		return apperrors.Unauthorized("not logged in")
	}
	if !app.Auth.HasRole(ctx, s.WriterRole) {
		return apperrors.New(apperrors.ErrCodeForbidden,
			fmt.Sprintf("%s lacks the %q role required to modify records", app.Auth.UserName(ctx), s.WriterRole))
	}
	return nil
}

func recordsTable(h resources.Handle, recs []resources.Record) output.Table {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, r.TableRow())
	}
	return output.Table{Header: h.Header(), Rows: rows, Data: recs}
}

func recordTable(h resources.Handle, rec resources.Record) output.Table {
	return output.Table{Header: h.Header(), Rows: [][]string{rec.TableRow()}, Data: rec}
}

// payload reads --data, or --file where "-" means stdin.
func (c *cli) payload(data, file string) ([]byte, error) {
	switch {
	case data != "" && file != "":
		return nil, apperrors.Validation("use either --data or --file, not both")
	case data != "":
		return []byte(data), nil
	case file == "-":
		b, err := io.ReadAll(c.In)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return b, nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		return b, nil
	default:
		return nil, apperrors.Validation("record data required: pass --data '{...}' or --file path")
	}
}

func addPayloadFlags(cmd *cobra.Command, data, file *string) {
	cmd.Flags().StringVarP(data, "data", "d", "", "record as a JSON object")
	cmd.Flags().StringVarP(file, "file", "f", "", "read the JSON record from a file (- for stdin)")
}

func (c *cli) resourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the resources this console manages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			type entry struct {
				Name    string   `json:"name"`
				Aliases []string `json:"aliases"`
				Path    string   `json:"path"`
			}
			var (
				entries []entry
				rows    [][]string
			)
			for _, h := range app.Resources.All() {
				entries = append(entries, entry{Name: h.Name(), Aliases: h.Aliases(), Path: h.Path()})
				rows = append(rows, []string{h.Name(), strings.Join(h.Aliases(), ","), h.Path()})
			}
			return c.print(output.Table{Header: []string{"NAME", "ALIASES", "PATH"}, Rows: rows, Data: entries})
		},
	}
}

func (c *cli) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Count the records of every resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			counts := app.Resources.Summary(cmd.Context())
			rows := make([][]string, 0, len(counts))
			for _, ct := range counts {
				n := strconv.Itoa(ct.Count)
				if ct.Err != nil {
					n = "-"
				}
				rows = append(rows, []string{ct.Name, ct.Path, n, ct.Duration.Round(time.Millisecond).String(), ct.Error})
			}
			return c.print(output.Table{
				Header: []string{"RESOURCE", "PATH", "COUNT", "LATENCY", "ERROR"},
				Rows:   rows,
				Data:   counts,
			})
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list RESOURCE",
		Short: "List every record of a resource, sorted by id",
		Long:  "RESOURCE is one of " + resourceArgHelp + ".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			h, err := c.lookup(app, args[0])
			if err != nil {
				return err
			}
			recs, err := h.List(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(recordsTable(h, recs))
		},
	}
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get RESOURCE ID",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			h, err := c.lookup(app, args[0])
			if err != nil {
				return err
			}
			rec, err := h.Get(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			return c.print(recordTable(h, rec))
		},
	}
}

func (c *cli) createCmd() *cobra.Command {
	var data, file string
	cmd := &cobra.Command{
		Use:   "create RESOURCE",
		Short: "Create a record from JSON",
		Example: `  crudctl create employees --data '{"name":"Ann","salary":1200}'
  crudctl create cultures -f culture.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := c.ensureApp(ctx)
			if err != nil {
				return err
			}
			h, err := c.lookup(app, args[0])
			if err != nil {
				return err
			}
			if err := c.requireWriter(ctx, app); err != nil {
				return err
			}
			body, err := c.payload(data, file)
			if err != nil {
				return err
			}
			rec, err := h.Create(ctx, body)
			if err != nil {
				return err
			}
			return c.print(recordTable(h, rec))
		},
	}
	addPayloadFlags(cmd, &data, &file)
	return cmd
}

func (c *cli) updateCmd() *cobra.Command {
	var data, file string
	cmd := &cobra.Command{
		Use:   "update RESOURCE ID",
		Short: "Merge JSON fields onto a record and save it",
		Long: `Fetch the record, overlay the top-level fields of the given JSON object and
send the result back. Fields not mentioned keep their current value.`,
		Example: `  crudctl update employees 3 --data '{"salary":1500}'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := c.ensureApp(ctx)
			if err != nil {
				return err
			}
			h, err := c.lookup(app, args[0])
			if err != nil {
				return err
			}
			if err := c.requireWriter(ctx, app); err != nil {
				return err
			}
			patch, err := c.payload(data, file)
			if err != nil {
				return err
			}
			rec, err := h.Update(ctx, args[1], patch)
			if err != nil {
				return err
			}
			return c.print(recordTable(h, rec))
		},
	}
	addPayloadFlags(cmd, &data, &file)
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete RESOURCE ID",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := c.ensureApp(ctx)
			if err != nil {
				return err
			}
			h, err := c.lookup(app, args[0])
			if err != nil {
				return err
			}
			if err := c.requireWriter(ctx, app); err != nil {
				return err
			}
			if !yes {
				answer, err := c.prompt(fmt.Sprintf("Delete %s %s? [y/N]: ", h.Name(), args[1]))
				if err != nil {
					return err
				}
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					_, err = fmt.Fprintln(c.Out, "aborted")
					return err
				}
			}
			if err := h.Delete(ctx, args[1]); err != nil {
				return err
			}
			app.Logger.InfoContext(ctx, "record deleted", "resource", h.Name(), "id", args[1])
			_, err = fmt.Fprintf(c.Out, "deleted %s %s\n", h.Name(), args[1])
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (c *cli) probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe RESOURCE",
		Short: "Call the resource's connectivity test endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			h, err := c.lookup(app, args[0])
			if err != nil {
				return err
			}
			raw, err := h.Probe(cmd.Context())
			if err != nil {
				return err
			}
			var data any
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &data); err != nil {
					data = string(raw)
				}
			}
			return c.print(output.Table{
				Header: []string{"RESOURCE", "RESPONSE"},
				Rows:   [][]string{{h.Name(), strings.TrimSpace(string(raw))}},
				Data:   data,
			})
		},
	}
}
