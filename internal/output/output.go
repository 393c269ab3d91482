// Package output renders command results as an aligned table, JSON or YAML,
// optionally filtered through a JMESPath query.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	jmespath "github.com/jmespath-community/go-jmespath"
	"gopkg.in/yaml.v3"
)

// Format selects how results are written.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat accepts table, json, yaml (and yml), case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// Table is a result with both a tabular and a structured form. Data is what
// JSON, YAML and queries see; Header and Rows are used for table output.
type Table struct {
	Header []string
	Rows   [][]string
	Data   any
}

// Options configures a Printer.
type Options struct {
	Format Format
	// Query is a JMESPath expression applied to Data before rendering.
	Query string
}

// Printer writes results to one writer.
type Printer struct {
	w      io.Writer
	format Format
	query  string
}

// NewPrinter validates opts and returns a Printer writing to w.
func NewPrinter(w io.Writer, opts Options) (*Printer, error) {
	format := opts.Format
	if format == "" {
		format = FormatTable
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	query := strings.TrimSpace(opts.Query)
	if query != "" {
		if _, err := jmespath.Compile(query); err != nil {
			return nil, fmt.Errorf("invalid query %q: %w", query, err)
		}
	}
	return &Printer{w: w, format: format, query: query}, nil
}

// Print renders t. With a query, table output falls back to a plain listing
// of the query result.
func (p *Printer) Print(t Table) error {
	if p.format == FormatTable && p.query == "" {
		return p.table(t.Header, t.Rows)
	}

	data, err := toGeneric(t.Data)
	if err != nil {
		return err
	}
	if p.query != "" {
		data, err = jmespath.Search(p.query, data)
		if err != nil {
			return fmt.Errorf("evaluate query: %w", err)
		}
	}

	switch p.format {
	case FormatJSON:
		return p.json(data)
	case FormatYAML:
		return p.yaml(data)
	default:
		return p.plain(data)
	}
}

func (p *Printer) table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	if len(header) > 0 {
		if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")); err != nil {
			return fmt.Errorf("write table header: %w", err)
		}
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return fmt.Errorf("write table row: %w", err)
		}
	}
	if len(rows) == 0 {
		if _, err := fmt.Fprintln(tw, "(no records)"); err != nil {
			return fmt.Errorf("write table row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}
	return nil
}

func (p *Printer) json(data any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

func (p *Printer) yaml(data any) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("write yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("write yaml: %w", err)
	}
	return nil
}

// plain prints scalars and lists of scalars one per line; anything nested is
// printed as indented JSON.
func (p *Printer) plain(data any) error {
	switch v := data.(type) {
	case nil:
		return nil
	case []any:
		for _, item := range v {
			if !isScalar(item) {
				return p.json(data)
			}
		}
		for _, item := range v {
			if _, err := fmt.Fprintln(p.w, scalarString(item)); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
		}
		return nil
	default:
		if !isScalar(v) {
			return p.json(data)
		}
		if _, err := fmt.Fprintln(p.w, scalarString(v)); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		return nil
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, float64:
		return true
	default:
		return false
	}
}

func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// toGeneric converts v to the map/slice/scalar shape JMESPath and YAML
// expect, keyed by JSON field names.
func toGeneric(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return out, nil
}
