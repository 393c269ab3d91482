// Package resources binds the console's four record types to their REST
// endpoints and exposes them by name.
package resources

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/target/crud-console/internal/apiclient"
	"github.com/target/crud-console/internal/domain/model"
)

// Resource names as used on the command line.
const (
	Employees   = "employees"
	Shippers    = "shippers"
	Cultures    = "cultures"
	Departments = "departments"
)

// Default endpoint paths. Departments live under the /api prefix.
const (
	DefaultEmployeePath   = "/Employee"
	DefaultShipperPath    = "/Shipper"
	DefaultCulturePath    = "/Culture"
	DefaultDepartmentPath = "/api/Department"
	DefaultProbePath      = "/test"
)

// Options configures endpoint paths and identifier formatting.
type Options struct {
	EmployeePath   string
	ShipperPath    string
	CulturePath    string
	DepartmentPath string
	// CultureIDWidth is the fixed width culture ids are right-padded to in
	// request paths. Zero means model.CultureIDWidth; negative disables padding.
	CultureIDWidth int
	ProbePath      string
	Logger         *slog.Logger
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// NewEmployees returns the employee endpoint client.
func NewEmployees(t *apiclient.Transport, path, probe string) *apiclient.Resource[model.Employee, int] {
	return apiclient.NewResource[model.Employee, int](t, apiclient.ResourceOptions{
		Name: Employees, Path: orDefault(path, DefaultEmployeePath), ProbePath: probe,
	})
}

// NewShippers returns the shipper endpoint client.
func NewShippers(t *apiclient.Transport, path, probe string) *apiclient.Resource[model.Shipper, int] {
	return apiclient.NewResource[model.Shipper, int](t, apiclient.ResourceOptions{
		Name: Shippers, Path: orDefault(path, DefaultShipperPath), ProbePath: probe,
	})
}

// NewCultures returns the culture endpoint client. Culture ids are
// right-padded to width before they are placed in a path.
func NewCultures(t *apiclient.Transport, path, probe string, width int) *apiclient.Resource[model.Culture, string] {
	var format apiclient.IDFormatter = apiclient.Passthrough{}
	if width == 0 {
		width = model.CultureIDWidth
	}
	if width > 0 {
		format = apiclient.PadRight{Width: width}
	}
	return apiclient.NewResource[model.Culture, string](t, apiclient.ResourceOptions{
		Name: Cultures, Path: orDefault(path, DefaultCulturePath), ProbePath: probe, IDFormat: format,
	})
}

// NewDepartments returns the department endpoint client.
func NewDepartments(t *apiclient.Transport, path, probe string) *apiclient.Resource[model.Department, int] {
	return apiclient.NewResource[model.Department, int](t, apiclient.ResourceOptions{
		Name: Departments, Path: orDefault(path, DefaultDepartmentPath), ProbePath: probe,
	})
}

// Registry holds one Handle per resource in display order.
type Registry struct {
	handles []Handle
	byName  map[string]Handle
}

// NewRegistry builds handles for all four resources over t.
func NewRegistry(t *apiclient.Transport, opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	probe := orDefault(opts.ProbePath, DefaultProbePath)

	r := &Registry{byName: make(map[string]Handle)}
	r.add(newHandle(Employees, []string{"employee", "emp"}, NewEmployees(t, opts.EmployeePath, probe), logger))
	r.add(newHandle(Shippers, []string{"shipper", "ship"}, NewShippers(t, opts.ShipperPath, probe), logger))
	r.add(newHandle(Cultures, []string{"culture", "cult"}, NewCultures(t, opts.CulturePath, probe, opts.CultureIDWidth), logger))
	r.add(newHandle(Departments, []string{"department", "dept"}, NewDepartments(t, opts.DepartmentPath, probe), logger))
	return r
}

func (r *Registry) add(h Handle) {
	r.handles = append(r.handles, h)
	r.byName[h.Name()] = h
	for _, a := range h.Aliases() {
		r.byName[a] = h
	}
}

// Lookup finds a handle by name or alias.
func (r *Registry) Lookup(name string) (Handle, bool) {
	h, ok := r.byName[name]
	return h, ok
}

// All returns the handles in display order.
func (r *Registry) All() []Handle {
	return append([]Handle(nil), r.handles...)
}

// Names returns the canonical resource names in display order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.handles))
	for i, h := range r.handles {
		names[i] = h.Name()
	}
	return names
}

// Count is one dashboard entry. Err is set when the list call failed.
type Count struct {
	Name     string        `json:"name" yaml:"name"`
	Path     string        `json:"path" yaml:"path"`
	Count    int           `json:"count" yaml:"count"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Err      error         `json:"-" yaml:"-"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary lists every resource concurrently. A failing resource is reported
// in its entry and does not cancel the others.
func (r *Registry) Summary(ctx context.Context) []Count {
	counts := make([]Count, len(r.handles))
	g, gctx := errgroup.WithContext(ctx)
	for i, h := range r.handles {
		g.Go(func() error {
			start := time.Now()
			items, err := h.List(gctx)
			c := Count{Name: h.Name(), Path: h.Path(), Count: len(items), Duration: time.Since(start), Err: err}
			if err != nil {
				c.Error = err.Error()
			}
			counts[i] = c
			return nil
		})
	}
	_ = g.Wait()
	return counts
}
