package resources

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/crud-console/internal/apiclient"
	"github.com/target/crud-console/internal/domain/model"
	apperrors "github.com/target/crud-console/internal/errors"
	"github.com/target/crud-console/internal/testutil"
)

func newTestRegistry(t *testing.T) (*Registry, *testutil.RESTBackend) {
	t.Helper()
	stub := testutil.NewRESTBackend(t,
		testutil.Table{Path: DefaultEmployeePath, KeyField: "employeeId", AutoIncrement: true},
		testutil.Table{Path: DefaultShipperPath, KeyField: "shipperId", AutoIncrement: true},
		testutil.Table{Path: DefaultCulturePath, KeyField: "cultureId", EmptyPut: true},
		testutil.Table{Path: DefaultDepartmentPath, KeyField: "departmentId"},
	)
	tr := apiclient.NewTransport(apiclient.TransportOptions{BaseURL: stub.URL()})
	return NewRegistry(tr, Options{}), stub
}

func TestRegistry_LookupAndOrder(t *testing.T) {
	reg, _ := newTestRegistry(t)

	assert.Equal(t, []string{Employees, Shippers, Cultures, Departments}, reg.Names())

	for _, name := range []string{"employees", "employee", "emp"} {
		h, ok := reg.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, Employees, h.Name())
	}
	h, ok := reg.Lookup("dept")
	require.True(t, ok)
	assert.Equal(t, "/api/Department", h.Path())
	assert.Equal(t, []string{"ID", "NAME", "SALARY"}, mustLookup(t, reg, Employees).Header())

	_, ok = reg.Lookup("products")
	assert.False(t, ok)

	all := reg.All()
	all[0] = nil
	assert.NotNil(t, reg.All()[0], "All returns a copy")
}

func mustLookup(t *testing.T, reg *Registry, name string) Handle {
	t.Helper()
	h, ok := reg.Lookup(name)
	require.True(t, ok, name)
	return h
}

func TestHandle_ListSortedByKey(t *testing.T) {
	reg, stub := newTestRegistry(t)
	stub.Seed(DefaultEmployeePath,
		model.Employee{EmployeeID: 3, Name: "C", Salary: 3},
		model.Employee{EmployeeID: 1, Name: "A", Salary: 1},
		model.Employee{EmployeeID: 2, Name: "B", Salary: 2},
	)

	recs, err := mustLookup(t, reg, Employees).List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)
	var ids []int
	for _, r := range recs {
		ids = append(ids, r.(model.Employee).EmployeeID)
	}
	assert.Equal(t, []int{1, 2, 3}, ids)
}

func TestHandle_GetPadsCultureID(t *testing.T) {
	reg, stub := newTestRegistry(t)
	stub.Seed(DefaultCulturePath, model.Culture{CultureID: "en    ", Name: "English"})

	rec, err := mustLookup(t, reg, Cultures).Get(context.Background(), "en")
	require.NoError(t, err)
	assert.Equal(t, "English", rec.(model.Culture).Name)
	assert.Equal(t, 1, stub.CountRequests(http.MethodGet, "/Culture/en%20%20%20%20"))
}

func TestHandle_GetInvalidID(t *testing.T) {
	reg, stub := newTestRegistry(t)

	_, err := mustLookup(t, reg, Employees).Get(context.Background(), "abc")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Empty(t, stub.Requests())
}

func TestHandle_GetNotFound(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := mustLookup(t, reg, Shippers).Get(context.Background(), "9")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestHandle_Create(t *testing.T) {
	reg, stub := newTestRegistry(t)
	h := mustLookup(t, reg, Employees)
	ctx := context.Background()

	rec, err := h.Create(ctx, []byte(`{"name":"Dan","salary":1200.5}`))
	require.NoError(t, err)
	emp := rec.(model.Employee)
	assert.Equal(t, 1, emp.EmployeeID)
	assert.Equal(t, "Dan", emp.Name)

	_, err = h.Create(ctx, []byte(`{"name":"","salary":10}`))
	assert.True(t, apperrors.IsValidation(err))

	_, err = h.Create(ctx, []byte(`{"name":"Eve","salary":10,"bogus":1}`))
	assert.True(t, apperrors.IsValidation(err), "unknown fields rejected")

	_, err = h.Create(ctx, []byte(`not json`))
	assert.True(t, apperrors.IsValidation(err))

	assert.Equal(t, 1, stub.CountRequests(http.MethodPost, DefaultEmployeePath), "invalid input never reaches the backend")
}

func TestHandle_UpdateMergesPatch(t *testing.T) {
	reg, stub := newTestRegistry(t)
	phone := "(503) 555-9831"
	stub.Seed(DefaultShipperPath, model.Shipper{ShipperID: 1, CompanyName: "Speedy Express", Phone: &phone})
	h := mustLookup(t, reg, Shippers)
	ctx := context.Background()

	rec, err := h.Update(ctx, "1", []byte(`{"companyName":"Speedy Freight"}`))
	require.NoError(t, err)
	sh := rec.(model.Shipper)
	assert.Equal(t, "Speedy Freight", sh.CompanyName)
	require.NotNil(t, sh.Phone)
	assert.Equal(t, phone, *sh.Phone)

	rows := stub.Rows(DefaultShipperPath)
	require.Len(t, rows, 1)
	assert.Equal(t, "Speedy Freight", rows[0]["companyName"])
	assert.Equal(t, phone, rows[0]["phone"])

	rec, err = h.Update(ctx, "1", []byte(`{"phone":null}`))
	require.NoError(t, err)
	assert.Nil(t, rec.(model.Shipper).Phone)

	_, err = h.Update(ctx, "1", []byte(`["not","an","object"]`))
	assert.True(t, apperrors.IsValidation(err))
}

func TestHandle_UpdateCultureEmptyResponse(t *testing.T) {
	reg, stub := newTestRegistry(t)
	stub.Seed(DefaultCulturePath, model.Culture{CultureID: "fr    ", Name: "French"})

	rec, err := mustLookup(t, reg, Cultures).Update(context.Background(), "fr", []byte(`{"name":"Français"}`))
	require.NoError(t, err)
	assert.Equal(t, "Français", rec.(model.Culture).Name)
	assert.Equal(t, 1, stub.CountRequests(http.MethodPut, "/Culture/fr%20%20%20%20"))
}

func TestHandle_Delete(t *testing.T) {
	reg, stub := newTestRegistry(t)
	stub.Seed(DefaultDepartmentPath, model.Department{DepartmentID: 7, Name: "Engineering", Budget: 1, StartDate: "2007-09-01T00:00:00"})
	h := mustLookup(t, reg, Departments)
	ctx := context.Background()

	require.NoError(t, h.Delete(ctx, "7"))
	assert.Empty(t, stub.Rows(DefaultDepartmentPath))

	err := h.Delete(ctx, "7")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestHandle_Probe(t *testing.T) {
	reg, stub := newTestRegistry(t)

	raw, err := mustLookup(t, reg, Departments).Probe(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","path":"/api/Department"}`, string(raw))
	assert.Equal(t, 1, stub.CountRequests(http.MethodGet, "/api/Department/test"))
}

func TestRegistry_SummaryReportsFailuresPerResource(t *testing.T) {
	reg, stub := newTestRegistry(t)
	stub.Seed(DefaultEmployeePath, model.Employee{EmployeeID: 1, Name: "A", Salary: 1}, model.Employee{EmployeeID: 2, Name: "B", Salary: 1})
	stub.Seed(DefaultCulturePath, model.Culture{CultureID: "en    ", Name: "English"})
	stub.FailNext(http.MethodGet, DefaultShipperPath, http.StatusInternalServerError)

	counts := reg.Summary(context.Background())
	require.Len(t, counts, 4)

	byName := map[string]Count{}
	for _, c := range counts {
		byName[c.Name] = c
	}
	assert.Equal(t, 2, byName[Employees].Count)
	assert.NoError(t, byName[Employees].Err)
	assert.Equal(t, 1, byName[Cultures].Count)
	assert.Equal(t, 0, byName[Departments].Count)
	assert.Error(t, byName[Shippers].Err)
	assert.NotEmpty(t, byName[Shippers].Error)
	assert.Equal(t, Employees, counts[0].Name, "display order kept")
}

func TestNewCultures_Width(t *testing.T) {
	tr := apiclient.NewTransport(apiclient.TransportOptions{BaseURL: "http://example.invalid"})

	assert.Equal(t, "en    ", NewCultures(tr, "", "", 0).Normalize("en"))
	assert.Equal(t, "en  ", NewCultures(tr, "", "", 4).Normalize("en"))
	assert.Equal(t, "en", NewCultures(tr, "", "", -1).Normalize("en"))
	assert.Equal(t, "/Culture", NewCultures(tr, "", "", 0).Path())
	assert.Equal(t, "/v2/Culture", NewCultures(tr, "/v2/Culture/", "", 0).Path())
}
