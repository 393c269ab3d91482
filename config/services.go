package config

// ResourcesConfig contains the endpoint path of each resource.
// Departments sit under /api on the reference backend; the rest do not.
type ResourcesConfig struct {
	EmployeePath   string `env:"RESOURCE_EMPLOYEE_PATH"   envDefault:"/Employee"`
	ShipperPath    string `env:"RESOURCE_SHIPPER_PATH"    envDefault:"/Shipper"`
	CulturePath    string `env:"RESOURCE_CULTURE_PATH"    envDefault:"/Culture"`
	DepartmentPath string `env:"RESOURCE_DEPARTMENT_PATH" envDefault:"/api/Department"`

	// CultureIDWidth is the fixed width culture ids are right-padded to in
	// URLs. Negative disables padding.
	CultureIDWidth int `env:"RESOURCE_CULTURE_ID_WIDTH" envDefault:"6"`

	// ProbePath is appended to a resource path by the probe command.
	ProbePath string `env:"RESOURCE_PROBE_PATH" envDefault:"/test"`
}

// Sanitize normalizes paths.
func (c *ResourcesConfig) Sanitize() {
	c.EmployeePath = normalizePath(c.EmployeePath, "/Employee")
	c.ShipperPath = normalizePath(c.ShipperPath, "/Shipper")
	c.CulturePath = normalizePath(c.CulturePath, "/Culture")
	c.DepartmentPath = normalizePath(c.DepartmentPath, "/api/Department")
	c.ProbePath = normalizePath(c.ProbePath, "/test")
	if c.CultureIDWidth == 0 {
		c.CultureIDWidth = 6
	}
}
