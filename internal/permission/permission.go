package permission

import (
	"context"
	"fmt"

	"github.com/frahmantamala/vendor-portal/internal"
)

// UserType is the caller's standing inside a vendor organization.
type UserType string

const (
	VendorAdmin UserType = "vendor_admin"
	Manager     UserType = "manager"
	Editor      UserType = "editor"
	Viewer      UserType = "viewer"
)

// UserTypes lists every variant; the capability table must cover all of them.
var UserTypes = []UserType{VendorAdmin, Manager, Editor, Viewer}

// EmployeeRoles are the sub-roles a vendor may assign.
var EmployeeRoles = []string{string(Manager), string(Editor), string(Viewer)}

type Resource string

const (
	Employees Resource = "employees"
	Patients  Resource = "patients"
)

var Resources = []Resource{Employees, Patients}

type Capability string

const (
	Create     Capability = "create"
	Edit       Capability = "edit"
	Delete     Capability = "delete"
	Deactivate Capability = "deactivate"
)

type Capabilities struct {
	Create     bool
	Edit       bool
	Delete     bool
	Deactivate bool
}

func (c Capabilities) Allows(capability Capability) bool {
	switch capability {
	case Create:
		return c.Create
	case Edit:
		return c.Edit
	case Delete:
		return c.Delete
	case Deactivate:
		return c.Deactivate
	}
	return false
}

var (
	all  = Capabilities{Create: true, Edit: true, Delete: true, Deactivate: true}
	none = Capabilities{}
)

// capabilityTable is the fixed mapping from user type to what it may do per resource.
// Only vendor admins delete.
var capabilityTable = map[UserType]map[Resource]Capabilities{
	VendorAdmin: {
		Employees: all,
		Patients:  all,
	},
	Manager: {
		Employees: {Create: true, Edit: true, Deactivate: true},
		Patients:  {Create: true, Edit: true, Deactivate: true},
	},
	Editor: {
		Employees: none,
		Patients:  {Create: true, Edit: true},
	},
	Viewer: {
		Employees: none,
		Patients:  none,
	},
}

// CapabilitiesFor returns the table entry; unknown user types get nothing.
func CapabilitiesFor(userType UserType, resource Resource) Capabilities {
	return capabilityTable[userType][resource]
}

// Permissions is the resolved authority of one caller.
type Permissions struct {
	UserID   int64
	VendorID string
	UserType UserType
}

func (p Permissions) Can(resource Resource, capability Capability) bool {
	return CapabilitiesFor(p.UserType, resource).Allows(capability)
}

// Require returns a 403 unless the caller holds capability on resource.
func (p Permissions) Require(resource Resource, capability Capability) error {
	if p.Can(resource, capability) {
		return nil
	}
	return internal.NewForbiddenError(
		fmt.Sprintf("You do not have permission to %s %s", capability, resource),
		internal.ErrCodeInsufficientPermissions,
	)
}

func (p Permissions) IsVendorAdmin() bool {
	return p.UserType == VendorAdmin
}

// View is the JSON shape served at /api/vendor/employees/me/permissions.
type View struct {
	UserID                 int64    `json:"user_id"`
	VendorID               string   `json:"vendor_id"`
	UserType               UserType `json:"user_type"`
	CanCreateEmployees     bool     `json:"can_create_employees"`
	CanEditEmployees       bool     `json:"can_edit_employees"`
	CanDeleteEmployees     bool     `json:"can_delete_employees"`
	CanDeactivateEmployees bool     `json:"can_deactivate_employees"`
	CanCreatePatients      bool     `json:"can_create_patients"`
	CanEditPatients        bool     `json:"can_edit_patients"`
	CanDeletePatients      bool     `json:"can_delete_patients"`
}

func (p Permissions) View() View {
	emp := CapabilitiesFor(p.UserType, Employees)
	pat := CapabilitiesFor(p.UserType, Patients)
	return View{
		UserID:                 p.UserID,
		VendorID:               p.VendorID,
		UserType:               p.UserType,
		CanCreateEmployees:     emp.Create,
		CanEditEmployees:       emp.Edit,
		CanDeleteEmployees:     emp.Delete,
		CanDeactivateEmployees: emp.Deactivate,
		CanCreatePatients:      pat.Create,
		CanEditPatients:        pat.Edit,
		CanDeletePatients:      pat.Delete,
	}
}

type ctxKey struct{}

func ContextWithPermissions(ctx context.Context, p Permissions) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (Permissions, bool) {
	p, ok := ctx.Value(ctxKey{}).(Permissions)
	return p, ok
}
