package employee

import (
	"time"

	employeeDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/employee"
)

// Employee is a vendor employee as returned by the API.
type Employee struct {
	EmployeeID        int64     `json:"employee_id"`
	UserID            int64     `json:"user_id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Phone             *string   `json:"phone"`
	EmployeeRole      string    `json:"employee_role"`
	Department        *string   `json:"department"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	CreatedByUsername *string   `json:"created_by_username"`
	CreatedByName     *string   `json:"created_by_name,omitempty"`
	VendorID          string    `json:"vendor_id"`
	VendorCompanyName string    `json:"vendor_company_name"`
}

func FromDataModel(row *employeeDatamodel.EmployeeView) *Employee {
	return &Employee{
		EmployeeID:        row.EmployeeID,
		UserID:            row.UserID,
		Username:          row.Username,
		Email:             row.Email,
		FirstName:         row.FirstName,
		LastName:          row.LastName,
		Phone:             row.Phone,
		EmployeeRole:      row.EmployeeRole,
		Department:        row.Department,
		Status:            row.Status,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
		CreatedByUsername: row.CreatedByUsername,
		CreatedByName:     row.CreatedByName,
		VendorID:          row.VendorID,
		VendorCompanyName: row.VendorCompanyName,
	}
}

// Link is the vendor_employee side of a new employee.
type Link struct {
	EmployeeID      int64
	VendorID        string
	EmployeeRole    string
	Department      *string
	CreatedByUserID int64
}

// Changes is a partial update; nil fields are left alone.
type Changes struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Phone        *string
	EmployeeRole *string
	// an empty Department clears the column
	Department *string
}

func (c Changes) AccountColumns() map[string]interface{} {
	cols := map[string]interface{}{}
	if c.FirstName != nil {
		cols["first_name"] = *c.FirstName
	}
	if c.LastName != nil {
		cols["last_name"] = *c.LastName
	}
	if c.Email != nil {
		cols["email"] = *c.Email
	}
	if c.Phone != nil {
		cols["phone"] = *c.Phone
	}
	return cols
}

func (c Changes) EmployeeColumns() map[string]interface{} {
	cols := map[string]interface{}{}
	if c.EmployeeRole != nil {
		cols["employee_role"] = *c.EmployeeRole
	}
	if c.Department != nil {
		if *c.Department == "" {
			cols["department"] = nil
		} else {
			cols["department"] = *c.Department
		}
	}
	return cols
}

type ListFilter struct {
	Search string
	Role   string
	Status string
	Limit  int
	Offset int
}

type ListResponse struct {
	Employees  []*Employee `json:"employees"`
	TotalCount int64       `json:"total_count"`
	VendorID   string      `json:"vendor_id"`
}

type CreateResponse struct {
	Message      string `json:"message"`
	EmployeeID   int64  `json:"employee_id"`
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	EmployeeRole string `json:"employee_role"`
	VendorID     string `json:"vendor_id"`
}

type MutationResponse struct {
	Message    string `json:"message"`
	EmployeeID int64  `json:"employee_id"`
	Status     string `json:"status,omitempty"`
}
