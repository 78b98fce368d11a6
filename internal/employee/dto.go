package employee

import (
	"strings"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/account"
	"github.com/frahmantamala/vendor-portal/internal/core/common/validation"
	"github.com/frahmantamala/vendor-portal/internal/permission"
)

type CreateEmployeeDTO struct {
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Phone        *string `json:"phone,omitempty"`
	EmployeeRole string  `json:"employee_role"`
	Department   *string `json:"department,omitempty"`
}

func (d *CreateEmployeeDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	if d.EmployeeRole == "" {
		d.EmployeeRole = string(permission.Viewer)
	}
	if d.Phone != nil {
		p := validation.NormalizePhone(*d.Phone)
		d.Phone = &p
	}
}

func (d CreateEmployeeDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().Username()
	v.Field("email", d.Email).Required().Email()
	v.Field("password", d.Password).Required().MinLength(6).MaxBytes(validation.MaxPasswordBytes, internal.ErrCodeInvalidPassword)
	v.Field("first_name", d.FirstName).Required().MaxLength(100)
	v.Field("last_name", d.LastName).Required().MaxLength(100)
	v.Field("phone", d.Phone).Phone()
	v.Field("employee_role", d.EmployeeRole).OneOf(internal.ErrCodeInvalidRole, permission.EmployeeRoles...)
	v.Field("department", d.Department).MaxLength(100)
	return v.Validate()
}

func (d CreateEmployeeDTO) Account() *account.Account {
	return &account.Account{
		Username:  d.Username,
		Email:     d.Email,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Role:      account.RoleEmployee,
		Status:    account.StatusActive,
		Phone:     d.Phone,
	}
}

type UpdateEmployeeDTO struct {
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	EmployeeRole *string `json:"employee_role,omitempty"`
	Department   *string `json:"department,omitempty"`
}

func (d *UpdateEmployeeDTO) Normalize() {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		t := strings.TrimSpace(*s)
		return &t
	}
	d.FirstName = trim(d.FirstName)
	d.LastName = trim(d.LastName)
	d.Department = trim(d.Department)
	if d.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*d.Email))
		d.Email = &e
	}
	if d.Phone != nil {
		p := validation.NormalizePhone(*d.Phone)
		d.Phone = &p
	}
}

func (d UpdateEmployeeDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.FirstName != nil {
		v.Field("first_name", d.FirstName).Required().MaxLength(100)
	}
	if d.LastName != nil {
		v.Field("last_name", d.LastName).Required().MaxLength(100)
	}
	if d.Email != nil {
		v.Field("email", d.Email).Required().Email()
	}
	v.Field("phone", d.Phone).Phone()
	if d.EmployeeRole != nil {
		v.Field("employee_role", d.EmployeeRole).OneOf(internal.ErrCodeInvalidRole, permission.EmployeeRoles...)
	}
	v.Field("department", d.Department).MaxLength(100)
	return v.Validate()
}

func (d UpdateEmployeeDTO) Changes() Changes {
	return Changes{
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		Phone:        d.Phone,
		EmployeeRole: d.EmployeeRole,
		Department:   d.Department,
	}
}

type UpdateStatusDTO struct {
	Status string `json:"status"`
}

func (d UpdateStatusDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("status", d.Status).Required().OneOf(internal.ErrCodeInvalidStatus, account.Statuses...)
	return v.Validate()
}
