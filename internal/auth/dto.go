package auth

import (
	"strings"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/account"
	"github.com/frahmantamala/vendor-portal/internal/core/common/validation"
)

// LoginDTO carries the OAuth2 password-grant form fields.
type LoginDTO struct {
	Username string
	Password string
}

func (d LoginDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required()
	v.Field("password", d.Password).Required()
	return v.Validate()
}

type RegisterDTO struct {
	Username    string  `json:"username"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Role        string  `json:"role"`
	Status      string  `json:"status"`
	Age         *int    `json:"age,omitempty"`
	Gender      *string `json:"gender,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	CompanyName *string `json:"company_name,omitempty"`
}

func (d *RegisterDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	if d.Status == "" {
		d.Status = account.StatusActive
	}
	if d.Phone != nil {
		p := validation.NormalizePhone(*d.Phone)
		d.Phone = &p
	}
}

// Validate checks a public registration, which may not claim the admin role.
func (d RegisterDTO) Validate() *internal.AppError {
	return d.validate(account.SelfRegisterRoles)
}

func (d RegisterDTO) validate(roles []string) *internal.AppError {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().Username()
	v.Field("email", d.Email).Required().Email()
	v.Field("password", d.Password).Required().MinLength(6).MaxBytes(validation.MaxPasswordBytes, internal.ErrCodeInvalidPassword)
	v.Field("first_name", d.FirstName).Required().MaxLength(100)
	v.Field("last_name", d.LastName).Required().MaxLength(100)
	v.Field("role", d.Role).Required().OneOf(internal.ErrCodeInvalidRole, roles...)
	v.Field("status", d.Status).OneOf(internal.ErrCodeInvalidStatus, account.Statuses...)
	v.Field("age", d.Age).MinInt(0, internal.ErrCodeValidationFailed).MaxInt(150, internal.ErrCodeValidationFailed)
	v.Field("gender", d.Gender).MaxLength(20)
	v.Field("phone", d.Phone).Phone()
	v.Field("company_name", d.CompanyName).MaxLength(200)
	return v.Validate()
}

type VerifyIdentityDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (d VerifyIdentityDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required()
	v.Field("email", d.Email).Required().Email()
	return v.Validate()
}

type ResetPasswordDTO struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

func (d ResetPasswordDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required()
	v.Field("email", d.Email).Required().Email()
	v.Field("new_password", d.NewPassword).Required().MinLength(6).MaxBytes(validation.MaxPasswordBytes, internal.ErrCodeInvalidPassword)
	return v.Validate()
}
