package account

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	accountDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/account"
)

type Role string

const (
	RoleVendor   Role = "vendor"
	RolePatient  Role = "patient"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// SelfRegisterRoles are the roles the public /register endpoint accepts. Admins are created from the CLI.
var SelfRegisterRoles = []string{string(RoleVendor), string(RolePatient), string(RoleEmployee)}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

var Statuses = []string{StatusActive, StatusInactive}

// Account is the login identity shared by vendors, employees, patients and admins.
type Account struct {
	UserID       int64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	Status       string
	Phone        *string
	Age          *int
	Gender       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

func (a *Account) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// Profile is the public view of an account.
type Profile struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      Role      `json:"role"`
	Status    string    `json:"status"`
	Phone     *string   `json:"phone,omitempty"`
	Age       *int      `json:"age,omitempty"`
	Gender    *string   `json:"gender,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *Account) ToProfile() Profile {
	return Profile{
		UserID:    a.UserID,
		Username:  a.Username,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Role:      a.Role,
		Status:    a.Status,
		Phone:     a.Phone,
		Age:       a.Age,
		Gender:    a.Gender,
		CreatedAt: a.CreatedAt,
	}
}

func ToDataModel(a *Account) *accountDatamodel.UserAccount {
	return &accountDatamodel.UserAccount{
		UserID:       a.UserID,
		Username:     a.Username,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Role:         string(a.Role),
		Status:       a.Status,
		Phone:        a.Phone,
		Age:          a.Age,
		Gender:       a.Gender,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func FromDataModel(row *accountDatamodel.UserAccount) *Account {
	return &Account{
		UserID:       row.UserID,
		Username:     row.Username,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		Role:         Role(row.Role),
		Status:       row.Status,
		Phone:        row.Phone,
		Age:          row.Age,
		Gender:       row.Gender,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

// HashPassword returns the bcrypt hash of password at cost.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
