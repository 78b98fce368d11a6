package dbtest

import (
	"fmt"

	accountDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/account"
	employeeDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/employee"
	vendorDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/vendor"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Password is the plain-text password of every seeded account.
const Password = "password123"

func account(username, role, status string) (*accountDatamodel.UserAccount, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	return &accountDatamodel.UserAccount{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		FirstName:    username,
		LastName:     "Test",
		Role:         role,
		Status:       status,
	}, nil
}

// SeedVendor creates a vendor account and its vendor row.
func SeedVendor(db *gorm.DB, username string) (userID int64, vendorID string, err error) {
	row, err := account(username, "vendor", "active")
	if err != nil {
		return 0, "", err
	}
	if err := db.Create(row).Error; err != nil {
		return 0, "", err
	}
	vendorID = fmt.Sprintf("VND%06d", row.UserID)
	err = db.Create(&vendorDatamodel.Vendor{VendorID: vendorID, UserID: row.UserID, CompanyName: username + " Labs"}).Error
	return row.UserID, vendorID, err
}

// SeedEmployee creates an employee account linked to vendorID.
func SeedEmployee(db *gorm.DB, vendorID, username, employeeRole, status string) (userID, employeeID int64, err error) {
	row, err := account(username, "employee", status)
	if err != nil {
		return 0, 0, err
	}
	if err := db.Create(row).Error; err != nil {
		return 0, 0, err
	}
	link := &employeeDatamodel.VendorEmployee{
		UserID:       row.UserID,
		VendorID:     vendorID,
		EmployeeRole: employeeRole,
		Status:       status,
	}
	if err := db.Create(link).Error; err != nil {
		return 0, 0, err
	}
	return row.UserID, link.EmployeeID, nil
}

// SeedAccount creates a bare account with the given role.
func SeedAccount(db *gorm.DB, username, role string) (int64, error) {
	row, err := account(username, role, "active")
	if err != nil {
		return 0, err
	}
	if err := db.Create(row).Error; err != nil {
		return 0, err
	}
	return row.UserID, nil
}
