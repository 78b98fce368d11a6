package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/account"
	accountDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/account"
	employeeDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/employee"
	vendorDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/vendor"
	"github.com/frahmantamala/vendor-portal/internal/permission"
	"gorm.io/gorm"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.RepositoryAPI {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) GetRole(ctx context.Context, userID int64) (account.Role, error) {
	var row accountDatamodel.UserAccount
	err := r.db.WithContext(ctx).Select("user_id", "role").Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", internal.ErrUserNotFound
		}
		return "", err
	}
	return account.Role(row.Role), nil
}

func (r *PermissionRepository) GetVendorID(ctx context.Context, userID int64) (string, error) {
	var row vendorDatamodel.Vendor
	err := r.db.WithContext(ctx).Select("vendor_id").Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", internal.ErrVendorNotFound
		}
		return "", err
	}
	return row.VendorID, nil
}

func (r *PermissionRepository) GetEmployeeLink(ctx context.Context, userID int64) (*permission.EmployeeLink, error) {
	var row employeeDatamodel.VendorEmployee
	err := r.db.WithContext(ctx).
		Select("employee_id", "vendor_id", "employee_role", "status").
		Where("user_id = ?", userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrEmployeeProfileNotFound
		}
		return nil, err
	}
	return &permission.EmployeeLink{
		EmployeeID:   row.EmployeeID,
		VendorID:     row.VendorID,
		EmployeeRole: row.EmployeeRole,
		Status:       row.Status,
	}, nil
}
