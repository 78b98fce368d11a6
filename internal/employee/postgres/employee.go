package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/account"
	accountPostgres "github.com/frahmantamala/vendor-portal/internal/account/postgres"
	accountDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/account"
	employeeDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/employee"
	"github.com/frahmantamala/vendor-portal/internal/employee"
	"gorm.io/gorm"
)

const employeeColumns = `ve.employee_id, ve.user_id, u.username, u.email, u.first_name, u.last_name, u.phone,
	ve.employee_role, ve.department, ve.status, ve.created_at, ve.updated_at,
	creator.username AS created_by_username,
	creator.first_name || ' ' || creator.last_name AS created_by_name,
	v.vendor_id, v.company_name AS vendor_company_name`

type EmployeeRepository struct {
	*accountPostgres.Repository
}

func NewEmployeeRepository(db *gorm.DB) employee.RepositoryAPI {
	return &EmployeeRepository{Repository: accountPostgres.NewRepository(db)}
}

func (r *EmployeeRepository) Create(ctx context.Context, acct *account.Account, link *employee.Link) error {
	return r.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := account.ToDataModel(acct)
		if err := accountPostgres.Insert(ctx, tx, row); err != nil {
			return err
		}
		acct.UserID = row.UserID

		createdBy := link.CreatedByUserID
		emp := &employeeDatamodel.VendorEmployee{
			UserID:          row.UserID,
			VendorID:        link.VendorID,
			EmployeeRole:    link.EmployeeRole,
			Department:      link.Department,
			Status:          account.StatusActive,
			CreatedByUserID: &createdBy,
		}
		if err := tx.Create(emp).Error; err != nil {
			return err
		}
		link.EmployeeID = emp.EmployeeID
		return nil
	})
}

// scoped is the joined employee query limited to one vendor.
func (r *EmployeeRepository) scoped(ctx context.Context, vendorID string) *gorm.DB {
	return r.DB().WithContext(ctx).
		Table("vendor_employee AS ve").
		Joins("JOIN user_account u ON u.user_id = ve.user_id").
		Joins("JOIN vendor v ON v.vendor_id = ve.vendor_id").
		Joins("LEFT JOIN user_account creator ON creator.user_id = ve.created_by_user_id").
		Where("ve.vendor_id = ?", vendorID)
}

func applyFilter(q *gorm.DB, f employee.ListFilter) *gorm.DB {
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(u.username) LIKE ? OR LOWER(u.first_name) LIKE ? OR LOWER(u.last_name) LIKE ? OR LOWER(u.email) LIKE ?)",
			pattern, pattern, pattern, pattern)
	}
	if f.Role != "" {
		q = q.Where("ve.employee_role = ?", f.Role)
	}
	if f.Status != "" {
		q = q.Where("ve.status = ?", f.Status)
	}
	return q
}

func (r *EmployeeRepository) List(ctx context.Context, vendorID string, f employee.ListFilter) ([]*employee.Employee, int64, error) {
	var total int64
	if err := applyFilter(r.scoped(ctx, vendorID), f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []employeeDatamodel.EmployeeView
	err := applyFilter(r.scoped(ctx, vendorID), f).
		Select(employeeColumns).
		Order("ve.created_at DESC, ve.employee_id DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]*employee.Employee, 0, len(rows))
	for i := range rows {
		out = append(out, employee.FromDataModel(&rows[i]))
	}
	return out, total, nil
}

func (r *EmployeeRepository) GetByID(ctx context.Context, vendorID string, employeeID int64) (*employee.Employee, error) {
	var rows []employeeDatamodel.EmployeeView
	err := r.scoped(ctx, vendorID).
		Select(employeeColumns).
		Where("ve.employee_id = ?", employeeID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, internal.ErrEmployeeNotFound
	}
	return employee.FromDataModel(&rows[0]), nil
}

// findLink loads the vendor's employee row inside tx.
func findLink(ctx context.Context, tx *gorm.DB, vendorID string, employeeID int64) (*employeeDatamodel.VendorEmployee, error) {
	var link employeeDatamodel.VendorEmployee
	err := tx.WithContext(ctx).
		Where("employee_id = ? AND vendor_id = ?", employeeID, vendorID).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *EmployeeRepository) Update(ctx context.Context, vendorID string, employeeID int64, changes employee.Changes, updatedBy int64) error {
	return r.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		link, err := findLink(ctx, tx, vendorID, employeeID)
		if err != nil {
			return err
		}

		if cols := changes.AccountColumns(); len(cols) > 0 {
			cols["updated_at"] = time.Now()
			err := tx.Model(&accountDatamodel.UserAccount{}).
				Where("user_id = ?", link.UserID).
				Updates(cols).Error
			if err != nil {
				return accountPostgres.TranslateWriteError(err)
			}
		}

		if cols := changes.EmployeeColumns(); len(cols) > 0 {
			cols["updated_by_user_id"] = updatedBy
			cols["updated_at"] = time.Now()
			err := tx.Model(&employeeDatamodel.VendorEmployee{}).
				Where("employee_id = ?", employeeID).
				Updates(cols).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *EmployeeRepository) UpdateStatus(ctx context.Context, vendorID string, employeeID int64, status string, updatedBy int64) error {
	return r.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		link, err := findLink(ctx, tx, vendorID, employeeID)
		if err != nil {
			return err
		}

		err = tx.Model(&employeeDatamodel.VendorEmployee{}).
			Where("employee_id = ?", employeeID).
			Updates(map[string]interface{}{
				"status":             status,
				"updated_by_user_id": updatedBy,
				"updated_at":         time.Now(),
			}).Error
		if err != nil {
			return err
		}

		return accountPostgres.UpdateStatus(ctx, tx, link.UserID, status)
	})
}

func (r *EmployeeRepository) Delete(ctx context.Context, vendorID string, employeeID int64) error {
	return r.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		link, err := findLink(ctx, tx, vendorID, employeeID)
		if err != nil {
			return err
		}

		if err := tx.Delete(&employeeDatamodel.VendorEmployee{}, "employee_id = ?", employeeID).Error; err != nil {
			return err
		}
		return tx.Delete(&accountDatamodel.UserAccount{}, "user_id = ?", link.UserID).Error
	})
}
