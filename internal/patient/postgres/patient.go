package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/account"
	accountPostgres "github.com/frahmantamala/vendor-portal/internal/account/postgres"
	accountDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/account"
	patientDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/patient"
	"github.com/frahmantamala/vendor-portal/internal/patient"
	"gorm.io/gorm"
)

const patientColumns = `c.customer_id, c.user_id, u.username, u.email, u.first_name, u.last_name,
	COALESCE(c.phone, u.phone) AS phone, u.status, u.age, COALESCE(c.gender, u.gender) AS gender,
	u.created_at, c.created_by_vendor_id, c.date_of_birth, c.address, c.city, c.state, c.postal_code, c.country`

type PatientRepository struct {
	*accountPostgres.Repository
}

func NewPatientRepository(db *gorm.DB) patient.RepositoryAPI {
	return &PatientRepository{Repository: accountPostgres.NewRepository(db)}
}

func (r *PatientRepository) Create(ctx context.Context, acct *account.Account, profile patient.Profile, vendorID string) (int64, error) {
	var customerID int64
	err := r.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := account.ToDataModel(acct)
		if err := accountPostgres.Insert(ctx, tx, row); err != nil {
			return err
		}
		acct.UserID = row.UserID

		customer := profile.ToDataModel(row.UserID, vendorID)
		if err := tx.Create(customer).Error; err != nil {
			return err
		}
		customerID = customer.CustomerID
		return nil
	})
	return customerID, err
}

func (r *PatientRepository) scoped(ctx context.Context, vendorID string) *gorm.DB {
	return r.DB().WithContext(ctx).
		Table("customer AS c").
		Joins("JOIN user_account u ON u.user_id = c.user_id").
		Where("c.created_by_vendor_id = ?", vendorID)
}

func applyFilter(q *gorm.DB, f patient.ListFilter) *gorm.DB {
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(u.username) LIKE ? OR LOWER(u.first_name) LIKE ? OR LOWER(u.last_name) LIKE ? OR LOWER(u.email) LIKE ?)",
			pattern, pattern, pattern, pattern)
	}
	if f.Status != "" {
		q = q.Where("u.status = ?", f.Status)
	}
	return q
}

func (r *PatientRepository) List(ctx context.Context, vendorID string, f patient.ListFilter) ([]*patient.Patient, int64, error) {
	var total int64
	if err := applyFilter(r.scoped(ctx, vendorID), f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []patientDatamodel.PatientView
	q := applyFilter(r.scoped(ctx, vendorID), f).
		Select(patientColumns).
		Order("u.created_at DESC, c.customer_id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*patient.Patient, 0, len(rows))
	for i := range rows {
		out = append(out, patient.FromDataModel(&rows[i]))
	}
	return out, total, nil
}

func (r *PatientRepository) GetByID(ctx context.Context, vendorID string, customerID int64) (*patient.Patient, error) {
	var rows []patientDatamodel.PatientView
	err := r.scoped(ctx, vendorID).
		Select(patientColumns).
		Where("c.customer_id = ?", customerID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, internal.ErrPatientNotFound
	}
	return patient.FromDataModel(&rows[0]), nil
}

func findCustomer(ctx context.Context, tx *gorm.DB, vendorID string, customerID int64) (*patientDatamodel.Customer, error) {
	var c patientDatamodel.Customer
	err := tx.WithContext(ctx).
		Where("customer_id = ? AND created_by_vendor_id = ?", customerID, vendorID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrPatientNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *PatientRepository) Update(ctx context.Context, vendorID string, customerID int64, changes patient.Changes) error {
	return r.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := findCustomer(ctx, tx, vendorID, customerID)
		if err != nil {
			return err
		}

		if cols := changes.AccountColumns(); len(cols) > 0 {
			err := tx.Model(&accountDatamodel.UserAccount{}).Where("user_id = ?", c.UserID).Updates(cols).Error
			if err != nil {
				return accountPostgres.TranslateWriteError(err)
			}
		}
		if cols := changes.CustomerColumns(); len(cols) > 0 {
			if err := tx.Model(&patientDatamodel.Customer{}).Where("customer_id = ?", customerID).Updates(cols).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PatientRepository) Deactivate(ctx context.Context, vendorID string, customerID int64) error {
	return r.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := findCustomer(ctx, tx, vendorID, customerID)
		if err != nil {
			return err
		}
		return accountPostgres.UpdateStatus(ctx, tx, c.UserID, account.StatusInactive)
	})
}
