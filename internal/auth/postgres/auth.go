package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/vendor-portal/internal/account"
	accountPostgres "github.com/frahmantamala/vendor-portal/internal/account/postgres"
	"github.com/frahmantamala/vendor-portal/internal/auth"
	vendorDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/vendor"
	"gorm.io/gorm"
)

type AuthRepository struct {
	*accountPostgres.Repository
}

func NewAuthRepository(db *gorm.DB) auth.RepositoryAPI {
	return &AuthRepository{Repository: accountPostgres.NewRepository(db)}
}

// VendorIDFor is the tenant id minted for a vendor account.
func VendorIDFor(userID int64) string {
	return fmt.Sprintf("VND%06d", userID)
}

func (r *AuthRepository) Register(ctx context.Context, acct *account.Account, companyName string) (string, error) {
	var vendorID string
	err := r.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := account.ToDataModel(acct)
		if err := accountPostgres.Insert(ctx, tx, row); err != nil {
			return err
		}
		acct.UserID = row.UserID
		acct.CreatedAt = row.CreatedAt
		acct.UpdatedAt = row.UpdatedAt

		if acct.Role != account.RoleVendor {
			return nil
		}

		v := &vendorDatamodel.Vendor{
			VendorID:    VendorIDFor(row.UserID),
			UserID:      row.UserID,
			CompanyName: companyName,
		}
		if err := tx.Create(v).Error; err != nil {
			return fmt.Errorf("create vendor profile: %w", err)
		}
		vendorID = v.VendorID
		return nil
	})
	if err != nil {
		return "", err
	}
	return vendorID, nil
}
