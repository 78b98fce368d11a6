package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/account"
	accountDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/account"
	"gorm.io/gorm"
)

// Repository holds the user_account queries shared by every router that creates or edits logins.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *gorm.DB {
	return r.db
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*account.Account, error) {
	var row accountDatamodel.UserAccount
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return account.FromDataModel(&row), nil
}

func (r *Repository) GetByID(ctx context.Context, userID int64) (*account.Account, error) {
	var row accountDatamodel.UserAccount
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return account.FromDataModel(&row), nil
}

func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&accountDatamodel.UserAccount{}).
		Where("username = ?", username).
		Count(&count).Error
	return count > 0, err
}

// EmailExists reports whether another account uses email. excludeUserID of zero excludes nobody.
func (r *Repository) EmailExists(ctx context.Context, email string, excludeUserID int64) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&accountDatamodel.UserAccount{}).Where("email = ?", email)
	if excludeUserID != 0 {
		q = q.Where("user_id <> ?", excludeUserID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *Repository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&accountDatamodel.UserAccount{}).
		Where("user_id = ?", userID).
		Update("password_hash", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

// Insert writes row on tx, which may be the repository's own handle or an open transaction.
func Insert(ctx context.Context, tx *gorm.DB, row *accountDatamodel.UserAccount) error {
	return TranslateWriteError(tx.WithContext(ctx).Create(row).Error)
}

func UpdateStatus(ctx context.Context, tx *gorm.DB, userID int64, status string) error {
	return tx.WithContext(ctx).Model(&accountDatamodel.UserAccount{}).
		Where("user_id = ?", userID).
		Update("status", status).Error
}
