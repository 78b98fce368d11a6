package patient

import (
	"context"
	"log/slog"
	"slices"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/account"
	"github.com/frahmantamala/vendor-portal/internal/permission"
)

type RepositoryAPI interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string, excludeUserID int64) (bool, error)
	// Create inserts the account and customer rows in one transaction and returns the customer id.
	Create(ctx context.Context, acct *account.Account, profile Profile, vendorID string) (int64, error)
	List(ctx context.Context, vendorID string, filter ListFilter) ([]*Patient, int64, error)
	// The remaining methods return internal.ErrPatientNotFound for ids outside vendorID.
	GetByID(ctx context.Context, vendorID string, customerID int64) (*Patient, error)
	Update(ctx context.Context, vendorID string, customerID int64, changes Changes) error
	Deactivate(ctx context.Context, vendorID string, customerID int64) error
}

type Service struct {
	repo       RepositoryAPI
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) Create(ctx context.Context, p permission.Permissions, dto CreatePatientDTO) (*CreateResponse, error) {
	if err := p.Require(permission.Patients, permission.Create); err != nil {
		s.logger.Warn("patient create denied", "user_id", p.UserID, "user_type", p.UserType)
		return nil, err
	}

	dto.Normalize()
	profile, verr := dto.Validate()
	if verr != nil {
		return nil, verr
	}

	taken, err := s.repo.UsernameExists(ctx, dto.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, internal.ErrUsernameTaken
	}
	taken, err = s.repo.EmailExists(ctx, dto.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, internal.ErrEmailTaken
	}

	hash, err := account.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	acct := dto.Account()
	acct.PasswordHash = hash

	customerID, err := s.repo.Create(ctx, acct, profile, p.VendorID)
	if err != nil {
		s.logger.Error("failed to create patient", "vendor_id", p.VendorID, "username", dto.Username, "error", err)
		return nil, err
	}

	s.logger.Info("patient created", "vendor_id", p.VendorID, "customer_id", customerID, "created_by", p.UserID)
	return &CreateResponse{
		Message:         "Patient account created successfully",
		CustomerID:      customerID,
		UserID:          acct.UserID,
		Username:        acct.Username,
		Email:           acct.Email,
		CreatedByVendor: p.VendorID,
	}, nil
}

func (s *Service) List(ctx context.Context, p permission.Permissions, filter ListFilter) (*ListResponse, error) {
	if !slices.Contains(account.Statuses, filter.Status) {
		filter.Status = ""
	}

	patients, total, err := s.repo.List(ctx, p.VendorID, filter)
	if err != nil {
		return nil, err
	}
	return &ListResponse{Patients: patients, TotalCount: total, VendorID: p.VendorID}, nil
}

func (s *Service) Get(ctx context.Context, p permission.Permissions, customerID int64) (*Patient, error) {
	return s.repo.GetByID(ctx, p.VendorID, customerID)
}

func (s *Service) Update(ctx context.Context, p permission.Permissions, customerID int64, dto UpdatePatientDTO) (*Patient, error) {
	if err := p.Require(permission.Patients, permission.Edit); err != nil {
		return nil, err
	}

	dto.Normalize()
	changes, verr := dto.Validate()
	if verr != nil {
		return nil, verr
	}

	current, err := s.repo.GetByID(ctx, p.VendorID, customerID)
	if err != nil {
		return nil, err
	}

	if changes.Email != nil {
		taken, err := s.repo.EmailExists(ctx, *changes.Email, current.UserID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, internal.ErrEmailTaken
		}
	}

	if err := s.repo.Update(ctx, p.VendorID, customerID, changes); err != nil {
		s.logger.Error("failed to update patient", "customer_id", customerID, "error", err)
		return nil, err
	}

	s.logger.Info("patient updated", "vendor_id", p.VendorID, "customer_id", customerID, "updated_by", p.UserID)
	return s.repo.GetByID(ctx, p.VendorID, customerID)
}

// Delete is a soft delete: the login is set inactive and every row is kept.
func (s *Service) Delete(ctx context.Context, p permission.Permissions, customerID int64) (*MutationResponse, error) {
	if err := p.Require(permission.Patients, permission.Deactivate); err != nil {
		return nil, err
	}

	if err := s.repo.Deactivate(ctx, p.VendorID, customerID); err != nil {
		return nil, err
	}

	s.logger.Info("patient deactivated", "vendor_id", p.VendorID, "customer_id", customerID, "deactivated_by", p.UserID)
	return &MutationResponse{Message: "Patient deactivated successfully", CustomerID: customerID, Status: account.StatusInactive}, nil
}

// Roster returns every patient of the caller's vendor, for export.
func (s *Service) Roster(ctx context.Context, p permission.Permissions) ([]*Patient, error) {
	patients, _, err := s.repo.List(ctx, p.VendorID, ListFilter{Limit: -1})
	return patients, err
}
