package employee

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
	// Create inserts the account and the employee link in one transaction, filling in the new ids.
	Create(ctx context.Context, acct *account.Account, link *Link) error
	List(ctx context.Context, vendorID string, filter ListFilter) ([]*Employee, int64, error)
	// The remaining methods return internal.ErrEmployeeNotFound for ids outside vendorID.
	GetByID(ctx context.Context, vendorID string, employeeID int64) (*Employee, error)
	Update(ctx context.Context, vendorID string, employeeID int64, changes Changes, updatedBy int64) error
	UpdateStatus(ctx context.Context, vendorID string, employeeID int64, status string, updatedBy int64) error
	Delete(ctx context.Context, vendorID string, employeeID int64) error
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

func (s *Service) Create(ctx context.Context, p permission.Permissions, dto CreateEmployeeDTO) (*CreateResponse, error) {
	if err := p.Require(permission.Employees, permission.Create); err != nil {
		s.logger.Warn("employee create denied", "user_id", p.UserID, "user_type", p.UserType)
		return nil, err
	}

	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.checkUnique(ctx, dto.Username, dto.Email); err != nil {
		return nil, err
	}

	hash, err := account.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	acct := dto.Account()
	acct.PasswordHash = hash
	link := &Link{
		VendorID:        p.VendorID,
		EmployeeRole:    dto.EmployeeRole,
		Department:      dto.Department,
		CreatedByUserID: p.UserID,
	}

	if err := s.repo.Create(ctx, acct, link); err != nil {
		s.logger.Error("failed to create employee", "vendor_id", p.VendorID, "username", dto.Username, "error", err)
		return nil, err
	}

	s.logger.Info("employee created", "vendor_id", p.VendorID, "employee_id", link.EmployeeID, "created_by", p.UserID)
	return &CreateResponse{
		Message:      "Employee account created successfully",
		EmployeeID:   link.EmployeeID,
		UserID:       acct.UserID,
		Username:     acct.Username,
		Email:        acct.Email,
		EmployeeRole: link.EmployeeRole,
		VendorID:     p.VendorID,
	}, nil
}

func (s *Service) checkUnique(ctx context.Context, username, email string) error {
	taken, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return err
	}
	if taken {
		return internal.ErrUsernameTaken
	}
	taken, err = s.repo.EmailExists(ctx, email, 0)
	if err != nil {
		return err
	}
	if taken {
		return internal.ErrEmailTaken
	}
	return nil
}

func (s *Service) List(ctx context.Context, p permission.Permissions, filter ListFilter) (*ListResponse, error) {
	// unknown filter values are ignored rather than rejected
	if !slices.Contains(permission.EmployeeRoles, filter.Role) {
		filter.Role = ""
	}
	if !slices.Contains(account.Statuses, filter.Status) {
		filter.Status = ""
	}

	employees, total, err := s.repo.List(ctx, p.VendorID, filter)
	if err != nil {
		return nil, err
	}
	return &ListResponse{Employees: employees, TotalCount: total, VendorID: p.VendorID}, nil
}

func (s *Service) Get(ctx context.Context, p permission.Permissions, employeeID int64) (*Employee, error) {
	return s.repo.GetByID(ctx, p.VendorID, employeeID)
}

func (s *Service) Update(ctx context.Context, p permission.Permissions, employeeID int64, dto UpdateEmployeeDTO) (*MutationResponse, error) {
	if err := p.Require(permission.Employees, permission.Edit); err != nil {
		return nil, err
	}

	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, p.VendorID, employeeID)
	if err != nil {
		return nil, err
	}

	if dto.Email != nil {
		taken, err := s.repo.EmailExists(ctx, *dto.Email, current.UserID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, internal.ErrEmailTaken
		}
	}

	if err := s.repo.Update(ctx, p.VendorID, employeeID, dto.Changes(), p.UserID); err != nil {
		s.logger.Error("failed to update employee", "employee_id", employeeID, "error", err)
		return nil, err
	}

	s.logger.Info("employee updated", "vendor_id", p.VendorID, "employee_id", employeeID, "updated_by", p.UserID)
	return &MutationResponse{Message: "Employee updated successfully", EmployeeID: employeeID}, nil
}

// UpdateStatus changes the employee link and the login together.
func (s *Service) UpdateStatus(ctx context.Context, p permission.Permissions, employeeID int64, dto UpdateStatusDTO) (*MutationResponse, error) {
	if err := p.Require(permission.Employees, permission.Deactivate); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, p.VendorID, employeeID, dto.Status, p.UserID); err != nil {
		return nil, err
	}

	action := "deactivated"
	if dto.Status == account.StatusActive {
		action = "activated"
	}
	s.logger.Info("employee status changed", "vendor_id", p.VendorID, "employee_id", employeeID, "status", dto.Status)
	return &MutationResponse{Message: "Employee " + action + " successfully", EmployeeID: employeeID, Status: dto.Status}, nil
}

// Delete removes the employee link and its account permanently.
func (s *Service) Delete(ctx context.Context, p permission.Permissions, employeeID int64) (*MutationResponse, error) {
	if !p.Can(permission.Employees, permission.Delete) {
		return nil, internal.NewForbiddenError("Only vendor administrators can permanently delete employees",
			internal.ErrCodeInsufficientPermissions)
	}

	if err := s.repo.Delete(ctx, p.VendorID, employeeID); err != nil {
		return nil, err
	}

	s.logger.Info("employee deleted", "vendor_id", p.VendorID, "employee_id", employeeID, "deleted_by", p.UserID)
	return &MutationResponse{Message: "Employee deleted permanently", EmployeeID: employeeID}, nil
}
