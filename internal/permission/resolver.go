package permission

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/account"
)

// EmployeeLink is the part of a vendor_employee row the resolver needs.
type EmployeeLink struct {
	EmployeeID   int64
	VendorID     string
	EmployeeRole string
	Status       string
}

type RepositoryAPI interface {
	// GetRole returns internal.ErrUserNotFound when the account is gone.
	GetRole(ctx context.Context, userID int64) (account.Role, error)
	// GetVendorID returns internal.ErrVendorNotFound when the user owns no vendor.
	GetVendorID(ctx context.Context, userID int64) (string, error)
	// GetEmployeeLink returns internal.ErrEmployeeProfileNotFound when the user is not linked.
	GetEmployeeLink(ctx context.Context, userID int64) (*EmployeeLink, error)
}

// Resolver derives Permissions from the database on every call; nothing is cached, so a
// deactivation takes effect on the caller's next request.
type Resolver struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewResolver(repo RepositoryAPI, logger *slog.Logger) *Resolver {
	return &Resolver{repo: repo, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, id internal.Identity) (Permissions, error) {
	role, err := r.repo.GetRole(ctx, id.UserID)
	if err != nil {
		return Permissions{}, err
	}

	switch role {
	case account.RoleVendor:
		vendorID, err := r.repo.GetVendorID(ctx, id.UserID)
		if err != nil {
			return Permissions{}, err
		}
		return Permissions{UserID: id.UserID, VendorID: vendorID, UserType: VendorAdmin}, nil

	case account.RoleEmployee:
		link, err := r.repo.GetEmployeeLink(ctx, id.UserID)
		if err != nil {
			return Permissions{}, err
		}
		if link.Status != account.StatusActive {
			r.logger.Warn("inactive employee rejected", "user_id", id.UserID, "vendor_id", link.VendorID)
			return Permissions{}, internal.ErrEmployeeInactive
		}
		return Permissions{UserID: id.UserID, VendorID: link.VendorID, UserType: employeeUserType(link.EmployeeRole)}, nil
	}

	r.logger.Warn("non-vendor role rejected", "user_id", id.UserID, "role", role)
	return Permissions{}, internal.ErrRoleNotAllowed
}

// ResolveVendorAdmin is Resolve restricted to vendor owners.
func (r *Resolver) ResolveVendorAdmin(ctx context.Context, id internal.Identity) (Permissions, error) {
	p, err := r.Resolve(ctx, id)
	if err != nil {
		return Permissions{}, err
	}
	if !p.IsVendorAdmin() {
		return Permissions{}, internal.ErrVendorOnly
	}
	return p, nil
}

// unrecognised employee roles fall through to the least privileged type
func employeeUserType(role string) UserType {
	switch UserType(role) {
	case Manager:
		return Manager
	case Editor:
		return Editor
	}
	return Viewer
}
