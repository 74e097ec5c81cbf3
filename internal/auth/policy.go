package auth

import (
	"github.com/eatsy/identity-service/internal/apperr"
	"github.com/eatsy/identity-service/internal/domain"
)

// Access gates are pure predicates over an already-authenticated
// identity. They run in a fixed order: authentication first, then role,
// then vendor status.

// RequireRole fails with Forbidden unless the user's role is in the
// allowed set.
func RequireRole(u *domain.User, allowed ...domain.Role) error {
	for _, r := range allowed {
		if u.Role == r {
			return nil
		}
	}
	return apperr.Forbidden("You do not have permission to perform this action")
}

// RequireActiveVendor admits only an active vendor. Every other
// combination is Forbidden with a message naming the reason.
func RequireActiveVendor(u *domain.User) error {
	if u.Role != domain.RoleVendor {
		return apperr.Forbidden("Only vendors can perform this action")
	}
	switch u.VendorStatus {
	case domain.VendorActive:
		return nil
	case domain.VendorPending:
		return apperr.Forbidden("Your vendor account is pending approval")
	case domain.VendorSuspended:
		return apperr.Forbidden("Your vendor account has been suspended")
	case domain.VendorRejected:
		return apperr.Forbidden("Your vendor application was rejected")
	default:
		return apperr.Forbidden("Invalid vendor status")
	}
}
