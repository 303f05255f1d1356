package services

import "github.com/harjot20022001/bug-tracker/types"

// RequireAuthenticated fails when no identity was resolved for the request.
func RequireAuthenticated(identity types.Identity) error {
	if identity.UserID == "" {
		return authError(msgNotAuthorized)
	}
	return nil
}

// RequireRole fails unless the caller holds role.
func RequireRole(identity types.Identity, role types.Role) error {
	if err := RequireAuthenticated(identity); err != nil {
		return err
	}
	if identity.Role != role {
		if role == types.RoleAdmin {
			return forbiddenError("Access denied. Admin role required.")
		}
		return forbiddenError("Access denied. " + string(role) + " role required.")
	}
	return nil
}

// ForbidSelfDeletion rejects an account deleting itself.
func ForbidSelfDeletion(identity types.Identity, targetID string) error {
	if identity.UserID == targetID {
		return validationError("Cannot delete your own account")
	}
	return nil
}
