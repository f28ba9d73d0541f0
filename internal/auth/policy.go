package auth

import "dyscalc-screening-service/internal/domain"

// CanViewResults decides whether the requester may list or export the
// target user's results. Self is always allowed; teachers and admins may
// read anyone; a parent may read only a child whose guardian link points
// back at them.
func CanViewResults(requester domain.Identity, target domain.User) bool {
	if requester.UserID == target.ID {
		return true
	}
	switch requester.Role {
	case domain.RoleTeacher, domain.RoleAdmin:
		return true
	case domain.RoleParent:
		return target.GuardianID != "" && target.GuardianID == requester.UserID
	}
	return false
}
