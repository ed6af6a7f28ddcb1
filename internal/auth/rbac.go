package auth

import "github.com/MacJediWizard/certvault/internal/models"

// Operation names a protected action on the API.
type Operation string

const (
	// Certificate operations
	OpCertificateList         Operation = "certificate:list"
	OpCertificateRead         Operation = "certificate:read"
	OpCertificateListOwn      Operation = "certificate:list_own"
	OpCertificateIssue        Operation = "certificate:issue"
	OpCertificateUpdateStatus Operation = "certificate:update_status"
	OpCertificateDelete       Operation = "certificate:delete"
	OpCertificateAuditRead    Operation = "certificate:audit_read"

	// Course operations
	OpCourseRead   Operation = "course:read"
	OpCourseCreate Operation = "course:create"
)

// operationRoles maps each operation to the roles allowed to perform it.
// Operations missing from the table are denied to everyone.
var operationRoles = map[Operation][]models.UserRole{
	OpCertificateList: {
		models.UserRoleCertificateAdmin, models.UserRoleSystemAdmin,
	},
	OpCertificateRead:    models.AllUserRoles,
	OpCertificateListOwn: models.AllUserRoles,
	OpCertificateIssue: {
		models.UserRoleCertificateAdmin, models.UserRoleInstructor, models.UserRoleSystemAdmin,
	},
	OpCertificateUpdateStatus: {
		models.UserRoleCertificateAdmin, models.UserRoleSystemAdmin,
	},
	OpCertificateDelete: {
		models.UserRoleCertificateAdmin, models.UserRoleSystemAdmin,
	},
	OpCertificateAuditRead: {
		models.UserRoleCertificateAdmin, models.UserRoleSystemAdmin,
	},
	OpCourseRead: models.AllUserRoles,
	OpCourseCreate: {
		models.UserRoleSystemAdmin, models.UserRoleCertificateAdmin, models.UserRoleInstructor,
	},
}

// Permits reports whether role may perform op.
func Permits(role models.UserRole, op Operation) bool {
	for _, allowed := range operationRoles[op] {
		if allowed == role {
			return true
		}
	}
	return false
}

// RequirePermission returns ErrForbidden unless role may perform op.
func RequirePermission(role models.UserRole, op Operation) error {
	if !Permits(role, op) {
		return ErrForbidden
	}
	return nil
}

// RolesFor returns a copy of the roles allowed to perform op.
func RolesFor(op Operation) []models.UserRole {
	roles := operationRoles[op]
	out := make([]models.UserRole, len(roles))
	copy(out, roles)
	return out
}
