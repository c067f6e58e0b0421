package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleOperator, RoleViewer:
		return true
	default:
		return false
	}
}
