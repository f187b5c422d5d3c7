package rbac

// Role constants
const (
	RoleOwner   = "owner"
	RoleMinter  = "minter"
	RoleAuditor = "auditor"
)

// Permission constants
const (
	PermMint             = "mint"
	PermWithdraw         = "withdraw"
	PermReadTransactions = "read_transactions"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	RoleOwner: {
		PermMint, PermWithdraw, PermReadTransactions,
	},
	RoleMinter: {
		PermMint, PermReadTransactions,
		// Minter CANNOT: PermWithdraw
	},
	RoleAuditor: {
		PermReadTransactions,
	},
}

// IsValidRole reports whether role is known.
func IsValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// IsFinancialOperation checks if permission moves contract funds (owner-only).
func IsFinancialOperation(permission string) bool {
	return permission == PermWithdraw
}
