package rolepolicy

import (
	"fmt"

	"microloan-backend/models"
)

type Operation string

const (
	OperationAdd    Operation = "add"
	OperationRemove Operation = "remove"
)

type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

type Allowed struct {
	CanAdd      []models.UserRole `json:"can_add"`
	CanRemove   []models.UserRole `json:"can_remove"`
	Description string            `json:"description"`
}

func allow(reason string) Decision {
	return Decision{Allowed: true, Reason: reason}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

type roleSet map[models.UserRole]bool

func newRoleSet(roles []models.UserRole) roleSet {
	set := roleSet{}
	for _, role := range roles {
		set[role] = true
	}
	return set
}

// Evaluate decides whether op on target is legal for a user currently holding current.
// Rules, highest priority first:
//  1. super admins are exempt
//  2. client is exclusive and may always be removed
//  3. a lone loan_officer may only be promoted to admin
//  4. admin coexists with loan_officer, never with client
func Evaluate(current []models.UserRole, op Operation, target models.UserRole, superAdmin bool) Decision {
	if !target.IsValid() {
		return deny(fmt.Sprintf("unknown role %q", target))
	}
	if op != OperationAdd && op != OperationRemove {
		return deny(fmt.Sprintf("unknown operation %q", op))
	}
	if superAdmin {
		return allow("super admin is exempt from role restrictions")
	}
	held := newRoleSet(current)

	if op == OperationRemove {
		if !held[target] {
			return deny(fmt.Sprintf("user does not hold the %s role", target))
		}
		return allow(fmt.Sprintf("the %s role can be removed", target))
	}

	if held[target] {
		return allow(fmt.Sprintf("the %s role is already assigned", target))
	}
	if held[models.ClientRole] {
		return deny(fmt.Sprintf("client role is exclusive: remove client before adding %s", target))
	}
	if target == models.ClientRole {
		if held[models.AdminRole] {
			return deny("admin cannot hold the client role: remove admin first")
		}
		if held[models.LoanOfficerRole] {
			return deny("loan officer cannot hold the client role: remove loan_officer first")
		}
	}
	if target == models.AdminRole && held[models.LoanOfficerRole] {
		return allow("loan officer is promoted to admin")
	}
	return allow(fmt.Sprintf("the %s role can be added", target))
}

// AllowedRoles lists every role that can currently be added or removed.
func AllowedRoles(current []models.UserRole, superAdmin bool) Allowed {
	result := Allowed{
		CanAdd:      []models.UserRole{},
		CanRemove:   []models.UserRole{},
		Description: describe(current, superAdmin),
	}
	held := newRoleSet(current)
	for _, role := range models.AllRoles {
		if held[role] {
			if Evaluate(current, OperationRemove, role, superAdmin).Allowed {
				result.CanRemove = append(result.CanRemove, role)
			}
			continue
		}
		if Evaluate(current, OperationAdd, role, superAdmin).Allowed {
			result.CanAdd = append(result.CanAdd, role)
		}
	}
	return result
}

func describe(current []models.UserRole, superAdmin bool) string {
	held := newRoleSet(current)
	switch {
	case superAdmin:
		return "Super admin: any role may be added or removed"
	case len(held) == 0:
		return "No roles assigned: any single role may be added"
	case held[models.ClientRole]:
		return "Client role is exclusive: remove client before assigning staff roles"
	case held[models.AdminRole]:
		return "Admin may also hold loan officer; client requires removing admin first"
	case held[models.LoanOfficerRole]:
		return "Loan officer may be promoted to admin; client cannot be added"
	}
	return "Only known roles may be assigned"
}
