package roleapimodels

import (
	"microloan-backend/lib/rolepolicy"
	"microloan-backend/models"
)

type RoleView struct {
	Role models.UserRole `json:"role"`
	Name string          `json:"name"`
}

func RolesConvert(roles []models.UserRole) []RoleView {
	result := make([]RoleView, 0, len(roles))
	for _, role := range roles {
		result = append(result, RoleView{Role: role, Name: role.ToHuman()})
	}
	return result
}

type UserRolesView struct {
	UserID  string             `json:"user_id"`
	Roles   []RoleView         `json:"roles"`
	Allowed rolepolicy.Allowed `json:"allowed"`
}

type ChangeResult struct {
	UserID string               `json:"user_id"`
	Roles  []RoleView           `json:"roles"`
	Reason string               `json:"reason"`
	Op     rolepolicy.Operation `json:"operation"`
}
