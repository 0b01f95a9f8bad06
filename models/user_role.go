package models

type UserRole string

const (
	AdminRole       UserRole = "admin"
	LoanOfficerRole UserRole = "loan_officer"
	ClientRole      UserRole = "client"
)

var AllRoles = []UserRole{AdminRole, LoanOfficerRole, ClientRole}

// ReviewerRoles hold the right to decide approval requests
var ReviewerRoles = []UserRole{AdminRole, LoanOfficerRole}

var roleHumanName = map[UserRole]string{
	AdminRole:       "Administrator",
	LoanOfficerRole: "Loan officer",
	ClientRole:      "Client",
}

func (r UserRole) ToHuman() string {
	if human, exist := roleHumanName[r]; exist {
		return human
	}
	return string(r)
}

func (r UserRole) IsValid() bool {
	_, ok := roleHumanName[r]
	return ok
}

// Actor is the authenticated caller of a business operation
type Actor struct {
	UserID     string
	Email      string
	Roles      []UserRole
	SuperAdmin bool
}

func (a Actor) HasRole(role UserRole) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool {
	return a.SuperAdmin || a.HasRole(AdminRole)
}

func (a Actor) IsReviewer() bool {
	return a.SuperAdmin || a.HasRole(AdminRole) || a.HasRole(LoanOfficerRole)
}
